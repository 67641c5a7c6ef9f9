package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskwave-api/internal/auth"
	"github.com/yukikurage/taskwave-api/internal/constants"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken            = errors.New("username already exists")
	ErrInvalidUsername          = errors.New("username must be a valid email address")
	ErrNameRequired             = errors.New("name is required")
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrPasswordTooShort         = errors.New("password too short")
	ErrNegativeStreak           = errors.New("focus streak cannot be negative")
	ErrUserNotFound             = errors.New("user not found")
	ErrFailedToHashPassword     = errors.New("failed to hash password")
	ErrPasswordChangeNotAllowed = errors.New("password change requires a verified one-time code")
)

var validate = validator.New()

// GrantStore consumes the password change grants written by OTP verification.
type GrantStore interface {
	ConsumeGrant(ctx context.Context, username string) (bool, error)
	Grant(ctx context.Context, username string, ttl time.Duration) error
}

// UserService handles signup, signin and profile business logic.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	grants   GrantStore
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, grants GrantStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		grants:   grants,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Password string
	Name     string
}

// NormalizeUsername trims and lowercases an email username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Signup creates a new user. It does not log the user in.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := NormalizeUsername(input.Username)
	if err := validate.Var(username, "required,email"); err != nil {
		return nil, ErrInvalidUsername
	}
	password := strings.TrimSpace(input.Password)
	if len(password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// SigninInput holds the credentials for authentication.
type SigninInput struct {
	Username string
	Password string
}

// Signin verifies credentials and issues a bearer token.
func (s *UserService) Signin(ctx context.Context, input SigninInput) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, NormalizeUsername(input.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(input.Password))); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the optional profile fields.
type UpdateProfileInput struct {
	Name        *string
	NewPassword *string
	FocusStreak *int
}

// UpdateProfile applies a partial profile update. Changing the password
// consumes the grant left by a successful OTP verification.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	var update repository.UserUpdate

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		update.Name = &name
	}
	if input.FocusStreak != nil {
		if *input.FocusStreak < 0 {
			return nil, ErrNegativeStreak
		}
		update.FocusStreak = input.FocusStreak
	}

	var password string
	if input.NewPassword != nil {
		password = strings.TrimSpace(*input.NewPassword)
		if len(password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.NewPassword != nil {
		if s.grants == nil {
			return nil, ErrPasswordChangeNotAllowed
		}
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}

		granted, err := s.grants.ConsumeGrant(ctx, user.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check password change grant: %w", err)
		}
		if !granted {
			return nil, ErrPasswordChangeNotAllowed
		}
		update.PasswordHash = &hash
	}

	if update.IsEmpty() {
		return user, nil
	}

	updated, err := s.userRepo.Update(ctx, userID, update)
	if err != nil {
		if update.PasswordHash != nil {
			s.restoreGrant(ctx, user.Username)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

// restoreGrant gives back a grant consumed by a password change that was not saved.
func (s *UserService) restoreGrant(ctx context.Context, username string) {
	if err := s.grants.Grant(ctx, username, constants.OTPTTL); err != nil {
		logging.Error().Err(err).Str("username", username).Msg("Failed to restore password change grant")
	}
}
