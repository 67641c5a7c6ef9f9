package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskwave-api/internal/cache"
	"github.com/yukikurage/taskwave-api/internal/constants"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/mailer"
	"github.com/yukikurage/taskwave-api/internal/metrics"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

var (
	ErrOTPUsernameMismatch = errors.New("codes can only be requested for your own account")
	ErrOTPExpired          = errors.New("OTP expired or not found")
	ErrInvalidOTP          = errors.New("invalid OTP")
	ErrEmailDelivery       = errors.New("unable to send email")
)

// OTPStore keeps hashed codes and password change grants
type OTPStore interface {
	SaveCode(ctx context.Context, username, codeHash string, ttl time.Duration) error
	Code(ctx context.Context, username string) (string, error)
	ConsumeCode(ctx context.Context, username string) (bool, error)
	Grant(ctx context.Context, username string, ttl time.Duration) error
}

// OTPService issues and verifies one-time codes sent by email
type OTPService struct {
	store    OTPStore
	sender   mailer.Sender
	userRepo repository.UserRepository
	ttl      time.Duration
}

// NewOTPService creates a new OTPService
func NewOTPService(store OTPStore, sender mailer.Sender, userRepo repository.UserRepository) *OTPService {
	return &OTPService{
		store:    store,
		sender:   sender,
		userRepo: userRepo,
		ttl:      constants.OTPTTL,
	}
}

// Send generates a code for the caller, stores its hash and emails it.
// The stored hash is kept when delivery fails.
func (s *OTPService) Send(ctx context.Context, userID, username string) error {
	username, err := s.requireOwnUsername(ctx, userID, username)
	if err != nil {
		return err
	}

	code, err := utils.GenerateOTP(constants.OTPLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.store.SaveCode(ctx, username, utils.HashOTP(code), s.ttl); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	msg, err := mailer.OTPMessage(username, code, s.ttl)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("OTP email delivery failed")
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	metrics.OTPSent.Inc()
	return nil
}

// Verify checks code against the stored hash. A match deletes the code and
// grants one password change within the same expiry window.
func (s *OTPService) Verify(ctx context.Context, userID, username, code string) error {
	username, err := s.requireOwnUsername(ctx, userID, username)
	if err != nil {
		return err
	}

	stored, err := s.store.Code(ctx, username)
	if errors.Is(err, cache.ErrMissing) {
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("failed to read otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(utils.HashOTP(strings.TrimSpace(code)))) != 1 {
		metrics.OTPVerifications.WithLabelValues("invalid").Inc()
		return ErrInvalidOTP
	}

	consumed, err := s.store.ConsumeCode(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if !consumed {
		// A concurrent verification used the code first.
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return ErrOTPExpired
	}
	if err := s.store.Grant(ctx, username, s.ttl); err != nil {
		return fmt.Errorf("failed to grant password change: %w", err)
	}

	metrics.OTPVerifications.WithLabelValues("success").Inc()
	return nil
}

func (s *OTPService) requireOwnUsername(ctx context.Context, userID, username string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	username = NormalizeUsername(username)
	if user.Username != username {
		return "", ErrOTPUsernameMismatch
	}
	return username, nil
}
