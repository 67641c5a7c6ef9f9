package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskwave-api/internal/constants"
	"github.com/yukikurage/taskwave-api/internal/dto"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
	"github.com/yukikurage/taskwave-api/internal/middleware"
	"github.com/yukikurage/taskwave-api/internal/services"
)

// UserHandler coordinates account and profile HTTP handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Signup registers a new user. It does not issue a token.
// @Summary Register a user
// @Tags User
// @Accept json
// @Produce json
// @Param body body object true "username (email), password, name"
// @Success 201 {object} map[string]string
// @Failure 400 {object} apierrors.APIError
// @Failure 409 {object} apierrors.APIError
// @Router /api/user/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string `json:"username" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required,notblank"`
	}

	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.userService.Signup(c.Request.Context(), services.SignupInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	}); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "You are registered successfully",
	})
}

// Signin verifies credentials and returns a bearer token.
// @Summary Sign in
// @Tags User
// @Accept json
// @Produce json
// @Param body body object true "username (email), password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apierrors.APIError
// @Router /api/user/signin [post]
func (h *UserHandler) Signin(c *gin.Context) {
	type SigninRequest struct {
		Username string `json:"username" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	token, _, err := h.userService.Signin(c.Request.Context(), services.SigninInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You are signed in successfully",
		"token":   token,
	})
}

// GetProfile returns the authenticated user.
// @Summary Get the caller's profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserDTO
// @Failure 401 {object} apierrors.APIError
// @Failure 404 {object} apierrors.APIError
// @Router /api/user/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile applies a partial profile update.
// @Summary Update the caller's profile
// @Description A newPassword needs a verified one-time code first.
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "name, newPassword, focusStreak; all optional"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apierrors.APIError
// @Failure 403 {object} apierrors.APIError
// @Router /api/user/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Name        *string `json:"name"`
		NewPassword *string `json:"newPassword"`
		FocusStreak *int    `json:"focusStreak" binding:"omitempty,min=0"`
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:        req.Name,
		NewPassword: req.NewPassword,
		FocusStreak: req.FocusStreak,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User profile updated",
		"user":    dto.ToUserDTO(*user),
	})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNegativeStreak):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "Email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User profile not found")
	case errors.Is(err, services.ErrPasswordChangeNotAllowed):
		apierrors.Forbidden(c, err.Error())
	default:
		respondInternal(c, err, "Something went wrong")
	}
}
