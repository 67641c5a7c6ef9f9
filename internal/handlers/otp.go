package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
	"github.com/yukikurage/taskwave-api/internal/middleware"
	"github.com/yukikurage/taskwave-api/internal/services"
)

// OTPHandler issues and verifies one-time codes.
type OTPHandler struct {
	otpService *services.OTPService
}

func NewOTPHandler(otpService *services.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// Send emails a fresh code to the caller.
// @Summary Email a one-time code
// @Tags OTP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "username"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apierrors.APIError
// @Failure 403 {object} apierrors.APIError
// @Router /api/otp/send [post]
func (h *OTPHandler) Send(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SendOTPRequest struct {
		Username string `json:"username" binding:"required,email"`
	}

	var req SendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpService.Send(c.Request.Context(), userID, req.Username); err != nil {
		respondOTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// Verify checks a code and unlocks one password change.
// @Summary Verify a one-time code
// @Tags OTP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "username, otp"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apierrors.APIError
// @Failure 403 {object} apierrors.APIError
// @Router /api/otp/verify [post]
func (h *OTPHandler) Verify(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type VerifyOTPRequest struct {
		Username string `json:"username" binding:"required,email"`
		OTP      string `json:"otp" binding:"required,notblank"`
	}

	var req VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), userID, req.Username, req.OTP); err != nil {
		respondOTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

func respondOTPError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOTPUsernameMismatch):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrOTPExpired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeOTPExpired, "OTP expired or not found")
	case errors.Is(err, services.ErrInvalidOTP):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidOTP, "Invalid OTP")
	case errors.Is(err, services.ErrEmailDelivery):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeEmailDeliveryFailed, "Unable to send email")
	default:
		respondInternal(c, err, "Failed to process OTP")
	}
}
