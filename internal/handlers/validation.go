package handlers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the custom binding rules used by request structs.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
			return models.TaskPriority(strings.ToLower(fl.Field().String())).Valid()
		}); err != nil {
			registerErr = fmt.Errorf("failed to register taskpriority validator: %w", err)
			return
		}
		if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		}); err != nil {
			registerErr = fmt.Errorf("failed to register notblank validator: %w", err)
		}
	})
	return registerErr
}

// FieldError describes one failed binding rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// bindJSON binds the request body and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			apierrors.BadRequestWithDetails(c, "Invalid inputs", details)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// respondInternal logs err and writes a generic 500.
func respondInternal(c *gin.Context, err error, message string) {
	logging.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg(message)
	_ = c.Error(err)
	apierrors.InternalError(c, message)
}
