package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
)

// Account rules
const (
	MinPasswordLength = 6
)

// Focus session rules
const (
	MinFocusDurationMinutes = 5
)

// OTP rules
const (
	OTPLength = 6
	OTPTTL    = 600 * time.Second
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AI task suggestions
const (
	MaxAIGeneratedTasks = 20
)

// Date layouts accepted for calendar-date fields
const (
	DateLayout = "2006-01-02"
)
