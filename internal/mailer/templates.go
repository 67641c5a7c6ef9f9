package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(
	`<h2>Your TaskWave verification code</h2>
<p>Use the code below to verify your request. It expires in {{.Minutes}} minutes.</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>If you did not request this, you can ignore this email.</p>`))

// OTPMessage renders the verification email for code.
func OTPMessage(to, code string, ttl time.Duration) (Message, error) {
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, struct {
		Code    string
		Minutes int
	}{code, int(ttl / time.Minute)})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render otp email: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Your TaskWave verification code",
		HTML:    body.String(),
	}, nil
}
