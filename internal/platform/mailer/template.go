// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Email subjects.
const (
	SubjectConfirmEmail  = "Confirm Email"
	SubjectResetPassword = "Reset Password Code"
)

const codeBox = `<div style="margin: 20px 0; padding: 15px 25px; background-color: #f9f9f9; border: 2px dashed #ccc; border-radius: 10px; display: inline-block; font-size: 24px; letter-spacing: 3px; font-weight: bold;">{{.Code}}</div>`

var (
	confirmEmailTemplate = template.Must(template.New("confirm").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #ffffff; color: #333;">
  <h2 style="color: #444;">Email Confirmation</h2>
  <p>Thank you for registering with SecretBox.</p>
  <p>Please use the following code to confirm your email address:</p>
  ` + codeBox + `
  <p>This code is valid for {{.Validity}}. If you didn't create an account, you can safely ignore this email.</p>
  <p style="margin-top: 30px;">Thanks,<br><strong>SecretBox</strong></p>
</div>`))

	resetPasswordTemplate = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #ffffff; color: #333;">
  <h2 style="color: #444;">Reset Your Password</h2>
  <p>You requested to reset your password for <strong>SecretBox</strong>.</p>
  <p>Please use the following code to complete the password reset process:</p>
  ` + codeBox + `
  <p>This code is valid for <strong>{{.Validity}}</strong>. If you didn't request this change, you can safely ignore this email.</p>
  <p style="margin-top: 30px;">Thanks,<br><strong>SecretBox</strong></p>
</div>`))
)

type codeView struct {
	Code     string
	Validity string
}

// ConfirmEmail renders the sign-up confirmation message carrying code.
func ConfirmEmail(to, code string, validity time.Duration) (Message, error) {
	return render(confirmEmailTemplate, to, SubjectConfirmEmail, code, validity)
}

// ResetPassword renders the forgot-password message carrying code.
func ResetPassword(to, code string, validity time.Duration) (Message, error) {
	return render(resetPasswordTemplate, to, SubjectResetPassword, code, validity)
}

func render(tmpl *template.Template, to, subject, code string, validity time.Duration) (Message, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, codeView{Code: code, Validity: humanMinutes(validity)}); err != nil {
		return Message{}, fmt.Errorf("mailer: failed to render %s: %w", tmpl.Name(), err)
	}
	return Message{To: to, Subject: subject, HTML: buffer.String()}, nil
}

func humanMinutes(validity time.Duration) string {
	minutes := int(validity.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
