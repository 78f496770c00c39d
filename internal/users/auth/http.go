// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/middleware"
	requestutil "github.com/taibuivan/secretbox/internal/platform/request"
	"github.com/taibuivan/secretbox/internal/platform/respond"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the /auth HTTP endpoints.
//
// # Scope
//
// Transport concerns only: decoding, field validation, status codes and
// envelopes. Every rule about accounts and tokens lives in [Service].
type Handler struct {
	authService *Service
	gate        *Gate
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, gate *Gate) *Handler {
	return &Handler{authService: service, gate: gate}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST  /signup                 : Creates an unconfirmed account.
//   - POST  /signup/gmail           : Google sign-in (201 on first use).
//   - POST  /login                  : Returns a token pair.
//   - PATCH /confirm/email          : Confirms the email with an OTP.
//   - POST  /re-send-confirm/email  : Sends a new confirmation OTP.
//   - POST  /refresh-token          : Rotates a pair (refresh token required).
//   - PATCH /change-password        : Changes the password (access token required).
//   - POST  /forget-password        : Emails a reset OTP.
//   - POST  /verify-forget-password : Checks a reset OTP.
//   - POST  /reset-password         : Resets the password with an OTP.
//   - POST  /logout                 : Ends the session (access token required).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signup)
	router.Post("/signup/gmail", handler.signupWithGmail)

	// Endpoints that accept guessable secrets get a tighter per-IP budget
	router.Group(func(r chi.Router) {
		r.Use(middleware.CredentialLimit(constants.CredentialRateLimit, constants.CredentialRateWindow))
		r.Post("/login", handler.login)
		r.Patch("/confirm/email", handler.confirmEmail)
		r.Post("/re-send-confirm/email", handler.resendConfirmOTP)
		r.Post("/forget-password", handler.forgetPassword)
		r.Post("/verify-forget-password", handler.verifyForgetPassword)
		r.Post("/reset-password", handler.resetPassword)
	})

	router.With(handler.gate.Require(sec.UseRefresh)).Post("/refresh-token", handler.refreshToken)

	router.Group(func(r chi.Router) {
		r.Use(handler.gate.Require(sec.UseAccess))
		r.Patch("/change-password", handler.changePassword)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	UserName        string `json:"userName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
	Gender          string `json:"gender"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type gmailRequest struct {
	IDToken string `json:"idToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type emailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"OTP"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"OTP"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	OldPassword        string  `json:"oldPassword"`
	NewPassword        string  `json:"newPassword"`
	ConfirmNewPassword *string `json:"confirmNewPassword"`
	Flag               string  `json:"flag"`
}

type logoutRequest struct {
	Flag string `json:"flag"`
}

// # Response Payloads

type loginResponse struct {
	ID          string      `json:"_id"`
	Credentials Credentials `json:"credentials"`
}

type idResponse struct {
	ID string `json:"id"`
}

type emailResponse struct {
	Email string `json:"email"`
}

// # Registration

/*
Signup handles the creation of a system account.

POST /auth/signup

Response:
  - 200: {id}: Account created, confirmation OTP sent
  - 400: VALIDATION_ERROR
  - 409: EMAIL_TAKEN
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserName, input.UserName).
		UserName(FieldUserName, input.UserName).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password).
		Equal(FieldConfirmPassword, input.ConfirmPassword, input.Password, "Must match password").
		Required(FieldPhone, input.Phone).
		Phone(FieldPhone, input.Phone)
	if input.Gender != "" {
		validator.OneOf(FieldGender, input.Gender, string(GenderMale), string(GenderFemale))
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Signup(request.Context(), SignupInput{
		UserName: input.UserName,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
		Gender:   Gender(input.Gender),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{
		Message: "Signed up successfully",
		Info:    "We Sent A Confirm OTP To Your Email, Please Confirm It To Login",
		Data:    idResponse{ID: user.ID},
	})
}

/*
SignupWithGmail signs in with a Google ID token.

POST /auth/signup/gmail

Response:
  - 201: Account created and signed in
  - 200: Existing Google account signed in
  - 400: INVALID_GOOGLE_TOKEN / UNVERIFIED_GOOGLE_ACCOUNT
  - 409: PROVIDER_CONFLICT
*/
func (handler *Handler) signupWithGmail(writer http.ResponseWriter, request *http.Request) {
	var input gmailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldIDToken, input.IDToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, created, err := handler.authService.GoogleSignIn(request.Context(), input.IDToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	success := respond.Success{Info: "Logged in successfully", Data: session.Credentials}
	if created {
		success.Status = http.StatusCreated
		success.Info = "Signed up successfully"
	}
	respond.Write(writer, success)
}

/*
ConfirmEmail confirms an account with the emailed OTP.

PATCH /auth/confirm/email

Response:
  - 200: Confirmed
  - 400: OTP_EXPIRED
  - 404: ACCOUNT_NOT_FOUND
  - 409: INVALID_OTP
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	var input emailOTPRequest
	if !decodeEmailOTP(writer, request, &input) {
		return
	}

	if err := handler.authService.ConfirmEmail(request.Context(), input.Email, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Info: "Email confirmed successfully"})
}

/*
ResendConfirmOTP sends a fresh confirmation OTP.

POST /auth/re-send-confirm/email

Response:
  - 200: Sent
  - 404: ACCOUNT_NOT_FOUND
  - 409: OTP_COOL_DOWN / OTP_TOO_MANY_RESENDS
*/
func (handler *Handler) resendConfirmOTP(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if !decodeEmail(writer, request, &input) {
		return
	}

	if err := handler.authService.ResendConfirmOTP(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Info: "OTP sent successfully"})
}

// # Session

/*
Login authenticates with email and password.

POST /auth/login

Response:
  - 200: {_id, credentials}
  - 400: EMAIL_NOT_CONFIRMED / ACCOUNT_FROZEN
  - 404: ACCOUNT_NOT_FOUND
  - 409: INVALID_CREDENTIALS
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{
		Info: "Logged in successfully",
		Data: loginResponse{ID: session.User.ID, Credentials: session.Credentials},
	})
}

/*
RefreshToken rotates the pair of the presented refresh token.

POST /auth/refresh-token

Response:
  - 200: {access_token, refresh_token}
  - 401: Invalid, revoked or invalidated token
*/
func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	credentials, err := handler.authService.Refresh(request.Context(), PrincipalFrom(request.Context()))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, credentials)
}

/*
Logout ends the current session, or all sessions with flag=fromAll.

POST /auth/logout

Response:
  - 200: Logged out from all devices
  - 201: Current token revoked
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input logoutRequest
	if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	flag, ok := ParseLogoutFlag(input.Flag)
	if !ok {
		respond.Error(writer, request, logoutFlagError())
		return
	}

	if err := handler.authService.Logout(request.Context(), PrincipalFrom(request.Context()), flag); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if flag == FlagFromAll {
		respond.Write(writer, respond.Success{Message: "Logged out from all devices successfully"})
		return
	}
	respond.Write(writer, respond.Success{Status: http.StatusCreated, Message: "Logged out successfully"})
}

// # Password

/*
ChangePassword replaces the password of the caller.

PATCH /auth/change-password

Response:
  - 200: Changed
  - 400: VALIDATION_ERROR / WRONG_OLD_PASSWORD
  - 409: PASSWORD_REUSED
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOldPassword, input.OldPassword).
		Password(FieldOldPassword, input.OldPassword).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword).
		NotEqual(FieldNewPassword, input.NewPassword, input.OldPassword, "Must differ from the old password")
	if input.ConfirmNewPassword != nil {
		validator.Equal(FieldConfirmNewPassword, *input.ConfirmNewPassword, input.NewPassword, "Must match newPassword")
	}

	flag, ok := ParseLogoutFlag(input.Flag)
	validator.Custom(FieldFlag, !ok, logoutFlagMessage)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ChangePassword(request.Context(), PrincipalFrom(request.Context()), ChangePasswordInput{
		OldPassword: input.OldPassword,
		NewPassword: input.NewPassword,
		Flag:        flag,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Password changed successfully"})
}

/*
ForgetPassword emails a reset OTP.

POST /auth/forget-password

Response:
  - 200: {email}
  - 404: ACCOUNT_NOT_FOUND
*/
func (handler *Handler) forgetPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if !decodeEmail(writer, request, &input) {
		return
	}

	if err := handler.authService.ForgetPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{
		Message: "OTP Sent To Your Email",
		Data:    emailResponse{Email: input.Email},
	})
}

/*
VerifyForgetPassword checks a reset OTP without consuming it.

POST /auth/verify-forget-password

Response:
  - 200: Verified
  - 400: OTP_EXPIRED
  - 404: ACCOUNT_NOT_FOUND
  - 409: WRONG_OTP
*/
func (handler *Handler) verifyForgetPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailOTPRequest
	if !decodeEmailOTP(writer, request, &input) {
		return
	}

	if err := handler.authService.VerifyForgetPassword(request.Context(), input.Email, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "OTP verified successfully"})
}

/*
ResetPassword sets a new password with a reset OTP.

POST /auth/reset-password

Response:
  - 200: Reset, every session invalidated
  - 400: OTP_EXPIRED / VALIDATION_ERROR
  - 404: ACCOUNT_NOT_FOUND
  - 409: WRONG_OTP
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldOTP, input.OTP).
		OTP(FieldOTP, input.OTP).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		Email:       input.Email,
		Code:        input.OTP,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Password reset successfully"})
}

// # Helpers

const logoutFlagMessage = "Must be one of: fromAll, logout, stayLoggedIn"

func logoutFlagError() error {
	return validate.RequiredError(FieldFlag, logoutFlagMessage)
}

// decodeEmail decodes and validates an {email} body, writing the error response on failure.
func decodeEmail(writer http.ResponseWriter, request *http.Request, input *emailRequest) bool {
	if err := requestutil.DecodeJSON(request, input); err != nil {
		respond.Error(writer, request, err)
		return false
	}

	if err := (&validate.Validator{}).Required(FieldEmail, input.Email).Email(FieldEmail, input.Email).Err(); err != nil {
		respond.Error(writer, request, err)
		return false
	}
	return true
}

// decodeEmailOTP decodes and validates an {email, OTP} body, writing the error response on failure.
func decodeEmailOTP(writer http.ResponseWriter, request *http.Request, input *emailOTPRequest) bool {
	if err := requestutil.DecodeJSON(request, input); err != nil {
		respond.Error(writer, request, err)
		return false
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldOTP, input.OTP).
		OTP(FieldOTP, input.OTP)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return false
	}
	return true
}
