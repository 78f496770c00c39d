// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/ctxutil"
	"github.com/taibuivan/secretbox/internal/platform/mailer"
	"github.com/taibuivan/secretbox/internal/platform/metrics"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/pkg/pointer"
	"github.com/taibuivan/secretbox/pkg/uuid"
)

// # Contracts & Types

// TokenCodec signs and verifies tiered tokens. Implemented by [sec.TokenService].
type TokenCodec interface {
	Issue(subjectID, jti string, tier sec.Tier, use sec.TokenUse, timeToLive time.Duration) (string, error)
	Verify(token string, tier sec.Tier, use sec.TokenUse) (*sec.TokenClaims, error)
}

// Credentials is an access/refresh pair sharing one jti.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is the outcome of a successful sign-in.
type Session struct {
	User        *User
	Credentials Credentials
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Users       UserRepository
	Revocations RevocationRepository
	Tokens      TokenCodec
	Hasher      *sec.Hasher
	Cipher      *sec.Cipher
	Mailer      mailer.Dispatcher
	Google      GoogleVerifier
	Metrics     *metrics.Collectors
}

// Option customizes a [Service].
type Option func(*Service)

// WithClock replaces the wall clock. OTP expiry, revocation retention and
// credential invalidation all read it.
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		service.now = now
	}
}

// Service implements every credential use case.
//
// # Review Process
//
// This service is critical for security. Changes to hashing, OTP throttling,
// token issuance or revocation must be reviewed by the security team.
type Service struct {
	users       UserRepository
	revocations RevocationRepository
	tokens      TokenCodec
	hasher      *sec.Hasher
	cipher      *sec.Cipher
	mailer      mailer.Dispatcher
	google      GoogleVerifier
	metrics     *metrics.Collectors
	otp         *OTPEngine
	now         func() time.Time
}

// NewService constructs a new [Service].
//
// A nil Mailer falls back to logging messages, and nil Metrics to an
// unregistered collector set.
func NewService(deps Dependencies, opts ...Option) *Service {
	service := &Service{
		users:       deps.Users,
		revocations: deps.Revocations,
		tokens:      deps.Tokens,
		hasher:      deps.Hasher,
		cipher:      deps.Cipher,
		mailer:      deps.Mailer,
		google:      deps.Google,
		metrics:     deps.Metrics,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	if service.mailer == nil {
		service.mailer = mailer.NewLogDispatcher(slog.Default())
	}
	if service.metrics == nil {
		service.metrics = metrics.NewUnregistered(constants.AppName)
	}

	service.otp = NewOTPEngine(service.hasher, func() time.Time { return service.now() })
	return service
}

// # Registration Flow

// SignupInput holds the data required to enroll a new member.
type SignupInput struct {
	UserName string
	Email    string
	Password string
	Phone    string
	Gender   Gender
}

/*
Signup creates an unconfirmed account and emails a confirmation code.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *User: Created entity
  - error: ErrEmailTaken or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*User, error) {
	email := CanonicalEmail(input.Email)

	// Verify email uniqueness. The unique index closes the race with a concurrent signup.
	if _, err := service.users.FindByEmail(context, email); err == nil {
		service.metrics.AuthRegistrationsTotal.WithLabelValues(string(ProviderSystem), metrics.ResultFailure).Inc()
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("auth_service_signup_lookup_failed: %w", err)
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	encryptedPhone, err := service.cipher.Encrypt(input.Phone)
	if err != nil {
		return nil, fmt.Errorf("auth_service_encrypt_phone_failed: %w", err)
	}

	firstName, lastName := SplitUserName(input.UserName)
	user := &User{
		ID:           uuid.New(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		OldPasswords: []string{},
		Phone:        encryptedPhone,
		Gender:       input.Gender,
		Role:         sec.RoleUser,
		Provider:     ProviderSystem,
		CreatedAt:    service.now(),
	}
	if user.Gender == "" {
		user.Gender = GenderMale
	}

	code, err := service.otp.Issue(&user.ConfirmOTP, ConfirmEmailPolicy)
	if err != nil {
		return nil, err
	}

	if err := service.users.Create(context, user); err != nil {
		service.metrics.AuthRegistrationsTotal.WithLabelValues(string(ProviderSystem), metrics.ResultFailure).Inc()
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth_service_signup_failed: %w", err)
	}

	service.metrics.AuthRegistrationsTotal.WithLabelValues(string(ProviderSystem), metrics.ResultSuccess).Inc()
	service.metrics.OTPIssuedTotal.WithLabelValues("confirm_email", metrics.ResultSuccess).Inc()
	ctxutil.GetLogger(context).Info("auth_signup_succeeded", slog.String("user_id", user.ID))

	service.sendConfirmEmail(context, user.Email, code)
	return user, nil
}

/*
ConfirmEmail marks an account confirmed when code matches its outstanding OTP.

Returns:
  - error: ErrAccountNotFound, ErrOTPExpired or ErrInvalidOTP
*/
func (service *Service) ConfirmEmail(context context.Context, email, code string) error {
	user, err := service.pendingConfirmation(context, email)
	if err != nil {
		return err
	}

	if err := service.otp.Verify(user.ConfirmOTP, code); err != nil {
		return err
	}

	if err := service.users.ConfirmEmail(context, user.ID, service.now()); err != nil {
		return fmt.Errorf("auth_service_confirm_email_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("auth_email_confirmed", slog.String("user_id", user.ID))
	return nil
}

/*
ResendConfirmOTP issues a fresh confirmation code subject to resend throttling.

Description: Hitting the resend ceiling persists the block before failing, so
the following attempts see [ErrCoolDown] until it elapses.

Returns:
  - error: ErrAccountNotFound, ErrCoolDown or ErrTooManyResends
*/
func (service *Service) ResendConfirmOTP(context context.Context, email string) error {
	user, err := service.pendingConfirmation(context, email)
	if err != nil {
		return err
	}

	code, err := service.otp.Resend(&user.ConfirmOTP, ConfirmEmailPolicy)
	switch {
	case errors.Is(err, ErrTooManyResends):
		service.metrics.OTPIssuedTotal.WithLabelValues("confirm_email", metrics.ResultFailure).Inc()
		if saveErr := service.users.SaveConfirmOTP(context, user.ID, user.ConfirmOTP); saveErr != nil {
			return fmt.Errorf("auth_service_save_otp_block_failed: %w", saveErr)
		}
		return err
	case err != nil:
		service.metrics.OTPIssuedTotal.WithLabelValues("confirm_email", metrics.ResultFailure).Inc()
		return err
	}

	if err := service.users.SaveConfirmOTP(context, user.ID, user.ConfirmOTP); err != nil {
		return fmt.Errorf("auth_service_save_otp_failed: %w", err)
	}

	service.metrics.OTPIssuedTotal.WithLabelValues("confirm_email", metrics.ResultSuccess).Inc()
	service.sendConfirmEmail(context, user.Email, code)
	return nil
}

// pendingConfirmation loads a system account that still awaits confirmation.
func (service *Service) pendingConfirmation(context context.Context, email string) (*User, error) {
	user, err := service.users.FindByEmail(context, CanonicalEmail(email))
	if err != nil {
		return nil, err
	}

	if user.Provider != ProviderSystem || user.IsConfirmed() || !user.ConfirmOTP.Active() {
		return nil, ErrAccountNotFound
	}

	return user, nil
}

// # Sign-In Flow

/*
GoogleSignIn logs in a Google account, creating it on first use.

Parameters:
  - context: context.Context
  - idToken: string (Google ID token)

Returns:
  - *Session: Account and fresh credentials
  - bool: True when the account was created by this call
  - error: ErrInvalidGoogleToken, ErrUnverifiedGoogleAccount, ErrProviderConflict or ErrAccountFrozen
*/
func (service *Service) GoogleSignIn(context context.Context, idToken string) (*Session, bool, error) {
	identity, err := service.google.Verify(context, idToken)
	if err != nil {
		service.metrics.AuthLoginsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultFailure).Inc()
		if errors.Is(err, ErrInvalidGoogleToken) {
			return nil, false, err
		}
		return nil, false, ErrInvalidGoogleToken.WithCause(err)
	}

	if !identity.EmailVerified {
		return nil, false, ErrUnverifiedGoogleAccount
	}

	email := CanonicalEmail(identity.Email)
	user, err := service.users.FindByEmail(context, email)

	switch {
	case err == nil:
		if user.Provider != ProviderGoogle {
			service.metrics.AuthLoginsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultFailure).Inc()
			return nil, false, ErrProviderConflict
		}
		if user.IsFrozen() {
			service.metrics.AuthLoginsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultFailure).Inc()
			return nil, false, ErrAccountFrozen
		}

		credentials, err := service.issueCredentials(user, "google_login")
		if err != nil {
			return nil, false, err
		}

		service.metrics.AuthLoginsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultSuccess).Inc()
		return &Session{User: user, Credentials: *credentials}, false, nil

	case !errors.Is(err, ErrAccountNotFound):
		return nil, false, fmt.Errorf("auth_service_google_lookup_failed: %w", err)
	}

	// First sign-in: Google already proved control of the address.
	firstName, lastName := SplitUserName(identity.Name)
	user = &User{
		ID:           uuid.New(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		OldPasswords: []string{},
		Gender:       GenderMale,
		Role:         sec.RoleUser,
		Provider:     ProviderGoogle,
		Picture:      identity.Picture,
		ConfirmedAt:  pointer.To(service.now()),
		CreatedAt:    service.now(),
	}

	if err := service.users.Create(context, user); err != nil {
		service.metrics.AuthRegistrationsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultFailure).Inc()
		if errors.Is(err, ErrEmailTaken) {
			return nil, false, ErrProviderConflict
		}
		return nil, false, fmt.Errorf("auth_service_google_signup_failed: %w", err)
	}

	credentials, err := service.issueCredentials(user, "google_signup")
	if err != nil {
		return nil, false, err
	}

	service.metrics.AuthRegistrationsTotal.WithLabelValues(string(ProviderGoogle), metrics.ResultSuccess).Inc()
	ctxutil.GetLogger(context).Info("auth_google_signup_succeeded", slog.String("user_id", user.ID))

	return &Session{User: user, Credentials: *credentials}, true, nil
}

/*
Login authenticates a system account by email and password.

Returns:
  - *Session: Account and fresh credentials
  - error: ErrAccountNotFound, ErrEmailNotConfirmed, ErrAccountFrozen or ErrInvalidCredentials
*/
func (service *Service) Login(context context.Context, email, password string) (*Session, error) {
	session, err := service.login(context, email, password)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	service.metrics.AuthLoginsTotal.WithLabelValues(string(ProviderSystem), result).Inc()

	return session, err
}

func (service *Service) login(context context.Context, email, password string) (*Session, error) {
	user, err := service.users.FindByEmail(context, CanonicalEmail(email))
	if err != nil {
		return nil, err
	}

	if user.Provider != ProviderSystem {
		return nil, ErrAccountNotFound
	}

	if !user.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	if user.IsFrozen() {
		return nil, ErrAccountFrozen
	}

	if !service.hasher.Verify(password, user.PasswordHash) {
		ctxutil.GetLogger(context).Warn("auth_login_failed", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	credentials, err := service.issueCredentials(user, "login")
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).Info("auth_login_succeeded", slog.String("user_id", user.ID))
	return &Session{User: user, Credentials: *credentials}, nil
}

// # Session Management

/*
Refresh rotates the pair the presented refresh token belongs to.

Description: The presented jti is revoked first. Losing that race to a
concurrent refresh of the same token fails with [ErrTokenRevoked].

Parameters:
  - context: context.Context
  - principal: *Principal (Authenticated with a refresh token)

Returns:
  - *Credentials: New pair
  - error: ErrTokenRevoked, ErrAccountFrozen or storage errors
*/
func (service *Service) Refresh(context context.Context, principal *Principal) (*Credentials, error) {
	if principal.User.IsFrozen() {
		return nil, ErrAccountFrozen
	}

	if err := service.revoke(context, principal, "refresh"); err != nil {
		if errors.Is(err, ErrDuplicateRevocation) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	return service.issueCredentials(principal.User, "refresh")
}

/*
Logout ends the current session, or every session when flag is [FlagFromAll].

Description: Any flag other than fromAll revokes the presented jti. Revoking
an already revoked jti is not an error.

Returns:
  - error: Storage errors
*/
func (service *Service) Logout(context context.Context, principal *Principal, flag LogoutFlag) error {
	if flag == FlagFromAll {
		if err := service.users.InvalidateCredentials(context, principal.User.ID, service.invalidationTime()); err != nil {
			return fmt.Errorf("auth_service_logout_all_failed: %w", err)
		}
		ctxutil.GetLogger(context).Info("auth_logout_all_succeeded", slog.String("user_id", principal.User.ID))
		return nil
	}

	if err := service.revoke(context, principal, "logout"); err != nil && !errors.Is(err, ErrDuplicateRevocation) {
		return err
	}
	return nil
}

// # Password Management

// ChangePasswordInput holds the data of an authenticated password change.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
	Flag        LogoutFlag
}

/*
ChangePassword replaces the password of the authenticated account.

Description: The current hash is appended to the history. With [FlagFromAll]
every outstanding token is invalidated; with [FlagLogout] only the presented one.

Returns:
  - error: ErrWrongOldPassword, ErrPasswordReused or storage errors
*/
func (service *Service) ChangePassword(context context.Context, principal *Principal, input ChangePasswordInput) error {
	user := principal.User

	if user.PasswordHash == "" || !service.hasher.Verify(input.OldPassword, user.PasswordHash) {
		return ErrWrongOldPassword
	}

	if service.previouslyUsed(user, input.NewPassword) {
		return ErrPasswordReused
	}

	newHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	change := PasswordChange{NewHash: newHash, PreviousHash: user.PasswordHash}
	if input.Flag == FlagFromAll {
		change.ChangeCredentialsAt = pointer.To(service.invalidationTime())
	}

	if err := service.users.ReplacePassword(context, user.ID, change); err != nil {
		return fmt.Errorf("auth_service_change_password_failed: %w", err)
	}

	// The presented token is revoked only once the new password is stored.
	if input.Flag == FlagLogout {
		if err := service.revoke(context, principal, "change_password"); err != nil && !errors.Is(err, ErrDuplicateRevocation) {
			return err
		}
	}

	ctxutil.GetLogger(context).Info("auth_password_changed",
		slog.String("user_id", user.ID),
		slog.String("flag", string(input.Flag)),
	)
	return nil
}

// invalidationTime is the changeCredentialsAt instant, truncated to the
// second precision of token issued-at claims.
func (service *Service) invalidationTime() time.Time {
	return service.now().Truncate(time.Second)
}

// previouslyUsed reports whether plain matches the current or any historical hash.
func (service *Service) previouslyUsed(user *User, plain string) bool {
	if service.hasher.Verify(plain, user.PasswordHash) {
		return true
	}
	for _, hash := range user.OldPasswords {
		if service.hasher.Verify(plain, hash) {
			return true
		}
	}
	return false
}

/*
ForgetPassword emails a reset code to a confirmed, active system account.

Returns:
  - error: ErrAccountNotFound or storage errors
*/
func (service *Service) ForgetPassword(context context.Context, email string) error {
	user, err := service.resettable(context, email)
	if err != nil {
		return err
	}

	code, err := service.otp.Issue(&user.ForgotOTP, ForgotPasswordPolicy)
	if err != nil {
		return err
	}

	if err := service.users.SaveForgotOTP(context, user.ID, user.ForgotOTP); err != nil {
		return fmt.Errorf("auth_service_save_forgot_otp_failed: %w", err)
	}

	service.metrics.OTPIssuedTotal.WithLabelValues("forgot_password", metrics.ResultSuccess).Inc()

	message, err := mailer.ResetPassword(user.Email, code, ForgotPasswordPolicy.TTL)
	if err != nil {
		ctxutil.GetLogger(context).Error("auth_reset_mail_render_failed", slog.Any("error", err))
		return nil
	}
	service.dispatch(context, message)
	return nil
}

/*
VerifyForgetPassword checks a reset code without consuming it.

Returns:
  - error: ErrAccountNotFound, ErrOTPExpired or ErrWrongOTP
*/
func (service *Service) VerifyForgetPassword(context context.Context, email, code string) error {
	user, err := service.pendingReset(context, email)
	if err != nil {
		return err
	}
	return service.verifyResetCode(user, code)
}

// ResetPasswordInput holds the data of an OTP-gated password reset.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

/*
ResetPassword consumes a reset code and sets a new password.

Description: Every outstanding token of the account is invalidated.

Returns:
  - error: ErrAccountNotFound, ErrOTPExpired, ErrWrongOTP or storage errors
*/
func (service *Service) ResetPassword(context context.Context, input ResetPasswordInput) error {
	user, err := service.pendingReset(context, input.Email)
	if err != nil {
		return err
	}

	if err := service.verifyResetCode(user, input.Code); err != nil {
		return err
	}

	newHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	change := PasswordChange{
		NewHash:             newHash,
		PreviousHash:        user.PasswordHash,
		ChangeCredentialsAt: pointer.To(service.invalidationTime()),
		ClearForgotOTP:      true,
	}

	if err := service.users.ReplacePassword(context, user.ID, change); err != nil {
		return fmt.Errorf("auth_service_reset_password_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("auth_password_reset", slog.String("user_id", user.ID))
	return nil
}

// resettable loads a confirmed, active system account.
func (service *Service) resettable(context context.Context, email string) (*User, error) {
	user, err := service.users.FindByEmail(context, CanonicalEmail(email))
	if err != nil {
		return nil, err
	}

	if user.Provider != ProviderSystem || !user.IsConfirmed() || user.IsFrozen() {
		return nil, ErrAccountNotFound
	}

	return user, nil
}

// pendingReset loads a resettable account with an outstanding reset code.
func (service *Service) pendingReset(context context.Context, email string) (*User, error) {
	user, err := service.resettable(context, email)
	if err != nil {
		return nil, err
	}

	if !user.ForgotOTP.Active() {
		return nil, ErrAccountNotFound
	}

	return user, nil
}

func (service *Service) verifyResetCode(user *User, code string) error {
	err := service.otp.Verify(user.ForgotOTP, code)
	if errors.Is(err, ErrInvalidOTP) {
		return ErrWrongOTP
	}
	return err
}

// # Internal Helpers

/*
issueCredentials signs a fresh access/refresh pair sharing one jti.

Description: The signing tier follows the role of the subject.
*/
func (service *Service) issueCredentials(user *User, flow string) (*Credentials, error) {
	tier := user.Role.Tier()
	jti := uuid.Random()

	accessToken, err := service.tokens.Issue(user.ID, jti, tier, sec.UseAccess, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_access_failed: %w", err)
	}

	refreshToken, err := service.tokens.Issue(user.ID, jti, tier, sec.UseRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_refresh_failed: %w", err)
	}

	service.metrics.TokensIssuedTotal.WithLabelValues(flow, string(tier)).Inc()
	return &Credentials{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// revoke records the jti of the presented token until every token carrying it has expired.
func (service *Service) revoke(context context.Context, principal *Principal, reason string) error {
	claims := principal.Claims
	if claims == nil || claims.ID == "" {
		return ErrMalformedToken
	}

	issuedAt := service.now()
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	record := RevokedToken{
		JTI:       claims.ID,
		UserID:    principal.User.ID,
		ExpiresIn: issuedAt.Add(RevocationRetention).Unix(),
	}

	if err := service.revocations.Revoke(context, record); err != nil {
		if errors.Is(err, ErrDuplicateRevocation) {
			return err
		}
		return fmt.Errorf("auth_service_revoke_failed: %w", err)
	}

	service.metrics.TokensRevokedTotal.WithLabelValues(reason).Inc()
	return nil
}

func (service *Service) sendConfirmEmail(context context.Context, to, code string) {
	message, err := mailer.ConfirmEmail(to, code, ConfirmEmailPolicy.TTL)
	if err != nil {
		ctxutil.GetLogger(context).Error("auth_confirm_mail_render_failed", slog.Any("error", err))
		return
	}
	service.dispatch(context, message)
}

// dispatch hands message to the mailer. Failures are logged; the caller's
// request still succeeds and the user can ask for a resend.
func (service *Service) dispatch(parent context.Context, message mailer.Message) {
	sendContext, cancel := context.WithTimeout(context.WithoutCancel(parent), constants.MailDispatchTimeout)
	defer cancel()

	if err := service.mailer.Send(sendContext, message); err != nil {
		ctxutil.GetLogger(parent).Error("auth_mail_dispatch_failed",
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
	}
}
