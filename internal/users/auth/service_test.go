// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

/*
TestSignupConfirmLogin walks the happy path: a wrong code is rejected, the
right one confirms the account, and login then returns a usable pair.
*/
func TestSignupConfirmLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, code := f.signup(t, "a@b.com")

	_, err := f.service.Login(ctx, "a@b.com", testPassword)
	assert.ErrorIs(t, err, auth.ErrEmailNotConfirmed)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.service.ConfirmEmail(ctx, "a@b.com", wrong), auth.ErrInvalidOTP)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.service.ConfirmEmail(ctx, "a@b.com", code))

	stored := f.users.get(t, userID)
	assert.True(t, stored.IsConfirmed())
	assert.False(t, stored.ConfirmOTP.Active())

	session, err := f.service.Login(ctx, "A@B.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.ID)
	assert.NotEmpty(t, session.Credentials.AccessToken)
	assert.NotEmpty(t, session.Credentials.RefreshToken)

	principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
	assert.Equal(t, userID, principal.User.ID)
}

/*
TestSignup_StoresSecretsProtected checks the password is hashed and the phone encrypted.
*/
func TestSignup_StoresSecretsProtected(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.signup(t, "a@b.com")

	stored := f.users.get(t, userID)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.True(t, sec.NewHasher(4).Verify(testPassword, stored.PasswordHash))
	assert.NotEqual(t, testPhone, stored.Phone)
	assert.Equal(t, "Jane", stored.FirstName)
	assert.Equal(t, "Doe", stored.LastName)
	assert.Equal(t, sec.RoleUser, stored.Role)
	assert.Equal(t, auth.ProviderSystem, stored.Provider)
	assert.Equal(t, 0, stored.ConfirmOTP.Count)
}

/*
TestSignup_EmailTaken rejects a second account for the same address, case-insensitively.
*/
func TestSignup_EmailTaken(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "a@b.com")

	_, err := f.service.Signup(context.Background(), auth.SignupInput{
		UserName: "John Doe",
		Email:    "A@B.COM",
		Password: testPassword,
		Phone:    testPhone,
	})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

/*
TestConfirmEmail_Failures covers expiry and unknown or already confirmed accounts.
*/
func TestConfirmEmail_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		_, code := f.signup(t, "a@b.com")
		f.clock.Advance(confirmTTLPlus(time.Second))
		assert.ErrorIs(t, f.service.ConfirmEmail(ctx, "a@b.com", code), auth.ErrOTPExpired)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.service.ConfirmEmail(ctx, "nobody@b.com", "123456"), auth.ErrAccountNotFound)
	})

	t.Run("already_confirmed", func(t *testing.T) {
		f := newFixture(t)
		_, code := f.signup(t, "a@b.com")
		require.NoError(t, f.service.ConfirmEmail(ctx, "a@b.com", code))
		assert.ErrorIs(t, f.service.ConfirmEmail(ctx, "a@b.com", code), auth.ErrAccountNotFound)
	})
}

// confirmTTLPlus returns the confirmation OTP lifetime plus extra.
func confirmTTLPlus(extra time.Duration) time.Duration {
	return auth.ConfirmEmailPolicy.TTL + extra
}

/*
TestResendConfirmOTP_Throttling checks five resends succeed, the sixth blocks,
the block rejects further attempts, and once it elapses resending works again.
*/
func TestResendConfirmOTP_Throttling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, firstCode := f.signup(t, "a@b.com")

	for i := 0; i < auth.ConfirmEmailPolicy.MaxResends; i++ {
		require.NoError(t, f.service.ResendConfirmOTP(ctx, "a@b.com"), "resend %d", i+1)
	}
	assert.Equal(t, 1+auth.ConfirmEmailPolicy.MaxResends, f.mail.count())

	assert.ErrorIs(t, f.service.ResendConfirmOTP(ctx, "a@b.com"), auth.ErrTooManyResends)
	stored := f.users.get(t, userID)
	require.NotNil(t, stored.ConfirmOTP.BlockedUntil)
	assert.Equal(t, f.clock.Now().Add(auth.ConfirmEmailPolicy.BlockFor), *stored.ConfirmOTP.BlockedUntil)

	f.clock.Advance(time.Minute)
	assert.ErrorIs(t, f.service.ResendConfirmOTP(ctx, "a@b.com"), auth.ErrCoolDown)

	f.clock.Advance(auth.ConfirmEmailPolicy.BlockFor)
	require.NoError(t, f.service.ResendConfirmOTP(ctx, "a@b.com"))

	stored = f.users.get(t, userID)
	assert.Nil(t, stored.ConfirmOTP.BlockedUntil)
	assert.Equal(t, 1, stored.ConfirmOTP.Count)

	// Only the latest code is accepted
	latest := f.mail.lastCode(t)
	if latest != firstCode {
		assert.ErrorIs(t, f.service.ConfirmEmail(ctx, "a@b.com", firstCode), auth.ErrInvalidOTP)
	}
	assert.NoError(t, f.service.ConfirmEmail(ctx, "a@b.com", latest))
}

/*
TestLogin_Failures covers every rejection branch of login.
*/
func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown_account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Login(ctx, "nobody@b.com", testPassword)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("wrong_password", func(t *testing.T) {
		f := newFixture(t)
		f.confirmedSession(t, "a@b.com")
		_, err := f.service.Login(ctx, "a@b.com", otherPassword)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("frozen", func(t *testing.T) {
		f := newFixture(t)
		session := f.confirmedSession(t, "a@b.com")
		f.users.mutate(t, session.User.ID, func(user *auth.User) {
			at := f.clock.Now()
			user.DeletedAt = &at
		})
		_, err := f.service.Login(ctx, "a@b.com", testPassword)
		assert.ErrorIs(t, err, auth.ErrAccountFrozen)
	})

	t.Run("google_account", func(t *testing.T) {
		f := newFixture(t)
		f.google.identities["tok"] = auth.GoogleIdentity{Email: "g@b.com", EmailVerified: true, Name: "Gee Bee"}
		_, _, err := f.service.GoogleSignIn(ctx, "tok")
		require.NoError(t, err)

		_, err = f.service.Login(ctx, "g@b.com", testPassword)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})
}

/*
TestLogout_RevokesPair checks both tokens of the pair stop working after logout.
*/
func TestLogout_RevokesPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")

	principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
	require.NoError(t, f.service.Logout(ctx, principal, auth.FlagLogout))

	_, err := f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.RefreshToken, sec.UseRefresh)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// A second logout with the same principal is not an error
	assert.NoError(t, f.service.Logout(ctx, principal, auth.FlagStayLoggedIn))
	assert.Len(t, f.revocations.jtis(), 1)
}

/*
TestLogout_RecordRetention checks the revocation outlives the refresh token.
*/
func TestLogout_RecordRetention(t *testing.T) {
	f := newFixture(t)
	session := f.confirmedSession(t, "a@b.com")
	issuedAt := f.clock.Now()

	principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
	require.NoError(t, f.service.Logout(context.Background(), principal, auth.FlagLogout))

	record, err := f.revocations.Find(context.Background(), principal.Claims.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, session.User.ID, record.UserID)
	assert.Equal(t, issuedAt.Add(auth.RevocationRetention).Unix(), record.ExpiresIn)
	assert.GreaterOrEqual(t, record.ExpiresIn, issuedAt.Add(auth.RefreshTokenTTL).Unix())
}

/*
TestLogout_FromAll invalidates every token issued before the call.
*/
func TestLogout_FromAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")

	f.clock.Advance(time.Second)
	principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
	require.NoError(t, f.service.Logout(ctx, principal, auth.FlagFromAll))
	assert.Empty(t, f.revocations.jtis())

	_, err := f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)

	// A login after the invalidation instant is unaffected
	f.clock.Advance(time.Second)
	fresh, err := f.service.Login(ctx, "a@b.com", testPassword)
	require.NoError(t, err)
	f.principal(t, sec.TierBearer, fresh.Credentials.AccessToken, sec.UseAccess)
}

/*
TestRefresh_Rotation issues a new pair and retires the presented one.
*/
func TestRefresh_Rotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")

	principal := f.principal(t, sec.TierBearer, session.Credentials.RefreshToken, sec.UseRefresh)
	fresh, err := f.service.Refresh(ctx, principal)
	require.NoError(t, err)
	assert.NotEqual(t, session.Credentials.RefreshToken, fresh.RefreshToken)

	_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.RefreshToken, sec.UseRefresh)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// Racing a second rotation of the same token loses
	_, err = f.service.Refresh(ctx, principal)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	next := f.principal(t, sec.TierBearer, fresh.RefreshToken, sec.UseRefresh)
	assert.NotEqual(t, principal.Claims.ID, next.Claims.ID)
}

/*
TestRefresh_FrozenAccount refuses to extend a frozen account's session.
*/
func TestRefresh_FrozenAccount(t *testing.T) {
	f := newFixture(t)
	session := f.confirmedSession(t, "a@b.com")
	f.users.mutate(t, session.User.ID, func(user *auth.User) {
		at := f.clock.Now()
		user.DeletedAt = &at
	})

	principal := f.principal(t, sec.TierBearer, session.Credentials.RefreshToken, sec.UseRefresh)
	_, err := f.service.Refresh(context.Background(), principal)
	assert.ErrorIs(t, err, auth.ErrAccountFrozen)
}

/*
TestChangePassword covers history, reuse and each logout flag.
*/
func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong_old_password", func(t *testing.T) {
		f := newFixture(t)
		session := f.confirmedSession(t, "a@b.com")
		principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)

		err := f.service.ChangePassword(ctx, principal, auth.ChangePasswordInput{OldPassword: otherPassword, NewPassword: "Third%789"})
		assert.ErrorIs(t, err, auth.ErrWrongOldPassword)
	})

	t.Run("history_and_reuse", func(t *testing.T) {
		f := newFixture(t)
		session := f.confirmedSession(t, "a@b.com")
		before := f.users.get(t, session.User.ID)

		principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
		require.NoError(t, f.service.ChangePassword(ctx, principal, auth.ChangePasswordInput{
			OldPassword: testPassword, NewPassword: otherPassword, Flag: auth.FlagStayLoggedIn,
		}))

		after := f.users.get(t, session.User.ID)
		assert.Equal(t, []string{before.PasswordHash}, after.OldPasswords)

		// The token survives stayLoggedIn; going back to the first password is refused
		principal = f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
		err := f.service.ChangePassword(ctx, principal, auth.ChangePasswordInput{OldPassword: otherPassword, NewPassword: testPassword})
		assert.ErrorIs(t, err, auth.ErrPasswordReused)

		_, err = f.service.Login(ctx, "a@b.com", otherPassword)
		assert.NoError(t, err)
	})

	t.Run("from_all", func(t *testing.T) {
		f := newFixture(t)
		session := f.confirmedSession(t, "a@b.com")

		f.clock.Advance(time.Second)
		principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
		require.NoError(t, f.service.ChangePassword(ctx, principal, auth.ChangePasswordInput{
			OldPassword: testPassword, NewPassword: otherPassword, Flag: auth.FlagFromAll,
		}))

		_, err := f.gate.Authenticate(ctx, "Bearer "+session.Credentials.RefreshToken, sec.UseRefresh)
		assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)
		assert.Empty(t, f.revocations.jtis())
	})

	t.Run("logout", func(t *testing.T) {
		f := newFixture(t)
		session := f.confirmedSession(t, "a@b.com")

		principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
		require.NoError(t, f.service.ChangePassword(ctx, principal, auth.ChangePasswordInput{
			OldPassword: testPassword, NewPassword: otherPassword, Flag: auth.FlagLogout,
		}))

		_, err := f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
		assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	})
}

/*
TestForgotPasswordFlow checks verify is repeatable, reset consumes the code
and invalidates outstanding tokens.
*/
func TestForgotPasswordFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")

	require.NoError(t, f.service.ForgetPassword(ctx, "a@b.com"))
	code := f.mail.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.service.VerifyForgetPassword(ctx, "a@b.com", wrong), auth.ErrWrongOTP)
	assert.NoError(t, f.service.VerifyForgetPassword(ctx, "a@b.com", code))
	assert.NoError(t, f.service.VerifyForgetPassword(ctx, "a@b.com", code))

	f.clock.Advance(time.Second)
	require.NoError(t, f.service.ResetPassword(ctx, auth.ResetPasswordInput{Email: "a@b.com", Code: code, NewPassword: otherPassword}))

	// Consumed
	err := f.service.ResetPassword(ctx, auth.ResetPasswordInput{Email: "a@b.com", Code: code, NewPassword: "Third%789"})
	assert.ErrorIs(t, err, auth.ErrAccountNotFound)

	_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)

	f.clock.Advance(time.Second)
	_, err = f.service.Login(ctx, "a@b.com", otherPassword)
	assert.NoError(t, err)

	stored := f.users.get(t, session.User.ID)
	assert.Len(t, stored.OldPasswords, 1)
}

/*
TestForgotPassword_Failures covers ineligible accounts and code expiry.
*/
func TestForgotPassword_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfirmed", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@b.com")
		assert.ErrorIs(t, f.service.ForgetPassword(ctx, "a@b.com"), auth.ErrAccountNotFound)
	})

	t.Run("no_outstanding_code", func(t *testing.T) {
		f := newFixture(t)
		f.confirmedSession(t, "a@b.com")
		assert.ErrorIs(t, f.service.VerifyForgetPassword(ctx, "a@b.com", "123456"), auth.ErrAccountNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.confirmedSession(t, "a@b.com")
		require.NoError(t, f.service.ForgetPassword(ctx, "a@b.com"))
		code := f.mail.lastCode(t)

		f.clock.Advance(auth.ForgotPasswordPolicy.TTL + time.Second)
		assert.ErrorIs(t, f.service.VerifyForgetPassword(ctx, "a@b.com", code), auth.ErrOTPExpired)
	})
}

/*
TestGoogleSignIn covers creation, repeat login and every rejection.
*/
func TestGoogleSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.google.identities["new"] = auth.GoogleIdentity{Email: "g@b.com", EmailVerified: true, Name: "Gee Bee", Picture: "https://img/p.png"}
	f.google.identities["unverified"] = auth.GoogleIdentity{Email: "u@b.com", Name: "You Bee"}
	f.google.identities["conflict"] = auth.GoogleIdentity{Email: "a@b.com", EmailVerified: true}

	session, created, err := f.service.GoogleSignIn(ctx, "new")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, session.User.IsConfirmed())
	assert.Equal(t, auth.ProviderGoogle, session.User.Provider)
	assert.Empty(t, session.User.PasswordHash)
	assert.False(t, session.User.ConfirmOTP.Active())
	f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)

	again, created, err := f.service.GoogleSignIn(ctx, "new")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, session.User.ID, again.User.ID)

	_, _, err = f.service.GoogleSignIn(ctx, "unverified")
	assert.ErrorIs(t, err, auth.ErrUnverifiedGoogleAccount)

	_, _, err = f.service.GoogleSignIn(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidGoogleToken)

	f.signup(t, "a@b.com")
	_, _, err = f.service.GoogleSignIn(ctx, "conflict")
	assert.ErrorIs(t, err, auth.ErrProviderConflict)
}

/*
TestAdminTier checks admin credentials are signed with the System keys only.
*/
func TestAdminTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, code := f.signup(t, "root@b.com")
	require.NoError(t, f.service.ConfirmEmail(ctx, "root@b.com", code))
	f.users.mutate(t, userID, func(user *auth.User) { user.Role = sec.RoleAdmin })

	session, err := f.service.Login(ctx, "root@b.com", testPassword)
	require.NoError(t, err)

	_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	principal := f.principal(t, sec.TierSystem, session.Credentials.AccessToken, sec.UseAccess)
	assert.Equal(t, sec.TierSystem, principal.Tier)
}

/*
TestCredentialInvalidation_SubSecond issues a new pair a fraction of a second
after a global invalidation. The new token must pass the gate while tokens from
earlier seconds are rejected.
*/
func TestCredentialInvalidation_SubSecond(t *testing.T) {
	t.Run("logout_from_all", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		session := f.confirmedSession(t, "a@b.com")

		f.clock.Advance(1400 * time.Millisecond)
		principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)
		require.NoError(t, f.service.Logout(ctx, principal, auth.FlagFromAll))

		f.clock.Advance(300 * time.Millisecond)
		fresh, err := f.service.Login(ctx, "a@b.com", testPassword)
		require.NoError(t, err)

		_, err = f.gate.Authenticate(ctx, "Bearer "+fresh.Credentials.AccessToken, sec.UseAccess)
		assert.NoError(t, err)

		_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
		assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)
	})

	t.Run("reset_password", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		session := f.confirmedSession(t, "a@b.com")

		f.clock.Advance(1200 * time.Millisecond)
		require.NoError(t, f.service.ForgetPassword(ctx, "a@b.com"))
		code := f.mail.lastCode(t)
		require.NoError(t, f.service.ResetPassword(ctx, auth.ResetPasswordInput{Email: "a@b.com", Code: code, NewPassword: otherPassword}))

		f.clock.Advance(300 * time.Millisecond)
		fresh, err := f.service.Login(ctx, "a@b.com", otherPassword)
		require.NoError(t, err)

		_, err = f.gate.Authenticate(ctx, "Bearer "+fresh.Credentials.AccessToken, sec.UseAccess)
		assert.NoError(t, err)

		_, err = f.gate.Authenticate(ctx, "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
		assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)
	})
}

/*
TestChangePassword_LogoutKeepsSessionOnFailure leaves the presented token usable
when the new password cannot be stored.
*/
func TestChangePassword_LogoutKeepsSessionOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")
	principal := f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)

	input := auth.ChangePasswordInput{OldPassword: testPassword, NewPassword: otherPassword, Flag: auth.FlagLogout}

	f.users.replaceErr = errors.New("connection reset")
	assert.Error(t, f.service.ChangePassword(ctx, principal, input))
	assert.Empty(t, f.revocations.jtis())
	f.principal(t, sec.TierBearer, session.Credentials.AccessToken, sec.UseAccess)

	f.users.replaceErr = nil
	require.NoError(t, f.service.ChangePassword(ctx, principal, input))
	assert.Len(t, f.revocations.jtis(), 1)
}
