// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/secretbox/internal/platform/database/schema"
	"github.com/taibuivan/secretbox/internal/platform/dberr"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/pkg/pointer"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// UserColumns is the select list matching [ScanUser].
var UserColumns = strings.Join(schema.UserAccount.Columns(), ", ")

// ScanUser hydrates a [User] from a row selected with [UserColumns].
func ScanUser(row pgx.Row) (*User, error) {
	var (
		user                         User
		passwordHash, phone, picture *string
		confirmHash, forgotHash      *string
		gender, role, provider       string
	)

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&passwordHash,
		&user.OldPasswords,
		&phone,
		&gender,
		&role,
		&provider,
		&picture,
		&user.ConfirmedAt,
		&confirmHash,
		&user.ConfirmOTP.ExpiresAt,
		&user.ConfirmOTP.Count,
		&user.ConfirmOTP.BlockedUntil,
		&forgotHash,
		&user.ForgotOTP.ExpiresAt,
		&user.ChangeCredentialsAt,
		&user.DeletedAt,
		&user.DeletedBy,
		&user.RestoredAt,
		&user.RestoredBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = pointer.Val(passwordHash)
	user.Phone = pointer.Val(phone)
	user.Picture = pointer.Val(picture)
	user.ConfirmOTP.Hash = pointer.Val(confirmHash)
	user.ForgotOTP.Hash = pointer.Val(forgotHash)
	user.Gender = Gender(gender)
	user.Role = sec.UserRole(role)
	user.Provider = Provider(provider)

	return &user, nil
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: ErrEmailTaken on the unique email constraint, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s,
			%s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		account.Table,
		account.ID, account.FirstName, account.LastName, account.Email, account.PasswordHash, account.OldPasswords,
		account.Phone, account.Gender, account.Role, account.Provider, account.Picture,
		account.ConfirmedAt, account.ConfirmOTPHash, account.ConfirmOTPExpiresAt, account.ConfirmOTPCount, account.ConfirmOTPBlockedUntil,
		account.CreatedAt, account.UpdatedAt,
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.OldPasswords == nil {
		user.OldPasswords = []string{}
	}

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		nullable(user.PasswordHash),
		user.OldPasswords,
		nullable(user.Phone),
		string(user.Gender),
		string(user.Role),
		string(user.Provider),
		nullable(user.Picture),
		user.ConfirmedAt,
		nullable(user.ConfirmOTP.Hash),
		user.ConfirmOTP.ExpiresAt,
		user.ConfirmOTP.Count,
		user.ConfirmOTP.BlockedUntil,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken.WithCause(err)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by primary key.

Returns:
  - *User: Hydrated account entity
  - error: ErrAccountNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, UserColumns, schema.UserAccount.Table, schema.UserAccount.ID)

	user, err := ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Returns:
  - *User: Hydrated account entity
  - error: ErrAccountNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, UserColumns, schema.UserAccount.Table, schema.UserAccount.Email)

	user, err := ScanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// SaveConfirmOTP replaces the confirmation OTP columns.
func (repository *PostgresUserRepository) SaveConfirmOTP(context context.Context, userID string, state OTPState) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = NOW()
		WHERE %s = $1`,
		account.Table,
		account.ConfirmOTPHash, account.ConfirmOTPExpiresAt, account.ConfirmOTPCount, account.ConfirmOTPBlockedUntil, account.UpdatedAt,
		account.ID,
	)

	return repository.execOne(context, "save_confirm_otp", query,
		userID, nullable(state.Hash), state.ExpiresAt, state.Count, state.BlockedUntil)
}

// ConfirmEmail marks the email confirmed and clears the confirmation OTP.
func (repository *PostgresUserRepository) ConfirmEmail(context context.Context, userID string, confirmedAt time.Time) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NULL, %s = NULL, %s = 0, %s = NULL, %s = NOW()
		WHERE %s = $1`,
		account.Table,
		account.ConfirmedAt,
		account.ConfirmOTPHash, account.ConfirmOTPExpiresAt, account.ConfirmOTPCount, account.ConfirmOTPBlockedUntil,
		account.UpdatedAt,
		account.ID,
	)

	return repository.execOne(context, "confirm_email", query, userID, confirmedAt)
}

// SaveForgotOTP replaces the forgot-password OTP columns.
func (repository *PostgresUserRepository) SaveForgotOTP(context context.Context, userID string, state OTPState) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = NOW() WHERE %s = $1`,
		account.Table, account.ForgotOTPHash, account.ForgotOTPExpiresAt, account.UpdatedAt, account.ID)

	return repository.execOne(context, "save_forgot_otp", query, userID, nullable(state.Hash), state.ExpiresAt)
}

/*
ReplacePassword swaps the password hash and pushes the previous one into history.

Parameters:
  - context: context.Context
  - userID: string
  - change: PasswordChange

Returns:
  - error: ErrAccountNotFound or database errors
*/
func (repository *PostgresUserRepository) ReplacePassword(context context.Context, userID string, change PasswordChange) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = $2,
		    %[3]s = CASE WHEN $3::text IS NULL THEN %[3]s ELSE array_append(%[3]s, $3::text) END,
		    %[4]s = COALESCE($4::timestamptz, %[4]s),
		    %[5]s = CASE WHEN $5::boolean THEN NULL ELSE %[5]s END,
		    %[6]s = CASE WHEN $5::boolean THEN NULL ELSE %[6]s END,
		    %[7]s = NOW()
		WHERE %[8]s = $1`,
		account.Table, account.PasswordHash, account.OldPasswords, account.ChangeCredentialsAt,
		account.ForgotOTPHash, account.ForgotOTPExpiresAt, account.UpdatedAt, account.ID,
	)

	return repository.execOne(context, "replace_password", query,
		userID, change.NewHash, nullable(change.PreviousHash), change.ChangeCredentialsAt, change.ClearForgotOTP)
}

// InvalidateCredentials records the global token invalidation instant.
func (repository *PostgresUserRepository) InvalidateCredentials(context context.Context, userID string, at time.Time) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		account.Table, account.ChangeCredentialsAt, account.UpdatedAt, account.ID)

	return repository.execOne(context, "invalidate_credentials", query, userID, at)
}

// execOne runs an UPDATE that must touch exactly one account.
func (repository *PostgresUserRepository) execOne(context context.Context, action, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_%s_failed: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// # Revocation Repository

// PostgresRevocationRepository implements RevocationRepository on users.revokedtoken.
type PostgresRevocationRepository struct {
	pool *pgxpool.Pool
}

// NewRevocationRepository creates a new PostgreSQL implementation of the RevocationRepository.
func NewRevocationRepository(pool *pgxpool.Pool) *PostgresRevocationRepository {
	return &PostgresRevocationRepository{pool: pool}
}

/*
Revoke inserts a revocation record. The jti primary key rejects duplicates.

Returns:
  - error: ErrDuplicateRevocation or database errors
*/
func (repository *PostgresRevocationRepository) Revoke(context context.Context, record RevokedToken) error {
	revoked := schema.UserRevokedToken
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, NOW())`,
		revoked.Table, revoked.JTI, revoked.UserID, revoked.ExpiresIn, revoked.CreatedAt)

	if _, err := repository.pool.Exec(context, query, record.JTI, record.UserID, record.ExpiresIn); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateRevocation.WithCause(err)
		}
		return fmt.Errorf("postgres_revocation_repo_revoke_failed: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has a revocation record.
func (repository *PostgresRevocationRepository) IsRevoked(context context.Context, jti string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.UserRevokedToken.Table, schema.UserRevokedToken.JTI)

	var exists bool
	if err := repository.pool.QueryRow(context, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_revocation_repo_is_revoked_failed: %w", err)
	}
	return exists, nil
}

// Find returns the revocation record of jti, or nil when absent.
func (repository *PostgresRevocationRepository) Find(context context.Context, jti string) (*RevokedToken, error) {
	revoked := schema.UserRevokedToken
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(revoked.Columns(), ", "), revoked.Table, revoked.JTI)

	var record RevokedToken
	err := repository.pool.QueryRow(context, query, jti).Scan(&record.JTI, &record.UserID, &record.ExpiresIn, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_revocation_repo_find_failed: %w", err)
	}
	return &record, nil
}

// PurgeExpired deletes records whose expiresin lies before now.
func (repository *PostgresRevocationRepository) PurgeExpired(context context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		schema.UserRevokedToken.Table, schema.UserRevokedToken.ExpiresIn)

	tag, err := repository.pool.Exec(context, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("postgres_revocation_repo_purge_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// # Helpers

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
