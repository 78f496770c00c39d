// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for the account lifecycle.

# Schema Table Mapping
  - users.account: Identity, profile and soft-delete markers.
  - users.revokedtoken: Removed with the account through ON DELETE CASCADE.
*/
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/secretbox/internal/platform/database/schema"
	"github.com/taibuivan/secretbox/internal/platform/postgres"
	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
)

// likeEscaper neutralizes LIKE wildcards in a search term.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool  *pgxpool.Pool
	users *auth.PostgresUserRepository
}

// NewAccountRepository creates a new Postgres implementation for the account lifecycle.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool, users: auth.NewUserRepository(pool)}
}

// # AccountRepository Methods

// FindByID retrieves a user record from the users.account table, frozen or not.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	return repository.users.FindByID(context, id)
}

/*
UpdateBasicInfo applies the non-nil fields of change to an active account.

Parameters:
  - context: context.Context
  - id: string
  - change: BasicInfoChange

Returns:
  - *auth.User: The row as stored after the update
  - error: auth.ErrAccountNotFound or database errors
*/
func (repository *PostgresAccountRepository) UpdateBasicInfo(context context.Context, id string, change BasicInfoChange) (*auth.User, error) {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = COALESCE($2, %[2]s),
		    %[3]s = COALESCE($3, %[3]s),
		    %[4]s = COALESCE($4, %[4]s),
		    %[5]s = COALESCE($5, %[5]s),
		    %[6]s = NOW()
		WHERE %[7]s = $1 AND %[8]s IS NULL
		RETURNING %[9]s`,
		account.Table,
		account.FirstName, account.LastName, account.Phone, account.Gender, account.UpdatedAt,
		account.ID, account.DeletedAt,
		auth.UserColumns,
	)

	var gender *string
	if change.Gender != nil {
		value := string(*change.Gender)
		gender = &value
	}

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query,
		id, change.FirstName, change.LastName, change.Phone, gender))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_repo_update_basic_info_failed: %w", err)
	}

	return user, nil
}

/*
Search performs a case-insensitive substring match over names and email.

Description: Frozen accounts are excluded. The newest accounts come first.

Returns:
  - []*auth.User: The requested page
  - int: Total matches across all pages
  - error: Database errors
*/
func (repository *PostgresAccountRepository) Search(context context.Context, term string, params pagination.Params) ([]*auth.User, int, error) {
	account := schema.UserAccount
	filter := fmt.Sprintf(`(%s ILIKE $1 OR %s ILIKE $1 OR %s ILIKE $1) AND %s IS NULL`,
		account.FirstName, account.LastName, account.Email, account.DeletedAt)
	pattern := "%" + likeEscaper.Replace(term) + "%"

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, account.Table, filter)
	if err := repository.pool.QueryRow(context, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_search_count_failed: %w", err)
	}

	if total == 0 {
		return []*auth.User{}, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s DESC, %s
		LIMIT $2 OFFSET $3`,
		auth.UserColumns, account.Table, filter, account.CreatedAt, account.ID)

	rows, err := repository.pool.Query(context, query, pattern, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_search_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_search_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_search_rows_failed: %w", err)
	}

	return users, total, nil
}

// Freeze sets the soft-delete markers of an active account and clears the restore markers.
func (repository *PostgresAccountRepository) Freeze(context context.Context, id, actorID string, at time.Time) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NULL, %s = NULL, %s = NOW()
		WHERE %s = $1 AND %s IS NULL`,
		account.Table,
		account.DeletedAt, account.DeletedBy, account.RestoredAt, account.RestoredBy, account.UpdatedAt,
		account.ID, account.DeletedAt,
	)

	return repository.execOne(context, "freeze", query, id, at, actorID)
}

// Restore clears the soft-delete markers unless the account froze itself.
func (repository *PostgresAccountRepository) Restore(context context.Context, id, actorID string, at time.Time) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = NULL, %[3]s = NULL, %[4]s = $2, %[5]s = $3, %[6]s = NOW()
		WHERE %[7]s = $1 AND %[2]s IS NOT NULL AND %[3]s IS DISTINCT FROM $1`,
		account.Table,
		account.DeletedAt, account.DeletedBy, account.RestoredAt, account.RestoredBy, account.UpdatedAt,
		account.ID,
	)

	return repository.execOne(context, "restore", query, id, at, actorID)
}

/*
Delete removes a frozen account and runs purge in the same transaction.

Parameters:
  - context: context.Context
  - id: string
  - purge: func(context.Context) error (Media cleanup; failure rolls back)

Returns:
  - error: auth.ErrAccountNotFound, purge or database errors
*/
func (repository *PostgresAccountRepository) Delete(context context.Context, id string, purge func(context.Context) error) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s IS NOT NULL`,
		account.Table, account.ID, account.DeletedAt)

	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, query, id)
		if err != nil {
			return fmt.Errorf("postgres_account_repo_delete_failed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return auth.ErrAccountNotFound
		}

		if err := purge(context); err != nil {
			return fmt.Errorf("postgres_account_repo_delete_purge_failed: %w", err)
		}
		return nil
	})
}

// execOne runs an UPDATE that must touch exactly one account.
func (repository *PostgresAccountRepository) execOne(context context.Context, action, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_%s_failed: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}
