// Package sqlstore keeps Account aggregates in a SQL table, one row per account.
// Pages are stored as a JSON document so every write replaces the whole aggregate.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dtroode/recipebox-server/internal/database"
	"github.com/dtroode/recipebox-server/internal/model"
)

const pgUniqueViolation = "23505"

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

func NewAccountRepository(db *sql.DB, dialect database.Dialect) *AccountRepository {
	return &AccountRepository{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

const selectAccount = `SELECT id, username, password_hash, pages, version, created_at, updated_at FROM accounts`

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.Version = 1
	account.Pages = model.ClonePages(account.Pages)

	pages, err := json.Marshal(account.Pages)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to encode pages: %w", err)
	}

	query := r.dialect.Rebind(`INSERT INTO accounts (id, username, password_hash, pages, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		account.ID.String(), account.Username, account.PasswordHash, string(pages),
		account.Version, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrUsernameTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	account.CreatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	account.UpdatedAt = account.CreatedAt
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectAccount+` WHERE id = ?`), id.String())
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.NewNotFoundError("user", id.String())
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectAccount+` WHERE username = ?`), username)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.NewNotFoundError("user", username)
		}
		return model.Account{}, fmt.Errorf("failed to get account by username: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account model.Account) (model.Account, error) {
	account.Pages = model.ClonePages(account.Pages)
	pages, err := json.Marshal(account.Pages)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to encode pages: %w", err)
	}

	updatedAt := r.now().UTC().UnixMilli()
	query := r.dialect.Rebind(`UPDATE accounts SET pages = ?, version = ?, updated_at = ?
			  WHERE id = ? AND version = ?`)
	res, err := r.db.ExecContext(ctx, query,
		string(pages), account.Version+1, updatedAt, account.ID.String(), account.Version,
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to save account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return model.Account{}, r.missingOrStale(ctx, account.ID)
	}

	account.Version++
	account.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return account, nil
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// missingOrStale tells apart a deleted row from a concurrent writer after an update matched nothing.
func (r *AccountRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT 1 FROM accounts WHERE id = ?`), id.String()).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("user", id.String())
		}
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	return model.ErrVersionConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		account              model.Account
		id, pages            string
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &account.Username, &account.PasswordHash, &pages, &account.Version, &createdAt, &updatedAt)
	if err != nil {
		return model.Account{}, err
	}

	account.ID, err = uuid.Parse(id)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to parse account id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(pages), &account.Pages); err != nil {
		return model.Account{}, fmt.Errorf("failed to decode pages: %w", err)
	}
	account.Pages = model.ClonePages(account.Pages)
	account.CreatedAt = time.UnixMilli(createdAt).UTC()
	account.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}

	return false
}
