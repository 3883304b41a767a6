package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
)

const tokenColumns = "token_hash, session_id, expires_at, used, last_refreshed_at, created_at"

// PostgresStore persists refresh-token records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed refresh-token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create adds a new record, failing if the token hash is already stored.
func (s *PostgresStore) Create(ctx context.Context, record *models.RefreshTokenRecord) error {
	if record == nil {
		return fmt.Errorf("refresh token record is required")
	}
	query := `
		INSERT INTO refresh_tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.TokenHash,
		uuid.UUID(record.SessionID),
		record.ExpiresAt,
		record.Used,
		nullTime(record.LastRefreshedAt),
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("refresh token hash must be unique: %w", ErrTokenUsed)
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// Find retrieves a record by token hash regardless of its state.
func (s *PostgresStore) Find(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	record, err := scanRefreshToken(s.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return record, nil
}

// ConsumeRefreshToken marks the token used inside one row-locked
// transaction, so concurrent presentations of the same token see
// exactly one winner. Expired and already-used tokens fail with their
// sentinel but still return the record, so callers can act on the
// owning session when a consumed token is presented again.
func (s *PostgresStore) ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin consume refresh token tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token_hash = $1
		FOR UPDATE
	`
	record, err := scanRefreshToken(tx.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find refresh token for consume: %w", err)
	}

	if record.IsExpired(now) {
		return record, fmt.Errorf("refresh token expired: %w", ErrTokenExpired)
	}
	if record.Used {
		return record, fmt.Errorf("refresh token already used: %w", ErrTokenUsed)
	}

	record.Used = true
	record.LastRefreshedAt = &now
	_, err = tx.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET used = TRUE, last_refreshed_at = $2
		WHERE token_hash = $1
	`, record.TokenHash, now)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit consume refresh token tx: %w", err)
	}
	return record, nil
}

// DeleteBySessionID removes every token belonging to the session.
func (s *PostgresStore) DeleteBySessionID(ctx context.Context, sessionID id.SessionID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE session_id = $1`, uuid.UUID(sessionID))
	if err != nil {
		return fmt.Errorf("delete refresh tokens by session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete refresh tokens rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no refresh tokens for session: %w", ErrNotFound)
	}
	return nil
}

// DeleteExpiredTokens removes tokens past their lifetime and reports how
// many were deleted.
func (s *PostgresStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens rows: %w", err)
	}
	return int(rows), nil
}

// DeleteUsedTokens removes rotated tokens and reports how many were
// deleted.
func (s *PostgresStore) DeleteUsedTokens(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE used = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("delete used refresh tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete used refresh tokens rows: %w", err)
	}
	return int(rows), nil
}

type refreshTokenRow interface {
	Scan(dest ...any) error
}

func scanRefreshToken(row refreshTokenRow) (*models.RefreshTokenRecord, error) {
	var record models.RefreshTokenRecord
	var sessionID uuid.UUID
	var lastRefreshed sql.NullTime
	if err := row.Scan(&record.TokenHash, &sessionID, &record.ExpiresAt, &record.Used, &lastRefreshed, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.SessionID = id.SessionID(sessionID)
	if lastRefreshed.Valid {
		record.LastRefreshedAt = &lastRefreshed.Time
	}
	return &record, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
