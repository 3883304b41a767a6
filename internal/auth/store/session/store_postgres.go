package session

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

const sessionColumns = "id, student_id, status, device_name, last_access_token_jti, created_at, expires_at, last_seen_at, last_refreshed_at, revoked_at"

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create adds a new session, failing if the ID is already taken.
func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.StudentID),
		string(session.Status),
		session.DeviceDisplayName,
		session.LastAccessTokenJTI,
		session.CreatedAt,
		session.ExpiresAt,
		session.LastSeenAt,
		nullTime(session.LastRefreshedAt),
		nullTime(session.RevokedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session id must be unique: %w", ErrAlreadyExists)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID retrieves a session by ID regardless of its state.
func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
	`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.UUID(sessionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

// ListByStudent returns every session belonging to the student, newest
// activity first.
func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE student_id = $1
		ORDER BY last_seen_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// AdvanceRefresh records a token rotation on the session inside one
// row-locked transaction. Revoked and expired sessions fail with their
// sentinel so a rotation can never touch a session that ended
// underneath it.
func (s *PostgresStore) AdvanceRefresh(ctx context.Context, sessionID id.SessionID, at time.Time, jti string) (*models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin advance refresh tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`
	session, err := scanSession(tx.QueryRowContext(ctx, query, uuid.UUID(sessionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find session for advance: %w", err)
	}

	if session.IsRevoked() {
		return nil, fmt.Errorf("session revoked: %w", ErrRevoked)
	}
	if !session.IsActive(at) {
		return nil, fmt.Errorf("session expired: %w", ErrExpired)
	}

	session.RecordRefresh(at, jti)
	_, err = tx.ExecContext(ctx, `
		UPDATE sessions
		SET last_access_token_jti = $2, last_seen_at = $3, last_refreshed_at = $3
		WHERE id = $1
	`, uuid.UUID(sessionID), jti, at)
	if err != nil {
		return nil, fmt.Errorf("advance session refresh: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit advance refresh tx: %w", err)
	}
	return session, nil
}

// Revoke ends the session. Revoking an already-revoked session is a
// no-op success; only unknown sessions fail.
func (s *PostgresStore) Revoke(ctx context.Context, sessionID id.SessionID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = $2, revoked_at = $3
		WHERE id = $1 AND status != $2
	`, uuid.UUID(sessionID), string(models.SessionStatusRevoked), at)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session rows: %w", err)
	}
	if rows == 0 {
		// Distinguish an unknown session from one already revoked.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, uuid.UUID(sessionID)).Scan(&exists); err != nil {
			return fmt.Errorf("check session exists: %w", err)
		}
		if !exists {
			return fmt.Errorf("session not found: %w", ErrNotFound)
		}
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their lifetime and reports
// how many were deleted. Refresh tokens go with them via the FK cascade.
func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows: %w", err)
	}
	return int(rows), nil
}

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (*models.Session, error) {
	var session models.Session
	var sessionID, studentID uuid.UUID
	var status string
	var lastRefreshed, revoked sql.NullTime
	if err := row.Scan(&sessionID, &studentID, &status, &session.DeviceDisplayName,
		&session.LastAccessTokenJTI, &session.CreatedAt, &session.ExpiresAt,
		&session.LastSeenAt, &lastRefreshed, &revoked); err != nil {
		return nil, err
	}
	session.ID = id.SessionID(sessionID)
	session.StudentID = id.StudentID(studentID)
	session.Status = models.SessionStatus(status)
	if lastRefreshed.Valid {
		session.LastRefreshedAt = &lastRefreshed.Time
	}
	if revoked.Valid {
		session.RevokedAt = &revoked.Time
	}
	return &session, nil
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
