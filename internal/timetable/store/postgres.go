package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gradus/internal/timetable/models"
	id "gradus/pkg/domain"
)

// PostgresStore persists timetables in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed timetable store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create adds a new timetable and its entries in one transaction.
func (s *PostgresStore) Create(ctx context.Context, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable create tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	insert := `
		INSERT INTO timetables (id, student_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, insert,
		uuid.UUID(timetable.ID),
		uuid.UUID(timetable.StudentID),
		timetable.Name,
		timetable.CreatedAt,
		timetable.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("timetable ID must be unique: %w", ErrAlreadyExists)
		}
		return fmt.Errorf("create timetable: %w", err)
	}

	if err := insertEntries(ctx, tx, timetable.ID, timetable.Entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable create tx: %w", err)
	}
	return nil
}

// GetByID retrieves a timetable with its entries ordered by slot.
func (s *PostgresStore) GetByID(ctx context.Context, timetableID id.TimetableID) (*models.Timetable, error) {
	query := `
		SELECT id, student_id, name, created_at, updated_at
		FROM timetables
		WHERE id = $1
	`
	timetable, err := scanTimetable(s.db.QueryRowContext(ctx, query, uuid.UUID(timetableID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timetable not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get timetable by id: %w", err)
	}
	if timetable.Entries, err = s.listEntries(ctx, timetable.ID); err != nil {
		return nil, err
	}
	return timetable, nil
}

// ListByStudent returns the student's timetables, oldest first. The
// listing is capped at a handful of plans per student, so per-row
// entry loads are fine.
func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error) {
	query := `
		SELECT id, student_id, name, created_at, updated_at
		FROM timetables
		WHERE student_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	defer rows.Close()

	timetables := make([]models.Timetable, 0)
	for rows.Next() {
		timetable, err := scanTimetable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timetable: %w", err)
		}
		timetables = append(timetables, *timetable)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timetables: %w", err)
	}

	for i := range timetables {
		if timetables[i].Entries, err = s.listEntries(ctx, timetables[i].ID); err != nil {
			return nil, err
		}
	}
	return timetables, nil
}

// Update replaces an existing timetable row and its full entry set
// inside one transaction.
func (s *PostgresStore) Update(ctx context.Context, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable update tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	update := `
		UPDATE timetables
		SET name = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, update, uuid.UUID(timetable.ID), timetable.Name, timetable.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update timetable: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timetable rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("timetable not found: %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE timetable_id = $1`, uuid.UUID(timetable.ID)); err != nil {
		return fmt.Errorf("clear timetable entries: %w", err)
	}
	if err := insertEntries(ctx, tx, timetable.ID, timetable.Entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable update tx: %w", err)
	}
	return nil
}

// Delete removes a timetable; its entries go with it via cascade.
func (s *PostgresStore) Delete(ctx context.Context, timetableID id.TimetableID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, uuid.UUID(timetableID))
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timetable rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("timetable not found: %w", ErrNotFound)
	}
	return nil
}

// CountByStudent returns how many timetables the student owns.
func (s *PostgresStore) CountByStudent(ctx context.Context, studentID id.StudentID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM timetables WHERE student_id = $1`
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(studentID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count timetables: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) listEntries(ctx context.Context, timetableID id.TimetableID) ([]models.Entry, error) {
	query := `
		SELECT course_code, day_of_week, period
		FROM timetable_entries
		WHERE timetable_id = $1
		ORDER BY day_of_week, period
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(timetableID))
	if err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var code string
		var entry models.Entry
		if err := rows.Scan(&code, &entry.DayOfWeek, &entry.Period); err != nil {
			return nil, fmt.Errorf("scan timetable entry: %w", err)
		}
		entry.CourseCode = id.CourseCode(code)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timetable entries: %w", err)
	}
	return entries, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, timetableID id.TimetableID, entries []models.Entry) error {
	insert := `
		INSERT INTO timetable_entries (timetable_id, course_code, day_of_week, period)
		VALUES ($1, $2, $3, $4)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			uuid.UUID(timetableID), entry.CourseCode.String(), entry.DayOfWeek, entry.Period); err != nil {
			return fmt.Errorf("insert timetable entry %s: %w", entry.CourseCode.String(), err)
		}
	}
	return nil
}

type timetableRow interface {
	Scan(dest ...any) error
}

func scanTimetable(row timetableRow) (*models.Timetable, error) {
	var timetable models.Timetable
	var timetableID, studentID uuid.UUID
	if err := row.Scan(&timetableID, &studentID, &timetable.Name,
		&timetable.CreatedAt, &timetable.UpdatedAt); err != nil {
		return nil, err
	}
	timetable.ID = id.TimetableID(timetableID)
	timetable.StudentID = id.StudentID(studentID)
	return &timetable, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
