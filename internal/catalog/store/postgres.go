package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

const courseColumns = "code, name, credit, category, stage, required, source, updated_at"

// PostgresStore persists courses in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed course store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByCode retrieves a course by its code.
func (s *PostgresStore) GetByCode(ctx context.Context, code id.CourseCode) (*models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE code = $1
	`
	course, err := scanCourse(s.db.QueryRowContext(ctx, query, code.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course by code: %w", err)
	}
	return course, nil
}

// GetByCodes retrieves the courses for the given codes, ordered by code.
// Unknown codes are omitted from the result.
func (s *PostgresStore) GetByCodes(ctx context.Context, codes []id.CourseCode) ([]models.Course, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, code := range codes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = code.String()
	}
	query := fmt.Sprintf(`
		SELECT `+courseColumns+`
		FROM courses
		WHERE code IN (%s)
		ORDER BY code
	`, strings.Join(placeholders, ", "))

	return s.queryCourses(ctx, query, args...)
}

// ListRequired returns all required courses, ordered by code.
func (s *PostgresStore) ListRequired(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE required
		ORDER BY code
	`
	return s.queryCourses(ctx, query)
}

// Search returns courses matching the filter, ordered by code.
func (s *PostgresStore) Search(ctx context.Context, filter models.SearchFilter) ([]models.Course, error) {
	filter = filter.Normalize()

	var conds []string
	var args []any
	if filter.Query != "" {
		conds = append(conds, fmt.Sprintf("(code LIKE $%d OR lower(name) LIKE lower($%d))", len(args)+1, len(args)+2))
		args = append(args, strings.ToUpper(filter.Query)+"%", "%"+filter.Query+"%")
	}
	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, string(*filter.Category))
	}
	if filter.Stage != nil {
		conds = append(conds, fmt.Sprintf("stage = $%d", len(args)+1))
		args = append(args, string(*filter.Stage))
	}
	if filter.Required != nil {
		conds = append(conds, fmt.Sprintf("required = $%d", len(args)+1))
		args = append(args, *filter.Required)
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY code LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	return s.queryCourses(ctx, query, args...)
}

// Create adds a new course, failing if the code is already taken.
func (s *PostgresStore) Create(ctx context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query, courseArgs(course)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("course code must be unique: %w", ErrAlreadyExists)
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update replaces an existing course.
func (s *PostgresStore) Update(ctx context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	query := `
		UPDATE courses
		SET name = $2, credit = $3, category = $4, stage = $5, required = $6, source = $7, updated_at = $8
		WHERE code = $1
	`
	res, err := s.db.ExecContext(ctx, query, courseArgs(course)...)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert creates the course or replaces the existing one with the same code.
func (s *PostgresStore) Upsert(ctx context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, credit = EXCLUDED.credit, category = EXCLUDED.category,
		    stage = EXCLUDED.stage, required = EXCLUDED.required, source = EXCLUDED.source,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, courseArgs(course)...); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

// Delete removes a course by code.
func (s *PostgresStore) Delete(ctx context.Context, code id.CourseCode) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE code = $1`, code.String())
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of courses.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryCourses(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func courseArgs(course *models.Course) []any {
	return []any{
		course.Code.String(),
		course.Name,
		course.Credit,
		string(course.Category),
		string(course.Stage),
		course.Required,
		course.Source,
		course.UpdatedAt,
	}
}

type courseRow interface {
	Scan(dest ...any) error
}

func scanCourse(row courseRow) (*models.Course, error) {
	var course models.Course
	var code, category, stage string
	if err := row.Scan(&code, &course.Name, &course.Credit, &category, &stage,
		&course.Required, &course.Source, &course.UpdatedAt); err != nil {
		return nil, err
	}
	course.Code = id.CourseCode(code)
	course.Category = models.Category(category)
	course.Stage = models.Stage(stage)
	return &course, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
