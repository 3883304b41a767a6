package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gradus/internal/student/models"
	id "gradus/pkg/domain"
)

const studentColumns = "id, email, password_hash, name, student_type, curriculum_year, extra_curricular_units, status, created_at, updated_at"

// PostgresStore persists students in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed student store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create adds a new student, failing if the email is already registered.
func (s *PostgresStore) Create(ctx context.Context, student *models.Student) error {
	if student == nil {
		return fmt.Errorf("student is required")
	}
	query := `
		INSERT INTO students (` + studentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query, studentArgs(student)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student email must be unique: %w", ErrAlreadyExists)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// GetByID retrieves a student by ID.
func (s *PostgresStore) GetByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE id = $1
	`
	student, err := scanStudent(s.db.QueryRowContext(ctx, query, uuid.UUID(studentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	return student, nil
}

// GetByEmail retrieves a student by email.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE email = $1
	`
	student, err := scanStudent(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get student by email: %w", err)
	}
	return student, nil
}

// Update replaces an existing student row.
func (s *PostgresStore) Update(ctx context.Context, student *models.Student) error {
	if student == nil {
		return fmt.Errorf("student is required")
	}
	query := `
		UPDATE students
		SET email = $2, password_hash = $3, name = $4, student_type = $5,
		    curriculum_year = $6, extra_curricular_units = $7, status = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(student.ID),
		student.Email,
		student.PasswordHash,
		student.Name,
		student.StudentType.String(),
		student.CurriculumYear,
		student.ExtraCurricularUnits,
		student.Status.String(),
		student.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student email must be unique: %w", ErrAlreadyExists)
		}
		return fmt.Errorf("update student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("student not found: %w", ErrNotFound)
	}
	return nil
}

// ListCourses returns the student's completed-course record, ordered by code.
func (s *PostgresStore) ListCourses(ctx context.Context, studentID id.StudentID) ([]models.CompletedCourse, error) {
	query := `
		SELECT course_code, grade
		FROM student_courses
		WHERE student_id = $1
		ORDER BY course_code
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.CompletedCourse, 0)
	for rows.Next() {
		var code, grade string
		if err := rows.Scan(&code, &grade); err != nil {
			return nil, fmt.Errorf("scan student course: %w", err)
		}
		courses = append(courses, models.CompletedCourse{
			Code:  id.CourseCode(code),
			Grade: id.Grade(grade),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student courses: %w", err)
	}
	return courses, nil
}

// ReplaceCourses swaps the student's entire completed-course record for
// the given set inside one transaction.
func (s *PostgresStore) ReplaceCourses(ctx context.Context, studentID id.StudentID, courses []models.CompletedCourse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, uuid.UUID(studentID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check student exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("student not found: %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_courses WHERE student_id = $1`, uuid.UUID(studentID)); err != nil {
		return fmt.Errorf("clear student courses: %w", err)
	}

	insert := `
		INSERT INTO student_courses (student_id, course_code, grade)
		VALUES ($1, $2, $3)
	`
	for _, course := range courses {
		if _, err := tx.ExecContext(ctx, insert, uuid.UUID(studentID), course.Code.String(), course.Grade.String()); err != nil {
			return fmt.Errorf("insert student course %s: %w", course.Code.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record replace tx: %w", err)
	}
	return nil
}

// Count returns the total number of students.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

func studentArgs(student *models.Student) []any {
	return []any{
		uuid.UUID(student.ID),
		student.Email,
		student.PasswordHash,
		student.Name,
		student.StudentType.String(),
		student.CurriculumYear,
		student.ExtraCurricularUnits,
		student.Status.String(),
		student.CreatedAt,
		student.UpdatedAt,
	}
}

type studentRow interface {
	Scan(dest ...any) error
}

func scanStudent(row studentRow) (*models.Student, error) {
	var student models.Student
	var studentID uuid.UUID
	var studentType, status string
	if err := row.Scan(&studentID, &student.Email, &student.PasswordHash, &student.Name,
		&studentType, &student.CurriculumYear, &student.ExtraCurricularUnits, &status,
		&student.CreatedAt, &student.UpdatedAt); err != nil {
		return nil, err
	}
	student.ID = id.StudentID(studentID)
	student.StudentType = id.StudentType(studentType)
	student.Status = models.StudentStatus(status)
	return &student, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
