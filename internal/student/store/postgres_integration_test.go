//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gradus/internal/student/models"
	"gradus/internal/student/store"
	id "gradus/pkg/domain"
	"gradus/pkg/testutil"
	"gradus/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "student_courses", "students"))
}

func (s *PostgresStoreSuite) student(email, name string) *models.Student {
	student, err := models.NewStudent(
		id.StudentID(uuid.New()),
		email,
		"$2a$10$fakehash",
		name,
		id.StudentTypeFreshman,
		"2024",
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	return student
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	ctx := context.Background()

	student := s.student("ada@university.edu", "Ada Lovelace")
	student.StudentType = id.StudentTypeTransfer
	student.ExtraCurricularUnits = 12
	s.Require().NoError(s.store.Create(ctx, student))

	byID, err := s.store.GetByID(ctx, student.ID)
	s.Require().NoError(err)
	s.Equal(student.ID, byID.ID)
	s.Equal("ada@university.edu", byID.Email)
	s.Equal("$2a$10$fakehash", byID.PasswordHash)
	s.Equal(id.StudentTypeTransfer, byID.StudentType)
	s.Equal("2024", byID.CurriculumYear)
	s.Equal(12, byID.ExtraCurricularUnits)
	s.Equal(models.StatusActive, byID.Status)
	s.WithinDuration(student.CreatedAt, byID.CreatedAt, time.Second)

	byEmail, err := s.store.GetByEmail(ctx, "ada@university.edu")
	s.Require().NoError(err)
	s.Equal(student.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestGet_NotFound() {
	ctx := context.Background()

	_, err := s.store.GetByID(ctx, id.StudentID(uuid.New()))
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.store.GetByEmail(ctx, "nobody@university.edu")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreate_DuplicateEmail() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.student("ada@university.edu", "Ada")))

	err := s.store.Create(ctx, s.student("ada@university.edu", "Imposter"))
	s.ErrorIs(err, store.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestConcurrentRegisterConflict() {
	ctx := context.Background()

	result := testutil.RunConcurrent(10, func(_ int) error {
		return s.store.Create(ctx, s.student("ada@university.edu", "Ada"))
	})

	s.Equal(int32(1), result.Successes, "exactly one registration should win the unique constraint")
	s.Equal(int32(9), result.Conflicts)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("replaces existing row", func() {
		student := s.student("ada@university.edu", "Ada")
		s.Require().NoError(s.store.Create(ctx, student))

		student.ExtraCurricularUnits = 70
		student.Status = models.StatusWithdrawn
		student.UpdatedAt = time.Now().UTC()
		s.Require().NoError(s.store.Update(ctx, student))

		found, err := s.store.GetByID(ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(70, found.ExtraCurricularUnits)
		s.Equal(models.StatusWithdrawn, found.Status)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		s.ErrorIs(s.store.Update(ctx, s.student("ghost@university.edu", "Ghost")), store.ErrNotFound)
	})

	s.Run("returns ErrAlreadyExists when email taken", func() {
		s.Require().NoError(s.postgres.TruncateTables(ctx, "student_courses", "students"))
		s.Require().NoError(s.store.Create(ctx, s.student("ada@university.edu", "Ada")))
		other := s.student("grace@university.edu", "Grace")
		s.Require().NoError(s.store.Create(ctx, other))

		other.Email = "ada@university.edu"
		s.ErrorIs(s.store.Update(ctx, other), store.ErrAlreadyExists)
	})
}

func (s *PostgresStoreSuite) TestReplaceAndListCourses() {
	ctx := context.Background()

	student := s.student("ada@university.edu", "Ada")
	s.Require().NoError(s.store.Create(ctx, student))

	s.Run("new student has empty record", func() {
		courses, err := s.store.ListCourses(ctx, student.ID)
		s.Require().NoError(err)
		s.Empty(courses)
		s.NotNil(courses)
	})

	s.Run("replace writes the full set", func() {
		record := []models.CompletedCourse{
			{Code: "MA201", Grade: id.GradeB},
			{Code: "CS101", Grade: id.GradeA},
			{Code: "CS204"},
		}
		s.Require().NoError(s.store.ReplaceCourses(ctx, student.ID, record))

		courses, err := s.store.ListCourses(ctx, student.ID)
		s.Require().NoError(err)
		s.Require().Len(courses, 3)
		s.Equal(id.CourseCode("CS101"), courses[0].Code)
		s.Equal(id.GradeA, courses[0].Grade)
		s.Equal(id.CourseCode("CS204"), courses[1].Code)
		s.False(courses[1].Graded())
		s.Equal(id.CourseCode("MA201"), courses[2].Code)
	})

	s.Run("replace discards the previous set", func() {
		s.Require().NoError(s.store.ReplaceCourses(ctx, student.ID, []models.CompletedCourse{{Code: "GE150"}}))

		courses, err := s.store.ListCourses(ctx, student.ID)
		s.Require().NoError(err)
		s.Require().Len(courses, 1)
		s.Equal(id.CourseCode("GE150"), courses[0].Code)
	})

	s.Run("replace with empty set clears the record", func() {
		s.Require().NoError(s.store.ReplaceCourses(ctx, student.ID, nil))

		courses, err := s.store.ListCourses(ctx, student.ID)
		s.Require().NoError(err)
		s.Empty(courses)
	})

	s.Run("unknown student", func() {
		s.ErrorIs(s.store.ReplaceCourses(ctx, id.StudentID(uuid.New()), nil), store.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestDeleteCascades() {
	ctx := context.Background()

	student := s.student("ada@university.edu", "Ada")
	s.Require().NoError(s.store.Create(ctx, student))
	s.Require().NoError(s.store.ReplaceCourses(ctx, student.ID, []models.CompletedCourse{{Code: "CS101"}}))

	_, err := s.postgres.DB.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, uuid.UUID(student.ID))
	s.Require().NoError(err)

	var orphans int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM student_courses WHERE student_id = $1`, uuid.UUID(student.ID)).Scan(&orphans))
	s.Equal(0, orphans, "course rows should be deleted with the student")
}

func (s *PostgresStoreSuite) TestCount() {
	ctx := context.Background()

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	s.Require().NoError(s.store.Create(ctx, s.student("ada@university.edu", "Ada")))
	s.Require().NoError(s.store.Create(ctx, s.student("grace@university.edu", "Grace")))

	count, err = s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}
