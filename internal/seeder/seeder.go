// Package seeder populates empty stores with a working curriculum and a few
// demo students so a fresh instance can answer graduation evaluations
// immediately. Stores that already hold data are left alone, which makes
// seeding safe to run on every boot.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogmodels "gradus/internal/catalog/models"
	studentmodels "gradus/internal/student/models"
	id "gradus/pkg/domain"
	"gradus/pkg/secrets"
)

// demoPassword is the login password shared by all seeded students.
const demoPassword = "password123"

// CourseStore is the slice of the catalog store the seeder writes to.
type CourseStore interface {
	Upsert(ctx context.Context, course *catalogmodels.Course) error
	Count(ctx context.Context) (int, error)
}

// StudentStore is the slice of the student store the seeder writes to.
type StudentStore interface {
	Create(ctx context.Context, student *studentmodels.Student) error
	ReplaceCourses(ctx context.Context, studentID id.StudentID, courses []studentmodels.CompletedCourse) error
	Count(ctx context.Context) (int, error)
}

// Seeder fills the catalog and student stores with demo data.
type Seeder struct {
	courses  CourseStore
	students StudentStore
	logger   *slog.Logger
}

// New creates a seeder over the given stores.
func New(courses CourseStore, students StudentStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		courses:  courses,
		students: students,
		logger:   logger,
	}
}

// SeedAll populates the curriculum and the demo students.
func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.seedCurriculum(ctx); err != nil {
		return fmt.Errorf("failed to seed curriculum: %w", err)
	}
	if err := s.seedStudents(ctx); err != nil {
		return fmt.Errorf("failed to seed students: %w", err)
	}
	return nil
}

func (s *Seeder) seedCurriculum(ctx context.Context) error {
	count, err := s.courses.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("catalog already populated, skipping curriculum seed", "courses", count)
		return nil
	}

	now := time.Now()
	courses := Curriculum()
	for i := range courses {
		courses[i].UpdatedAt = now
		if err := s.courses.Upsert(ctx, &courses[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", courses[i].Code, err)
		}
	}

	s.logger.Info("curriculum seeded", "courses", len(courses))
	return nil
}

func (s *Seeder) seedStudents(ctx context.Context) error {
	count, err := s.students.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("students already present, skipping demo student seed", "students", count)
		return nil
	}

	// One bcrypt round serves all three; demo accounts share a password.
	hash, err := secrets.Hash(demoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now()
	for _, d := range demoStudents() {
		student, err := studentmodels.NewStudent(d.id, d.email, hash, d.name, d.studentType, d.curriculumYear, now)
		if err != nil {
			return fmt.Errorf("build %s: %w", d.email, err)
		}
		student.ExtraCurricularUnits = d.extraCurricular

		if err := s.students.Create(ctx, student); err != nil {
			return fmt.Errorf("create %s: %w", d.email, err)
		}
		if len(d.completed) > 0 {
			if err := s.students.ReplaceCourses(ctx, student.ID, d.completed); err != nil {
				return fmt.Errorf("record courses for %s: %w", d.email, err)
			}
		}

		s.logger.Info("demo student seeded",
			"email", d.email,
			"completed_courses", len(d.completed),
		)
	}

	return nil
}

type demoStudent struct {
	id              id.StudentID
	email           string
	name            string
	studentType     id.StudentType
	curriculumYear  string
	extraCurricular int
	completed       []studentmodels.CompletedCourse
}

// demoStudents returns three accounts at distinct points in their degree:
// a senior who meets every requirement, a junior midway through, and a
// transfer student who has just arrived.
func demoStudents() []demoStudent {
	return []demoStudent{
		{
			id:              id.StudentID(uuid.MustParse("9f1b2a58-0000-4000-8000-000000000001")),
			email:           "alice@university.edu",
			name:            "Alice Kim",
			studentType:     id.StudentTypeFreshman,
			curriculumYear:  "2022",
			extraCurricular: 82,
			completed:       completeAllExcept("CS370"),
		},
		{
			id:              id.StudentID(uuid.MustParse("9f1b2a58-0000-4000-8000-000000000002")),
			email:           "bob@university.edu",
			name:            "Bob Park",
			studentType:     id.StudentTypeFreshman,
			curriculumYear:  "2023",
			extraCurricular: 41,
			completed: completeOnly(
				"CS101", "CS102", "CS201", "CS202", "CS210", "CS220", "CS230",
				"MA101", "MA102", "MA201",
				"EN101", "EN102", "HU110", "SO110", "PE100",
				"GE101", "GE110",
			),
		},
		{
			id:              id.StudentID(uuid.MustParse("9f1b2a58-0000-4000-8000-000000000003")),
			email:           "carol@university.edu",
			name:            "Carol Lee",
			studentType:     id.StudentTypeTransfer,
			curriculumYear:  "2024",
			extraCurricular: 12,
			completed: completeOnly(
				"CS101", "CS102", "MA101", "EN101", "GE101",
			),
		},
	}
}

// completeOnly builds course records for the named codes with rotating
// passing grades.
func completeOnly(codes ...string) []studentmodels.CompletedCourse {
	grades := []id.Grade{id.GradeA, id.GradeBPlus, id.GradeAPlus, id.GradeB, id.GradeA}
	records := make([]studentmodels.CompletedCourse, 0, len(codes))
	for i, code := range codes {
		records = append(records, studentmodels.CompletedCourse{
			Code:  id.CourseCode(code),
			Grade: grades[i%len(grades)],
		})
	}
	return records
}

// completeAllExcept builds course records for the whole curriculum minus
// the named codes.
func completeAllExcept(skip ...string) []studentmodels.CompletedCourse {
	skipped := make(map[string]struct{}, len(skip))
	for _, code := range skip {
		skipped[code] = struct{}{}
	}

	var codes []string
	for _, course := range Curriculum() {
		if _, ok := skipped[course.Code.String()]; ok {
			continue
		}
		codes = append(codes, course.Code.String())
	}
	return completeOnly(codes...)
}
