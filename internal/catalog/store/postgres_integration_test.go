//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gradus/internal/catalog/models"
	"gradus/internal/catalog/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "courses"))
}

func (s *PostgresStoreSuite) course(code id.CourseCode, name string, category models.Category, stage models.Stage, required bool) *models.Course {
	return &models.Course{
		Code:      code,
		Name:      name,
		Credit:    3,
		Category:  category,
		Stage:     stage,
		Required:  required,
		Source:    models.SourceAdmin,
		UpdatedAt: time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) seed(ctx context.Context) {
	courses := []*models.Course{
		s.course("CS101", "Introduction to Programming", models.CategoryMajor, models.StageBasic, true),
		s.course("CS204", "Algorithms", models.CategoryMajor, models.StageAdvanced, true),
		s.course("CS301", "Compilers", models.CategoryMajor, models.StageAdvanced, false),
		s.course("LA101", "Academic Writing", models.CategoryLiberal, models.StageBasic, true),
		s.course("GE150", "History of Science", models.CategoryGeneral, models.StageBasic, false),
	}
	for _, c := range courses {
		s.Require().NoError(s.store.Create(ctx, c))
	}
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	ctx := context.Background()

	course := s.course("CS101", "Introduction to Programming", models.CategoryMajor, models.StageBasic, true)
	course.Credit = 4
	s.Require().NoError(s.store.Create(ctx, course))

	found, err := s.store.GetByCode(ctx, "CS101")
	s.Require().NoError(err)
	s.Equal(course.Code, found.Code)
	s.Equal(course.Name, found.Name)
	s.Equal(4, found.Credit)
	s.Equal(models.CategoryMajor, found.Category)
	s.Equal(models.StageBasic, found.Stage)
	s.True(found.Required)
	s.Equal(models.SourceAdmin, found.Source)
	s.WithinDuration(course.UpdatedAt, found.UpdatedAt, time.Second)
}

func (s *PostgresStoreSuite) TestGetByCode_NotFound() {
	_, err := s.store.GetByCode(context.Background(), "NOPE101")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreate_DuplicateCode() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.course("CS101", "Intro", models.CategoryMajor, models.StageBasic, false)))

	err := s.store.Create(ctx, s.course("CS101", "Intro Again", models.CategoryMajor, models.StageBasic, false))
	s.ErrorIs(err, store.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestConcurrentCreateConflict() {
	ctx := context.Background()

	result := testutil.RunConcurrent(20, func(_ int) error {
		return s.store.Create(ctx, s.course("CS101", "Intro", models.CategoryMajor, models.StageBasic, false))
	})

	s.Equal(int32(1), result.Successes, "exactly one create should win the unique constraint")
	s.Equal(int32(19), result.Conflicts)
}

func (s *PostgresStoreSuite) TestGetByCodes() {
	ctx := context.Background()
	s.seed(ctx)

	courses, err := s.store.GetByCodes(ctx, []id.CourseCode{"CS204", "NOPE101", "CS101"})
	s.Require().NoError(err)
	s.Require().Len(courses, 2)
	s.Equal(id.CourseCode("CS101"), courses[0].Code)
	s.Equal(id.CourseCode("CS204"), courses[1].Code)

	empty, err := s.store.GetByCodes(ctx, nil)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestListRequired() {
	ctx := context.Background()
	s.seed(ctx)

	required, err := s.store.ListRequired(ctx)
	s.Require().NoError(err)
	s.Require().Len(required, 3)
	s.Equal(id.CourseCode("CS101"), required[0].Code)
	s.Equal(id.CourseCode("CS204"), required[1].Code)
	s.Equal(id.CourseCode("LA101"), required[2].Code)
	for _, c := range required {
		s.True(c.Required)
	}
}

func (s *PostgresStoreSuite) TestSearch() {
	ctx := context.Background()
	s.seed(ctx)

	s.Run("query matches code prefix case-insensitively", func() {
		courses, err := s.store.Search(ctx, models.SearchFilter{Query: "cs2"})
		s.Require().NoError(err)
		s.Require().Len(courses, 1)
		s.Equal(id.CourseCode("CS204"), courses[0].Code)
	})

	s.Run("query matches name substring case-insensitively", func() {
		courses, err := s.store.Search(ctx, models.SearchFilter{Query: "ALGORITH"})
		s.Require().NoError(err)
		s.Require().Len(courses, 1)
		s.Equal(id.CourseCode("CS204"), courses[0].Code)
	})

	s.Run("category and required filters combine", func() {
		category := models.CategoryMajor
		required := true
		courses, err := s.store.Search(ctx, models.SearchFilter{Category: &category, Required: &required})
		s.Require().NoError(err)
		s.Require().Len(courses, 2)
	})

	s.Run("stage filter", func() {
		stage := models.StageAdvanced
		courses, err := s.store.Search(ctx, models.SearchFilter{Stage: &stage})
		s.Require().NoError(err)
		s.Require().Len(courses, 2)
	})

	s.Run("pagination is stable by code", func() {
		page1, err := s.store.Search(ctx, models.SearchFilter{Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(page1, 2)
		s.Equal(id.CourseCode("CS101"), page1[0].Code)

		page2, err := s.store.Search(ctx, models.SearchFilter{Limit: 2, Offset: 2})
		s.Require().NoError(err)
		s.Require().Len(page2, 2)
		s.Equal(id.CourseCode("CS301"), page2[0].Code)

		beyond, err := s.store.Search(ctx, models.SearchFilter{Limit: 2, Offset: 10})
		s.Require().NoError(err)
		s.Empty(beyond)
	})
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("replaces existing course", func() {
		s.Require().NoError(s.store.Create(ctx, s.course("CS101", "Old Name", models.CategoryMajor, models.StageBasic, false)))

		updated := s.course("CS101", "New Name", models.CategoryMajor, models.StageAdvanced, true)
		updated.Credit = 5
		s.Require().NoError(s.store.Update(ctx, updated))

		found, err := s.store.GetByCode(ctx, "CS101")
		s.Require().NoError(err)
		s.Equal("New Name", found.Name)
		s.Equal(5, found.Credit)
		s.Equal(models.StageAdvanced, found.Stage)
		s.True(found.Required)
	})

	s.Run("returns ErrNotFound for unknown code", func() {
		err := s.store.Update(ctx, s.course("NOPE101", "Nope", models.CategoryMajor, models.StageBasic, false))
		s.ErrorIs(err, store.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestUpsert() {
	ctx := context.Background()

	s.Require().NoError(s.store.Upsert(ctx, s.course("CS101", "First", models.CategoryMajor, models.StageBasic, false)))
	s.Require().NoError(s.store.Upsert(ctx, s.course("CS101", "Second", models.CategoryLiberal, models.StageAdvanced, true)))

	found, err := s.store.GetByCode(ctx, "CS101")
	s.Require().NoError(err)
	s.Equal("Second", found.Name)
	s.Equal(models.CategoryLiberal, found.Category)
	s.True(found.Required)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestConcurrentUpsert() {
	ctx := context.Background()

	result := testutil.RunConcurrent(20, func(idx int) error {
		course := s.course("CS101", "Concurrent", models.CategoryMajor, models.StageBasic, idx%2 == 0)
		return s.store.Upsert(ctx, course)
	})

	s.Equal(int32(20), result.Successes, "upserts should never conflict")

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()

	s.Run("removes existing course", func() {
		s.Require().NoError(s.store.Create(ctx, s.course("CS101", "Intro", models.CategoryMajor, models.StageBasic, false)))
		s.Require().NoError(s.store.Delete(ctx, "CS101"))

		_, err := s.store.GetByCode(ctx, "CS101")
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown code", func() {
		s.ErrorIs(s.store.Delete(ctx, "NOPE101"), store.ErrNotFound)
	})
}
