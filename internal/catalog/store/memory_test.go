package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

func makeCourse(code id.CourseCode, name string, category models.Category, stage models.Stage, required bool) *models.Course {
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

func seedCourses(t *testing.T, s *InMemory) {
	t.Helper()
	ctx := context.Background()
	courses := []*models.Course{
		makeCourse("CS101", "Introduction to Programming", models.CategoryMajor, models.StageBasic, true),
		makeCourse("CS204", "Algorithms", models.CategoryMajor, models.StageAdvanced, true),
		makeCourse("CS301", "Compilers", models.CategoryMajor, models.StageAdvanced, false),
		makeCourse("LA101", "Academic Writing", models.CategoryLiberal, models.StageBasic, true),
		makeCourse("GE150", "History of Science", models.CategoryGeneral, models.StageBasic, false),
	}
	for _, c := range courses {
		require.NoError(t, s.Create(ctx, c))
	}
}

func TestCreate_Success(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	course := makeCourse("CS101", "Introduction to Programming", models.CategoryMajor, models.StageBasic, true)
	require.NoError(t, s.Create(ctx, course))

	found, err := s.GetByCode(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, course.Name, found.Name)
	assert.Equal(t, course.Category, found.Category)
	assert.True(t, found.Required)
}

func TestCreate_DuplicateCodeReturnsError(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, makeCourse("CS101", "Intro", models.CategoryMajor, models.StageBasic, false)))

	err := s.Create(ctx, makeCourse("CS101", "Intro Again", models.CategoryMajor, models.StageBasic, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetByCode_NotFound(t *testing.T) {
	s := NewInMemory()

	_, err := s.GetByCode(context.Background(), "NOPE101")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByCodes(t *testing.T) {
	s := NewInMemory()
	seedCourses(t, s)
	ctx := context.Background()

	t.Run("omits unknown codes", func(t *testing.T) {
		courses, err := s.GetByCodes(ctx, []id.CourseCode{"CS204", "NOPE101", "CS101"})
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, id.CourseCode("CS101"), courses[0].Code)
		assert.Equal(t, id.CourseCode("CS204"), courses[1].Code)
	})

	t.Run("deduplicates input codes", func(t *testing.T) {
		courses, err := s.GetByCodes(ctx, []id.CourseCode{"CS101", "CS101", "CS101"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		courses, err := s.GetByCodes(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, courses)
	})
}

func TestListRequired(t *testing.T) {
	s := NewInMemory()
	seedCourses(t, s)

	required, err := s.ListRequired(context.Background())
	require.NoError(t, err)
	require.Len(t, required, 3)
	assert.Equal(t, id.CourseCode("CS101"), required[0].Code)
	assert.Equal(t, id.CourseCode("CS204"), required[1].Code)
	assert.Equal(t, id.CourseCode("LA101"), required[2].Code)
}

func TestSearch(t *testing.T) {
	s := NewInMemory()
	seedCourses(t, s)
	ctx := context.Background()

	t.Run("no filter returns everything ordered by code", func(t *testing.T) {
		courses, err := s.Search(ctx, models.SearchFilter{})
		require.NoError(t, err)
		require.Len(t, courses, 5)
		assert.Equal(t, id.CourseCode("CS101"), courses[0].Code)
		assert.Equal(t, id.CourseCode("LA101"), courses[4].Code)
	})

	t.Run("query matches code prefix case-insensitively", func(t *testing.T) {
		courses, err := s.Search(ctx, models.SearchFilter{Query: "cs2"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, id.CourseCode("CS204"), courses[0].Code)
	})

	t.Run("query matches name substring", func(t *testing.T) {
		courses, err := s.Search(ctx, models.SearchFilter{Query: "gorith"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, id.CourseCode("CS204"), courses[0].Code)
	})

	t.Run("filters combine conjunctively", func(t *testing.T) {
		category := models.CategoryMajor
		required := true
		courses, err := s.Search(ctx, models.SearchFilter{Category: &category, Required: &required})
		require.NoError(t, err)
		require.Len(t, courses, 2)
	})

	t.Run("stage filter", func(t *testing.T) {
		stage := models.StageAdvanced
		courses, err := s.Search(ctx, models.SearchFilter{Stage: &stage})
		require.NoError(t, err)
		require.Len(t, courses, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, err := s.Search(ctx, models.SearchFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := s.Search(ctx, models.SearchFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].Code, page2[0].Code)

		beyond, err := s.Search(ctx, models.SearchFilter{Limit: 2, Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, beyond)
	})
}

func TestUpdate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	t.Run("replaces existing course", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, makeCourse("CS101", "Old Name", models.CategoryMajor, models.StageBasic, false)))

		updated := makeCourse("CS101", "New Name", models.CategoryMajor, models.StageBasic, true)
		require.NoError(t, s.Update(ctx, updated))

		found, err := s.GetByCode(ctx, "CS101")
		require.NoError(t, err)
		assert.Equal(t, "New Name", found.Name)
		assert.True(t, found.Required)
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		err := s.Update(ctx, makeCourse("NOPE101", "Nope", models.CategoryMajor, models.StageBasic, false))
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpsert(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, makeCourse("CS101", "First", models.CategoryMajor, models.StageBasic, false)))
	require.NoError(t, s.Upsert(ctx, makeCourse("CS101", "Second", models.CategoryMajor, models.StageBasic, true)))

	found, err := s.GetByCode(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Second", found.Name)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	t.Run("removes existing course", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, makeCourse("CS101", "Intro", models.CategoryMajor, models.StageBasic, false)))
		require.NoError(t, s.Delete(ctx, "CS101"))

		_, err := s.GetByCode(ctx, "CS101")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		require.ErrorIs(t, s.Delete(ctx, "NOPE101"), ErrNotFound)
	})
}

func TestGetByCode_ReturnsCopy(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, makeCourse("CS101", "Intro", models.CategoryMajor, models.StageBasic, false)))

	first, err := s.GetByCode(ctx, "CS101")
	require.NoError(t, err)
	first.Name = "Mutated"

	second, err := s.GetByCode(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Intro", second.Name)
}
