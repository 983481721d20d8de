package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

func newTestCategoryService(t *testing.T) (*CategoryService, *memTaskRepo, uuid.UUID) {
	t.Helper()
	tasks := newMemTaskRepo()
	svc := NewCategoryService(newMemCategoryRepo(), tasks, zap.NewNop())
	return svc, tasks, uuid.New()
}

func TestCreateCategoryDefaultsColor(t *testing.T) {
	svc, _, owner := newTestCategoryService(t)

	category, err := svc.Create(context.Background(), owner, CreateCategoryRequest{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, "#3B82F6", category.Color)
	assert.True(t, category.IsActive)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	svc, _, owner := newTestCategoryService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, CreateCategoryRequest{Name: "Work"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner, CreateCategoryRequest{Name: "work"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	// A different owner may reuse the name.
	_, err = svc.Create(ctx, uuid.New(), CreateCategoryRequest{Name: "Work"})
	assert.NoError(t, err)
}

func TestCategoryScopedToOwner(t *testing.T) {
	svc, _, owner := newTestCategoryService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, owner, CreateCategoryRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDeleteCategoryDetachesTasks(t *testing.T) {
	svc, tasks, owner := newTestCategoryService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, owner, CreateCategoryRequest{Name: "Chores"})
	require.NoError(t, err)

	taskID := uuid.New()
	require.NoError(t, tasks.Create(ctx, &domain.Task{
		ID:         taskID,
		Title:      "mop the floor",
		Status:     domain.TaskStatusTodo,
		CategoryID: &category.ID,
		CreatedBy:  owner,
	}))

	require.NoError(t, svc.Delete(ctx, owner, category.ID))

	_, err = svc.Get(ctx, owner, category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	detached, err := tasks.GetByID(ctx, taskID)
	require.NoError(t, err)
	assert.Nil(t, detached.CategoryID)
}

func TestReorderRejectsForeignIDs(t *testing.T) {
	svc, _, owner := newTestCategoryService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, owner, CreateCategoryRequest{Name: "One"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, CreateCategoryRequest{Name: "Two"})
	require.NoError(t, err)

	err = svc.Reorder(ctx, owner, ReorderRequest{Orders: []repository.CategoryOrder{
		{ID: first.ID, SortOrder: 1},
		{ID: second.ID, SortOrder: 0},
	}})
	assert.NoError(t, err)

	err = svc.Reorder(ctx, owner, ReorderRequest{Orders: []repository.CategoryOrder{
		{ID: first.ID, SortOrder: 0},
		{ID: uuid.New(), SortOrder: 1},
	}})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
