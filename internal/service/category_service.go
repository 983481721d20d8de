package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category with this name already exists")
	ErrNotCategoryOwner = errors.New("category belongs to another user")
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	taskRepo     repository.TaskRepository
	logger       *zap.Logger
}

func NewCategoryService(categoryRepo repository.CategoryRepository, taskRepo repository.TaskRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, taskRepo: taskRepo, logger: logger}
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"omitempty,max=200"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Icon        string `json:"icon" validate:"omitempty,max=50"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

func (s *CategoryService) Create(ctx context.Context, ownerID uuid.UUID, req CreateCategoryRequest) (*domain.Category, error) {
	color := req.Color
	if color == "" {
		color = "#3B82F6"
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
		Icon:        req.Icon,
		CreatedBy:   ownerID,
		IsActive:    true,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category.CreatedBy != ownerID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
	SortOrder   *int    `json:"sortOrder" validate:"omitempty,gte=0"`
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateCategoryRequest) (*domain.Category, error) {
	category, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// Delete soft-deletes a category and detaches it from its tasks. The tasks
// themselves are kept.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.categoryRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := s.taskRepo.ClearCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}

	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

type ReorderRequest struct {
	Orders []repository.CategoryOrder `json:"categoryOrders" validate:"required,min=1,dive"`
}

// Reorder applies new sort orders in one transaction. It fails when any id
// does not resolve to an active category owned by the caller.
func (s *CategoryService) Reorder(ctx context.Context, ownerID uuid.UUID, req ReorderRequest) error {
	matched, err := s.categoryRepo.Reorder(ctx, ownerID, req.Orders)
	if err != nil {
		return fmt.Errorf("failed to reorder categories: %w", err)
	}
	if matched != int64(len(req.Orders)) {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *CategoryService) Stats(ctx context.Context, ownerID uuid.UUID) ([]*repository.CategoryStat, error) {
	stats, err := s.categoryRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	return stats, nil
}
