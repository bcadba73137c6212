package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Category operations

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: FieldName, Message: "category name is required"}
	}

	category := &Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.now(),
	}

	if err := s.repo.PutCategory(ctx, category); err != nil {
		s.logger.Error("failed to create category", "category_id", category.ID, "error", err)
		return nil, err
	}

	if err := s.record(ctx, EntityCategory, category.ID, ActionCreate, req.ActorID); err != nil {
		return nil, err
	}

	s.logger.Info("category created", "category_id", category.ID, "actor_id", req.ActorID)
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	categories, err := Collect(s.repo.ScanCategories(ctx, CategoryQuery{}))
	if err != nil {
		return nil, err
	}
	sortCategories(categories)
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*Category, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	patch := req.Patch
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &ValidationError{Field: FieldName, Message: "category name is required"}
		}
		patch.Name = &name
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}

	current, err := s.repo.GetCategory(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updated := current
	if !patch.IsEmpty() {
		updated, err = s.repo.PatchCategory(ctx, req.ID, patch)
		if err != nil {
			s.logger.Error("failed to update category", "category_id", req.ID, "error", err)
			return nil, err
		}
	}

	if err := s.record(ctx, EntityCategory, req.ID, ActionUpdate, req.ActorID); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCategory removes a category only when no active product references
// it. The count and the delete are not atomic: a product created in between
// can end up referencing a removed category.
func (s *service) DeleteCategory(ctx context.Context, req DeleteCategoryRequest) error {
	if err := requireActor(req.ActorID); err != nil {
		return err
	}
	if _, err := s.repo.GetCategory(ctx, req.ID); err != nil {
		return err
	}

	count := 0
	for _, err := range s.repo.ScanProducts(ctx, ProductQuery{Scope: ScopeActive, CategoryID: req.ID}) {
		if err != nil {
			return err
		}
		count++
	}
	if count > 0 {
		s.logger.Info("category deletion blocked", "category_id", req.ID, "product_count", count)
		return blockedDeletion(req.ID, count)
	}

	if err := s.repo.DeleteCategory(ctx, req.ID); err != nil {
		s.logger.Error("failed to delete category", "category_id", req.ID, "error", err)
		return err
	}

	if err := s.record(ctx, EntityCategory, req.ID, ActionDelete, req.ActorID); err != nil {
		return err
	}

	s.logger.Info("category deleted", "category_id", req.ID, "actor_id", req.ActorID)
	return nil
}
