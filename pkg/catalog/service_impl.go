package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// service implements the Service interface
type service struct {
	repo         Repository
	audit        *AuditLog
	logger       *slog.Logger
	now          func() time.Time
	passwordCost int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for creation and audit timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithPasswordCost sets the bcrypt cost used when hashing passwords
func WithPasswordCost(cost int) Option {
	return func(s *service) {
		s.passwordCost = cost
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now:          func() time.Time { return time.Now().UTC() },
		passwordCost: bcrypt.DefaultCost,
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.audit = NewAuditLog(s.repo)
	s.audit.now = s.now

	return s, nil
}

// Product operations

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: FieldName, Message: "product name is required"}
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if req.CategoryID != "" {
		if err := s.requireCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}

	product := &Product{
		ID:         uuid.NewString(),
		Name:       name,
		Price:      req.Price,
		Quantity:   req.Quantity,
		CategoryID: req.CategoryID,
		Image:      req.Image,
		Status:     ProductStatusActive,
		CreatedAt:  s.now(),
	}

	if err := s.repo.PutProduct(ctx, product); err != nil {
		s.logger.Error("failed to create product", "product_id", product.ID, "error", err)
		return nil, err
	}

	if err := s.record(ctx, EntityProduct, product.ID, ActionCreate, req.ActorID); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "actor_id", req.ActorID)
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id, ScopeActive)
}

func (s *service) UpdateProduct(ctx context.Context, req UpdateProductRequest) (*Product, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	patch, err := normalizeProductPatch(req.Patch)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetProduct(ctx, req.ID, ScopeActive)
	if err != nil {
		return nil, err
	}

	if patch.CategoryID != nil && *patch.CategoryID != "" && *patch.CategoryID != current.CategoryID {
		if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	updated := current
	if !patch.IsEmpty() {
		updated, err = s.repo.PatchProduct(ctx, req.ID, patch)
		if err != nil {
			s.logger.Error("failed to update product", "product_id", req.ID, "fields", patch.Fields(), "error", err)
			return nil, err
		}
	}

	if err := s.record(ctx, EntityProduct, req.ID, ActionUpdate, req.ActorID); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", "product_id", req.ID, "fields", patch.Fields(), "actor_id", req.ActorID)
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, req DeleteProductRequest) (*Product, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, req.ID, ScopeActive); err != nil {
		return nil, err
	}

	deleted, err := s.repo.SoftDeleteProduct(ctx, req.ID)
	if err != nil {
		s.logger.Error("failed to delete product", "product_id", req.ID, "error", err)
		return nil, err
	}

	if err := s.record(ctx, EntityProduct, req.ID, ActionDelete, req.ActorID); err != nil {
		return nil, err
	}

	s.logger.Info("product deleted", "product_id", req.ID, "actor_id", req.ActorID)
	return deleted, nil
}

func (s *service) PurgeProduct(ctx context.Context, req DeleteProductRequest) (*Product, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, req.ID, ScopeAll)
	if err != nil {
		return nil, err
	}

	if err := s.repo.HardDeleteProduct(ctx, req.ID); err != nil {
		s.logger.Error("failed to purge product", "product_id", req.ID, "error", err)
		return nil, err
	}

	if err := s.record(ctx, EntityProduct, req.ID, ActionDelete, req.ActorID); err != nil {
		return nil, err
	}

	s.logger.Warn("product purged", "product_id", req.ID, "actor_id", req.ActorID)
	return product, nil
}

// record appends an audit entry for a committed mutation. A failure is
// surfaced: the mutation has committed but the trail is incomplete.
func (s *service) record(ctx context.Context, entity Entity, subjectID string, action Action, actorID string) error {
	if _, err := s.audit.Append(ctx, entity, subjectID, action, actorID); err != nil {
		s.logger.Error("failed to append audit entry",
			"entity", entity, "subject_id", subjectID, "action", action, "actor_id", actorID, "error", err)
		return err
	}
	return nil
}

// requireCategory reports a missing category as a validation failure of the
// referencing record.
func (s *service) requireCategory(ctx context.Context, categoryID string) error {
	_, err := s.repo.GetCategory(ctx, categoryID)
	if errors.Is(err, ErrNotFound) {
		return &ValidationError{Field: FieldCategoryID, Message: "category not found"}
	}
	return err
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return &ValidationError{Field: "actorId", Message: "actor is required"}
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return &ValidationError{Field: FieldPrice, Message: "price must be a non-negative number"}
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return &ValidationError{Field: FieldQuantity, Message: "quantity must be a non-negative integer"}
	}
	return nil
}

// normalizeProductPatch trims and validates the supplied fields, returning a
// copy so the caller's patch is left untouched.
func normalizeProductPatch(patch ProductPatch) (ProductPatch, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return patch, &ValidationError{Field: FieldName, Message: "product name is required"}
		}
		patch.Name = &name
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return patch, err
		}
	}
	if patch.Quantity != nil {
		if err := validateQuantity(*patch.Quantity); err != nil {
			return patch, err
		}
	}
	return patch, nil
}
