package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	// bcrypt rejects longer inputs
	maxPasswordLength = 72
)

// User operations

// RegisterUser creates a user with a bcrypt-hashed password. The username is
// checked up front for a friendly error; the repository's conditional create
// closes the race between two concurrent registrations.
func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLength {
		return nil, &ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	if len(req.Password) > maxPasswordLength {
		return nil, &ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	role := req.Role
	if role == "" {
		role = RoleStaff
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: FieldRole, Message: "unknown role " + string(role)}
	}

	existing, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Entity: EntityUser, ID: username, Reason: "username already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.passwordCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.logger.Error("failed to create user", "username", username, "error", err)
		return nil, err
	}

	actorID := req.ActorID
	if actorID == "" {
		actorID = user.ID
	}
	if err := s.record(ctx, EntityUser, user.ID, ActionCreate, actorID); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", role)
	return user, nil
}

// Authenticate verifies a username and password. Unknown users and wrong
// passwords yield the same ErrInvalidCredentials.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.findUser(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Info("login attempt with unknown username", "username", username)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Error("failed to compare password hash", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *service) ChangeUserRole(ctx context.Context, req ChangeUserRoleRequest) (*User, error) {
	if err := requireActor(req.ActorID); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, &ValidationError{Field: FieldRole, Message: "unknown role " + string(req.Role)}
	}
	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	role := req.Role
	updated, err := s.repo.PatchUser(ctx, req.UserID, UserPatch{Role: &role})
	if err != nil {
		return nil, err
	}

	if err := s.record(ctx, EntityUser, req.UserID, ActionUpdate, req.ActorID); err != nil {
		return nil, err
	}
	return updated, nil
}

// findUser returns the user with the exact username, or nil.
func (s *service) findUser(ctx context.Context, username string) (*User, error) {
	for user, err := range s.repo.ScanUsers(ctx, UserQuery{Username: username}) {
		if err != nil {
			return nil, err
		}
		return user, nil
	}
	return nil, nil
}

// Audit inspection

func (s *service) History(ctx context.Context, subjectID string) ([]*LogEntry, error) {
	return s.audit.QueryBySubject(ctx, subjectID)
}

func (s *service) ActorHistory(ctx context.Context, actorID string) ([]*LogEntry, error) {
	return s.audit.QueryByActor(ctx, actorID)
}
