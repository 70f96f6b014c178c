package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"user-service/internal/adapter/events"
	domain "user-service/internal/domain/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., MongoDB, a cached decorator) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                     // Persist a new user, returns the stored record
	GetByID(ctx context.Context, id string) (*domain.User, error)                         // Retrieve user by ID
	GetByEmail(ctx context.Context, email string) (*domain.User, error)                   // Retrieve user by normalized email, nil when absent
	GetByEmailExcludingID(ctx context.Context, email, id string) (*domain.User, error)    // Same, ignoring the record with the given ID
	Update(ctx context.Context, u *domain.User) (*domain.User, error)                     // Replace the editable fields, returns the updated record
	Delete(ctx context.Context, id string) error                                          // Delete user by ID
	List(ctx context.Context) ([]domain.User, error)                                      // List all users
}

// Service implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository          // Repository for data access
	events   events.Publisher    // Publisher for user lifecycle events
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Service with the provided repository,
// event publisher, and logger.
func New(r Repository, ev events.Publisher, log *zap.Logger) *Service {
	return &Service{repo: r, events: ev, log: log, validate: newValidator()}
}

func toDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		JobTitle:  u.JobTitle,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUser creates a new user after validating the request and checking
// email uniqueness. The email is normalized before any rule runs, so the
// value validated, checked and stored is the canonical one.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	in.Email = domain.NormalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("create user validation failed", zap.Error(err))
		return nil, toValidationError(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		log.Warn("email already exists", zap.String("email", in.Email))
		return nil, pkgerrors.NewAlreadyExistsError("user", "user with this email already exists")
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Name:     in.Name,
		Surname:  in.Surname,
		Email:    in.Email,
		JobTitle: in.JobTitle,
	})
	if err != nil {
		log.Error("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	s.events.UserCreated(ctx, created)

	log.Info("user created", zap.String("id", created.ID), zap.String("email", created.Email))
	return &CreateUserResponse{User: toDTO(created)}, nil
}

// UpdateUser replaces the four editable fields of an existing user after
// validating the request and checking email uniqueness against every other
// record. Updating a user to its own current email is allowed.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	in.Email = domain.NormalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("update user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, toValidationError(err)
	}

	existing, err := s.repo.GetByEmailExcludingID(ctx, in.Email, in.ID)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		log.Warn("email already exists", zap.String("email", in.Email), zap.String("existing_id", existing.ID))
		return nil, pkgerrors.NewAlreadyExistsError("user", "user with this email already exists")
	}

	updated, err := s.repo.Update(ctx, &domain.User{
		ID:       in.ID,
		Name:     in.Name,
		Surname:  in.Surname,
		Email:    in.Email,
		JobTitle: in.JobTitle,
	})
	if err != nil {
		var nf *pkgerrors.NotFoundError
		if errors.As(err, &nf) {
			log.Warn("user not found for update", zap.String("id", in.ID))
		} else {
			log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	s.events.UserUpdated(ctx, updated)

	log.Info("user updated", zap.String("id", updated.ID), zap.String("email", updated.Email))
	return &UpdateUserResponse{User: toDTO(updated)}, nil
}

// DeleteUser deletes a user by ID.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	if err := s.repo.Delete(ctx, in.ID); err != nil {
		var nf *pkgerrors.NotFoundError
		if errors.As(err, &nf) {
			log.Warn("user not found for delete", zap.String("id", in.ID))
		} else {
			log.Error("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	s.events.UserDeleted(ctx, in.ID)

	log.Info("user deleted", zap.String("id", in.ID))
	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		var nf *pkgerrors.NotFoundError
		if errors.As(err, &nf) {
			log.Warn("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// ListUsers retrieves all users.
func (s *Service) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, s.log)

	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = toDTO(&du)
	}

	return &ListUsersResponse{Users: users}, nil
}
