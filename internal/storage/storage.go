// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/good-yellow-bee/subhub/internal/models"
)

// ErrDuplicateName is returned when an insert or rename hits the
// store-level unique constraint on a natural key. The constraint is the
// authoritative uniqueness guard; handler-side pre-checks are only a
// fast path.
var ErrDuplicateName = errors.New("duplicate name")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureAdminUser creates a default verified admin if no users exist.
	EnsureAdminUser() error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Episodes() EpisodeRepository
	Tokens() TokenRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetVerified(ctx context.Context, id string, verified bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project management.
//
// UpdateByName and DeleteByName are atomic find-and-modify operations
// keyed by the project's natural key; both return the affected record,
// or (nil, nil) when no project matched.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	UpdateByName(ctx context.Context, name string, upd *models.ProjectUpdate) (*models.Project, error)
	DeleteByName(ctx context.Context, name string) (*models.Project, error)
}

// EpisodeRepository defines operations for episode management.
// Episodes are addressed by (project, number).
type EpisodeRepository interface {
	Create(ctx context.Context, episode *models.Episode) error
	GetByNumber(ctx context.Context, projectID string, number int) (*models.Episode, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Episode, error)
	UpdateByNumber(ctx context.Context, projectID string, number int, upd *models.EpisodeUpdate) (*models.Episode, error)
	DeleteByNumber(ctx context.Context, projectID string, number int) (*models.Episode, error)
}

// TokenRepository defines operations for refresh token management.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
