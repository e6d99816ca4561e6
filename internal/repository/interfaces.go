package repository

import (
	"context"
	"time"

	"dao-tracker-backend/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mode identifies which backing store the process runs on. It is decided
// once at startup by the connection probe and never changes afterwards.
type Mode string

const (
	ModeMemory   Mode = "memory"
	ModeDatabase Mode = "database"
)

// ListFilter carries the recognized query options of the dossier list
// endpoint. Zero values mean "not filtered".
type ListFilter struct {
	Search   string
	Autorite string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// Normalize applies defaults and caps. Default sort is updatedAt desc;
// pageSize is capped at 100.
func (f *ListFilter) Normalize() {
	if f.Sort == "" {
		f.Sort = "updatedAt"
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// DaoUpdate is a partial update of a dossier. Nil fields are left
// untouched; the repository always refreshes updatedAt.
type DaoUpdate struct {
	ObjetDossier         *string
	Reference            *string
	AutoriteContractante *string
	DateDepot            *time.Time
	Equipe               *[]models.TeamMember
	Tasks                *[]models.Task
}

// DaoRepository is the dual-mode persistence gateway for dossiers.
type DaoRepository interface {
	// List returns the filtered page and the filtered-but-unpaginated total.
	List(ctx context.Context, filter ListFilter) ([]models.Dao, int64, error)
	// GetByID returns nil (not an error) when the id does not exist.
	GetByID(ctx context.Context, id string) (*models.Dao, error)
	// Create persists a fully assembled dossier. A numeroListe collision
	// surfaces ErrDaoNumberExists for the caller's retry loop.
	Create(ctx context.Context, dao *models.Dao) error
	// Update merges the partial update and returns the stored entity,
	// or nil when the id does not exist.
	Update(ctx context.Context, id string, update DaoUpdate) (*models.Dao, error)
	// Delete reports whether anything was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteAll empties the collection. Administrative reset only.
	DeleteAll(ctx context.Context) error
	// MaxSequence returns the highest persisted sequence for the year,
	// 0 when the year has no dossiers.
	MaxSequence(ctx context.Context, year int) (int, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail matches case-insensitively; returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// SetActive soft-deletes (or restores) a user.
	SetActive(ctx context.Context, id string, active bool) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteAll(ctx context.Context) error
}

// CredentialRepository stores password hashes in a side table.
type CredentialRepository interface {
	Upsert(ctx context.Context, cred *models.Credential) error
	GetByUserID(ctx context.Context, userID string) (*models.Credential, error)
	DeleteAll(ctx context.Context) error
}

// CommentRepository persists task comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByTask(ctx context.Context, daoID string, taskID int) ([]models.Comment, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) error
}

// Stores bundles every repository behind the mode decided at startup.
type Stores struct {
	Mode        Mode
	Daos        DaoRepository
	Users       UserRepository
	Credentials CredentialRepository
	Comments    CommentRepository
}

// New selects the storage mode from the probe result: a non-nil database
// runs everything on Mongo, a nil one on the in-memory stores.
func New(db *mongo.Database) *Stores {
	if db == nil {
		return NewMemoryStores()
	}
	return &Stores{
		Mode:        ModeDatabase,
		Daos:        NewMongoDaoRepository(db),
		Users:       NewMongoUserRepository(db),
		Credentials: NewMongoCredentialRepository(db),
		Comments:    NewMongoCommentRepository(db),
	}
}

// NewMemoryStores builds the in-memory variant. Also used by tests.
func NewMemoryStores() *Stores {
	return &Stores{
		Mode:        ModeMemory,
		Daos:        NewMemoryDaoRepository(),
		Users:       NewMemoryUserRepository(),
		Credentials: NewMemoryCredentialRepository(),
		Comments:    NewMemoryCommentRepository(),
	}
}
