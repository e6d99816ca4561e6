package testutils

import (
	"time"

	"dao-tracker-backend/internal/models"

	"github.com/google/uuid"
)

// DaoFactory provides methods to create test Dao data
type DaoFactory struct{}

// NewDaoFactory creates a new DaoFactory
func NewDaoFactory() *DaoFactory {
	return &DaoFactory{}
}

// Create creates a test Dao with a lead, a member and two tasks
func (f *DaoFactory) Create() *models.Dao {
	now := time.Now().UTC()
	return &models.Dao{
		ID:                   uuid.NewString(),
		NumeroListe:          "DAO-2025-001",
		ObjetDossier:         "Construction du pont de test",
		Reference:            "REF-TEST-001",
		AutoriteContractante: "Ministere des Travaux Publics",
		DateDepot:            now.Add(30 * 24 * time.Hour),
		Equipe: []models.TeamMember{
			{ID: "lead-1", Name: "Awa Diop", Role: models.TeamRoleLead, Email: "awa@example.com"},
			{ID: "member-1", Name: "Moussa Ba", Role: models.TeamRoleMember, Email: "moussa@example.com"},
		},
		Tasks: []models.Task{
			{ID: 1, Name: "Garantie de soumission", IsApplicable: true, AssignedTo: []string{"member-1"}},
			{ID: 2, Name: "Attestation fiscale", IsApplicable: true, AssignedTo: []string{}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithNumero sets a custom numeroListe
func (f *DaoFactory) WithNumero(numero string) *models.Dao {
	dao := f.Create()
	dao.NumeroListe = numero
	return dao
}

// WithDateDepot sets a custom submission date
func (f *DaoFactory) WithDateDepot(date time.Time) *models.Dao {
	dao := f.Create()
	dao.DateDepot = date
	return dao
}

// UserFactory provides methods to create test User data
type UserFactory struct{}

// NewUserFactory creates a new UserFactory
func NewUserFactory() *UserFactory {
	return &UserFactory{}
}

// Create creates a test User with default values
func (f *UserFactory) Create() *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     "test@example.com",
		Role:      models.UserRoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Admin creates a test admin user
func (f *UserFactory) Admin() *models.User {
	user := f.Create()
	user.ID = "admin-1"
	user.Name = "Admin User"
	user.Email = "admin@example.com"
	user.Role = models.UserRoleAdmin
	return user
}

// Viewer creates a test viewer user
func (f *UserFactory) Viewer() *models.User {
	user := f.Create()
	user.ID = "viewer-1"
	user.Name = "Viewer User"
	user.Email = "viewer@example.com"
	user.Role = models.UserRoleViewer
	return user
}

// WithID sets a custom id, useful to match team member ids
func (f *UserFactory) WithID(id string) *models.User {
	user := f.Create()
	user.ID = id
	user.Email = id + "@example.com"
	return user
}
