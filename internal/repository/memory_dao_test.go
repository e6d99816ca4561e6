package repository_test

import (
	"context"
	"testing"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"
	"dao-tracker-backend/internal/testutils"

	"github.com/stretchr/testify/suite"
)

// MemoryDaoRepositoryTestSuite defines the test suite for the in-memory store
type MemoryDaoRepositoryTestSuite struct {
	suite.Suite
	repo *repository.MemoryDaoRepository
	ctx  context.Context
}

// SetupTest sets up the test suite
func (suite *MemoryDaoRepositoryTestSuite) SetupTest() {
	suite.repo = repository.NewMemoryDaoRepository()
	suite.ctx = context.Background()
}

func (suite *MemoryDaoRepositoryTestSuite) seed(id, numero, objet, autorite string, dateDepot time.Time) *models.Dao {
	dao := testutils.NewDaoFactory().WithNumero(numero)
	dao.ID = id
	dao.ObjetDossier = objet
	dao.AutoriteContractante = autorite
	dao.DateDepot = dateDepot
	suite.Require().NoError(suite.repo.Create(suite.ctx, dao))
	return dao
}

// TestCreateRejectsDuplicateNumero verifies the uniqueness guard
func (suite *MemoryDaoRepositoryTestSuite) TestCreateRejectsDuplicateNumero() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	dup := testutils.NewDaoFactory().WithNumero("DAO-2025-001")
	dup.ID = "d2"
	err := suite.repo.Create(suite.ctx, dup)
	suite.ErrorIs(err, apperrors.ErrDaoNumberExists)
}

// TestGetByIDReturnsNilWhenMissing verifies the nil-not-error contract
func (suite *MemoryDaoRepositoryTestSuite) TestGetByIDReturnsNilWhenMissing() {
	dao, err := suite.repo.GetByID(suite.ctx, "missing")
	suite.NoError(err)
	suite.Nil(dao)
}

// TestListSearchMatchesSeveralFields verifies the substring search
func (suite *MemoryDaoRepositoryTestSuite) TestListSearchMatchesSeveralFields() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Construction du pont", "MTP", base)
	suite.seed("d2", "DAO-2025-002", "Fourniture de bureaux", "MEN", base)

	filter := repository.ListFilter{Search: "pont"}
	filter.Normalize()
	daos, total, err := suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(daos, 1)
	suite.Equal("d1", daos[0].ID)

	// search is case-insensitive and also covers numeroListe
	filter = repository.ListFilter{Search: "dao-2025-002"}
	filter.Normalize()
	daos, _, err = suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Require().Len(daos, 1)
	suite.Equal("d2", daos[0].ID)
}

// TestListFiltersByAutoriteAndDateRange verifies combined filters
func (suite *MemoryDaoRepositoryTestSuite) TestListFiltersByAutoriteAndDateRange() {
	near := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	far := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", near)
	suite.seed("d2", "DAO-2025-002", "Route", "MTP", far)
	suite.seed("d3", "DAO-2025-003", "Ecole", "MEN", near)

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	filter := repository.ListFilter{Autorite: "MTP", DateFrom: &from, DateTo: &to}
	filter.Normalize()

	daos, total, err := suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(daos, 1)
	suite.Equal("d1", daos[0].ID)
}

// TestListSortsAndPaginates verifies stable ordering plus paging
func (suite *MemoryDaoRepositoryTestSuite) TestListSortsAndPaginates() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d3", "DAO-2025-003", "C", "MTP", base)
	suite.seed("d1", "DAO-2025-001", "A", "MTP", base)
	suite.seed("d2", "DAO-2025-002", "B", "MTP", base)

	filter := repository.ListFilter{Sort: "numeroListe", Order: "asc", Page: 1, PageSize: 2}
	filter.Normalize()
	daos, total, err := suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(daos, 2)
	suite.Equal("DAO-2025-001", daos[0].NumeroListe)
	suite.Equal("DAO-2025-002", daos[1].NumeroListe)

	filter.Page = 2
	daos, _, err = suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Require().Len(daos, 1)
	suite.Equal("DAO-2025-003", daos[0].NumeroListe)
}

// TestListDescendingKeepsInsertionOrderForTies verifies equal sort keys
// do not shuffle between requests
func (suite *MemoryDaoRepositoryTestSuite) TestListDescendingKeepsInsertionOrderForTies() {
	ts := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	rows := []struct{ id, numero string }{
		{"d1", "DAO-2025-001"},
		{"d2", "DAO-2025-002"},
		{"d3", "DAO-2025-003"},
	}
	for _, row := range rows {
		dao := testutils.NewDaoFactory().WithNumero(row.numero)
		dao.ID = row.id
		dao.UpdatedAt = ts
		suite.Require().NoError(suite.repo.Create(suite.ctx, dao))
	}

	filter := repository.ListFilter{Sort: "updatedAt", Order: "desc"}
	filter.Normalize()
	daos, _, err := suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Require().Len(daos, 3)
	suite.Equal("d1", daos[0].ID)
	suite.Equal("d2", daos[1].ID)
	suite.Equal("d3", daos[2].ID)
}

// TestGetByIDReturnsDetachedCopy verifies reads never alias stored state
func (suite *MemoryDaoRepositoryTestSuite) TestGetByIDReturnsDetachedCopy() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	got, err := suite.repo.GetByID(suite.ctx, "d1")
	suite.Require().NoError(err)
	got.Tasks[0].Name = "hijacked"
	got.Tasks[0].AssignedTo[0] = "intrus"
	got.Equipe[0].Name = "hijacked"

	fresh, err := suite.repo.GetByID(suite.ctx, "d1")
	suite.Require().NoError(err)
	suite.Equal("Garantie de soumission", fresh.Tasks[0].Name)
	suite.Equal([]string{"member-1"}, fresh.Tasks[0].AssignedTo)
	suite.Equal("Awa Diop", fresh.Equipe[0].Name)
}

// TestListReturnsDetachedCopies verifies list pages never alias stored
// state either
func (suite *MemoryDaoRepositoryTestSuite) TestListReturnsDetachedCopies() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	filter := repository.ListFilter{}
	filter.Normalize()
	daos, _, err := suite.repo.List(suite.ctx, filter)
	suite.Require().NoError(err)
	suite.Require().Len(daos, 1)
	daos[0].Tasks[0].Name = "hijacked"

	fresh, err := suite.repo.GetByID(suite.ctx, "d1")
	suite.Require().NoError(err)
	suite.Equal("Garantie de soumission", fresh.Tasks[0].Name)
}

// TestUpdateDetachesIncomingSlices verifies the store never keeps a
// reference into caller-owned task arrays
func (suite *MemoryDaoRepositoryTestSuite) TestUpdateDetachesIncomingSlices() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	tasks := []models.Task{{ID: 1, Name: "Caution", IsApplicable: true, AssignedTo: []string{"member-1"}}}
	_, err := suite.repo.Update(suite.ctx, "d1", repository.DaoUpdate{Tasks: &tasks})
	suite.Require().NoError(err)

	tasks[0].Name = "hijacked"
	tasks[0].AssignedTo[0] = "intrus"

	fresh, err := suite.repo.GetByID(suite.ctx, "d1")
	suite.Require().NoError(err)
	suite.Equal("Caution", fresh.Tasks[0].Name)
	suite.Equal([]string{"member-1"}, fresh.Tasks[0].AssignedTo)
}

// TestUpdateMergesOnlyProvidedFields verifies partial update semantics
func (suite *MemoryDaoRepositoryTestSuite) TestUpdateMergesOnlyProvidedFields() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	objet := "Pont renove"
	updated, err := suite.repo.Update(suite.ctx, "d1", repository.DaoUpdate{ObjetDossier: &objet})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated)
	suite.Equal("Pont renove", updated.ObjetDossier)
	suite.Equal("MTP", updated.AutoriteContractante)
	suite.Equal("DAO-2025-001", updated.NumeroListe)
}

// TestUpdateReturnsNilWhenMissing verifies the nil-not-error contract
func (suite *MemoryDaoRepositoryTestSuite) TestUpdateReturnsNilWhenMissing() {
	objet := "x"
	updated, err := suite.repo.Update(suite.ctx, "missing", repository.DaoUpdate{ObjetDossier: &objet})
	suite.NoError(err)
	suite.Nil(updated)
}

// TestDeleteReportsRemoval verifies the boolean delete contract
func (suite *MemoryDaoRepositoryTestSuite) TestDeleteReportsRemoval() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-001", "Pont", "MTP", base)

	deleted, err := suite.repo.Delete(suite.ctx, "d1")
	suite.Require().NoError(err)
	suite.True(deleted)

	deleted, err = suite.repo.Delete(suite.ctx, "d1")
	suite.Require().NoError(err)
	suite.False(deleted)
}

// TestMaxSequenceScansByYear verifies per-year maxima
func (suite *MemoryDaoRepositoryTestSuite) TestMaxSequenceScansByYear() {
	base := time.Now().Add(30 * 24 * time.Hour)
	suite.seed("d1", "DAO-2025-002", "A", "MTP", base)
	suite.seed("d2", "DAO-2025-009", "B", "MTP", base)
	suite.seed("d3", "DAO-2024-031", "C", "MTP", base)

	max, err := suite.repo.MaxSequence(suite.ctx, 2025)
	suite.Require().NoError(err)
	suite.Equal(9, max)

	max, err = suite.repo.MaxSequence(suite.ctx, 2023)
	suite.Require().NoError(err)
	suite.Equal(0, max)
}

func TestMemoryDaoRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryDaoRepositoryTestSuite))
}
