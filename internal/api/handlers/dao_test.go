package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"dao-tracker-backend/internal/api/handlers"
	"dao-tracker-backend/internal/api/middleware"
	"dao-tracker-backend/internal/auth"
	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"
	"dao-tracker-backend/internal/service"
	"dao-tracker-backend/internal/testutils"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"
)

// DaoHandlerTestSuite exercises the dossier endpoints over HTTP against
// the in-memory stack.
type DaoHandlerTestSuite struct {
	suite.Suite
	http   *testutils.HTTPTestSuite
	stores *repository.Stores

	adminToken  string
	leadToken   string
	viewerToken string
}

// SetupTest wires the full router the same way the bootstrap does,
// minus the Mongo probe.
func (suite *DaoHandlerTestSuite) SetupTest() {
	suite.http = testutils.SetupHTTPTest()
	suite.stores = repository.NewMemoryStores()

	validate := validator.New()
	allocator := repository.NewSequenceAllocator(suite.stores.Daos)
	notifier := service.NewNotificationService()
	emails := service.NewEmailService(service.EmailConfig{})

	authService, err := auth.NewService(auth.Config{
		Secret:   "test-secret",
		Issuer:   "dao-tracker-backend",
		Audience: "dao-tracker",
		TokenTTL: time.Hour,
	}, suite.stores.Users, suite.stores.Credentials)
	suite.Require().NoError(err)
	authMiddleware := auth.NewMiddleware(authService)

	daoService := service.NewDaoService(suite.stores.Daos, allocator, notifier, emails, validate)
	commentService := service.NewCommentService(suite.stores.Comments, suite.stores.Daos, notifier, validate)

	daoHandler := handlers.NewDaoHandler(daoService)
	commentHandler := handlers.NewCommentHandler(commentService)
	idempotency := middleware.NewIdempotencyCache(2 * time.Minute)

	api := suite.http.Router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	api.Use(idempotency.Handler())
	api.GET("/dao", daoHandler.ListDaos)
	api.GET("/dao/next-number", daoHandler.NextNumber)
	api.GET("/dao/:id", daoHandler.GetDao)
	api.POST("/dao", daoHandler.CreateDao)
	api.PUT("/dao/:id", daoHandler.UpdateDao)
	api.DELETE("/dao/:id", daoHandler.DeleteDao)
	api.PUT("/dao/:id/tasks/reorder", daoHandler.ReorderTasks)
	api.PUT("/dao/:id/tasks/:taskId", daoHandler.UpdateTask)
	api.POST("/dao/:id/tasks/:taskId/comments", commentHandler.AddComment)

	suite.adminToken = suite.makeUser(authService, "admin-1", "Admin", models.UserRoleAdmin)
	suite.leadToken = suite.makeUser(authService, "lead-1", "Awa Diop", models.UserRoleUser)
	suite.viewerToken = suite.makeUser(authService, "viewer-1", "Viewer", models.UserRoleViewer)
}

func (suite *DaoHandlerTestSuite) makeUser(authService *auth.Service, id, name string, role models.UserRole) string {
	ctx := context.Background()
	now := time.Now().UTC()
	user := &models.User{
		ID: id, Name: name, Email: id + "@example.com",
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	suite.Require().NoError(suite.stores.Users.Create(ctx, user))

	hash, err := auth.HashPassword("password-" + id)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.stores.Credentials.Upsert(ctx, &models.Credential{
		UserID: id, PasswordHash: hash, UpdatedAt: now,
	}))

	result, err := authService.Login(ctx, user.Email, "password-"+id)
	suite.Require().NoError(err)
	return result.Token
}

func (suite *DaoHandlerTestSuite) authed(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (suite *DaoHandlerTestSuite) createDao() string {
	body := map[string]interface{}{
		"objetDossier":         "Construction du pont",
		"reference":            "REF-001",
		"autoriteContractante": "MTP",
		"dateDepot":            time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"equipe": []map[string]interface{}{
			{"id": "lead-1", "name": "Awa Diop", "role": "chef_equipe"},
		},
		"tasks": []map[string]interface{}{
			{"name": "Garantie de soumission", "isApplicable": true},
		},
	}
	recorder := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao", body, suite.authed(suite.adminToken))
	suite.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())

	var created service.DaoResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &created))
	return created.ID
}

// TestRequiresAuthentication verifies the bearer guard
func (suite *DaoHandlerTestSuite) TestRequiresAuthentication() {
	recorder := suite.http.MakeRequest(http.MethodGet, "/api/dao", nil)
	suite.Equal(http.StatusUnauthorized, recorder.Code)

	recorder = suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao",
		nil, map[string]string{"Authorization": "Bearer garbage"})
	suite.Equal(http.StatusUnauthorized, recorder.Code)
}

// TestCreateAndDeleteRequireAdmin verifies the dossier lifecycle
// endpoints reject authenticated non-admins
func (suite *DaoHandlerTestSuite) TestCreateAndDeleteRequireAdmin() {
	body := map[string]interface{}{
		"objetDossier":         "Pont",
		"reference":            "REF-001",
		"autoriteContractante": "MTP",
		"dateDepot":            time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}
	for _, token := range []string{suite.viewerToken, suite.leadToken} {
		recorder := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao", body, suite.authed(token))
		suite.Equal(http.StatusForbidden, recorder.Code, recorder.Body.String())
	}

	// nothing was created by the denied attempts
	recorder := suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao", nil, suite.authed(suite.adminToken))
	suite.Require().Equal(http.StatusOK, recorder.Code)
	var list service.DaoListResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &list))
	suite.Equal(int64(0), list.Total)

	id := suite.createDao()
	recorder = suite.http.MakeRequestWithHeaders(http.MethodDelete, "/api/dao/"+id, nil, suite.authed(suite.leadToken))
	suite.Equal(http.StatusForbidden, recorder.Code)

	recorder = suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao/"+id, nil, suite.authed(suite.adminToken))
	suite.Equal(http.StatusOK, recorder.Code)
}

// TestCreateAndGet verifies the happy path and derived fields
func (suite *DaoHandlerTestSuite) TestCreateAndGet() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao/"+id, nil, suite.authed(suite.leadToken))
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var dao service.DaoResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &dao))
	suite.Equal(0, dao.Progress)
	suite.Equal(models.DaoStatusSafe, dao.Status)
	suite.NotEmpty(dao.NumeroListe)
}

// TestGetMissingReturns404 verifies the not-found mapping
func (suite *DaoHandlerTestSuite) TestGetMissingReturns404() {
	recorder := suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao/missing", nil, suite.authed(suite.adminToken))
	suite.Equal(http.StatusNotFound, recorder.Code)
}

// TestValidationErrorsCarryDetails verifies the 400 contract
func (suite *DaoHandlerTestSuite) TestValidationErrorsCarryDetails() {
	body := map[string]interface{}{
		"reference":            "REF-001",
		"autoriteContractante": "MTP",
		"dateDepot":            time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	recorder := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao", body, suite.authed(suite.adminToken))
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)

	var resp handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	suite.Require().NotEmpty(resp.Details)
	suite.Equal("objetDossier", resp.Details[0].Field)
}

// TestAdminNotLeaderGetsCodedForbidden verifies the 403 body carries the
// machine-readable code
func (suite *DaoHandlerTestSuite) TestAdminNotLeaderGetsCodedForbidden() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodPut, "/api/dao/"+id+"/tasks/1",
		map[string]interface{}{"progress": 50}, suite.authed(suite.adminToken))
	suite.Require().Equal(http.StatusForbidden, recorder.Code)

	var resp handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	suite.Equal(apperrors.CodeAdminNotLeader, resp.Code)
}

// TestLeadCanUpdateProgress verifies the allowed path over HTTP
func (suite *DaoHandlerTestSuite) TestLeadCanUpdateProgress() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodPut, "/api/dao/"+id+"/tasks/1",
		map[string]interface{}{"progress": 100}, suite.authed(suite.leadToken))
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var dao service.DaoResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &dao))
	suite.Equal(100, dao.Progress)
	suite.Equal(models.DaoStatusCompleted, dao.Status)
}

// TestReorderMismatchReturns400 verifies the permutation guard over HTTP
func (suite *DaoHandlerTestSuite) TestReorderMismatchReturns400() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodPut, "/api/dao/"+id+"/tasks/reorder",
		map[string]interface{}{"taskIds": []int{1, 2}}, suite.authed(suite.leadToken))
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

// TestIdempotentCreate verifies the same key creates one dossier
func (suite *DaoHandlerTestSuite) TestIdempotentCreate() {
	body := map[string]interface{}{
		"objetDossier":         "Pont",
		"reference":            "REF-001",
		"autoriteContractante": "MTP",
		"dateDepot":            time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	headers := suite.authed(suite.adminToken)
	headers[middleware.IdempotencyKeyHeader] = "create-1"

	first := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao", body, headers)
	second := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao", body, headers)
	suite.Require().Equal(http.StatusCreated, first.Code)
	suite.Equal(first.Body.String(), second.Body.String())

	recorder := suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao", nil, suite.authed(suite.adminToken))
	var list service.DaoListResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &list))
	suite.Equal(int64(1), list.Total)
}

// TestCommentingByMemberAllowed verifies the comment endpoint wiring
func (suite *DaoHandlerTestSuite) TestCommentingByMemberAllowed() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodPost, "/api/dao/"+id+"/tasks/1/comments",
		map[string]interface{}{"content": "piece manquante"}, suite.authed(suite.leadToken))
	suite.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())

	var comment models.Comment
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &comment))
	suite.Equal("lead-1", comment.AuthorID)
	suite.Equal("piece manquante", comment.Content)
}

// TestDeleteDao verifies deletion over HTTP
func (suite *DaoHandlerTestSuite) TestDeleteDao() {
	id := suite.createDao()

	recorder := suite.http.MakeRequestWithHeaders(http.MethodDelete, "/api/dao/"+id, nil, suite.authed(suite.adminToken))
	suite.Equal(http.StatusOK, recorder.Code)

	recorder = suite.http.MakeRequestWithHeaders(http.MethodGet, "/api/dao/"+id, nil, suite.authed(suite.adminToken))
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func TestDaoHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(DaoHandlerTestSuite))
}
