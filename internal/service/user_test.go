package service_test

import (
	"context"
	"testing"
	"time"

	"dao-tracker-backend/internal/auth"
	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"
	"dao-tracker-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"
)

// UserServiceTestSuite defines the test suite for UserService
type UserServiceTestSuite struct {
	suite.Suite
	stores   *repository.Stores
	authSvc  *auth.Service
	notifier *service.NotificationService
	svc      *service.UserService
	ctx      context.Context
}

// SetupTest sets up the test suite
func (suite *UserServiceTestSuite) SetupTest() {
	suite.stores = repository.NewMemoryStores()
	suite.notifier = service.NewNotificationService()
	suite.ctx = context.Background()

	authSvc, err := auth.NewService(auth.Config{
		Secret:   "test-secret",
		Issuer:   "dao-tracker-backend",
		Audience: "dao-tracker",
		TokenTTL: time.Hour,
	}, suite.stores.Users, suite.stores.Credentials)
	suite.Require().NoError(err)
	suite.authSvc = authSvc

	suite.svc = service.NewUserService(
		suite.stores.Users, suite.stores.Credentials, authSvc, suite.notifier, validator.New())
}

// TestCreateStoresHashedCredential verifies a created account can log in
func (suite *UserServiceTestSuite) TestCreateStoresHashedCredential() {
	user, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name:     "Awa Diop",
		Email:    "awa@example.com",
		Password: "correct-horse",
		Role:     models.UserRoleUser,
	})
	suite.Require().NoError(err)
	suite.True(user.IsActive)

	cred, err := suite.stores.Credentials.GetByUserID(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(cred)
	suite.NotEqual("correct-horse", cred.PasswordHash)

	_, err = suite.authSvc.Login(suite.ctx, "awa@example.com", "correct-horse")
	suite.NoError(err)
}

// TestCreateRejectsDuplicateEmail verifies the uniqueness guard,
// case-insensitively
func (suite *UserServiceTestSuite) TestCreateRejectsDuplicateEmail() {
	_, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "A", Email: "awa@example.com", Password: "password1", Role: models.UserRoleUser,
	})
	suite.Require().NoError(err)

	_, err = suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "B", Email: "AWA@example.com", Password: "password2", Role: models.UserRoleUser,
	})
	suite.ErrorIs(err, apperrors.ErrUserExists)
}

// TestCreateValidatesInput verifies field validation
func (suite *UserServiceTestSuite) TestCreateValidatesInput() {
	_, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "A", Email: "not-an-email", Password: "password1", Role: models.UserRoleUser,
	})
	suite.Error(err)

	_, err = suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "A", Email: "a@example.com", Password: "short", Role: models.UserRoleUser,
	})
	suite.Error(err)

	_, err = suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "A", Email: "a@example.com", Password: "password1", Role: "superadmin",
	})
	suite.Error(err)
}

// TestDeactivateKillsSessionsAndBroadcasts verifies the full
// deactivation path
func (suite *UserServiceTestSuite) TestDeactivateKillsSessionsAndBroadcasts() {
	user, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "Awa", Email: "awa@example.com", Password: "correct-horse", Role: models.UserRoleUser,
	})
	suite.Require().NoError(err)

	result, err := suite.authSvc.Login(suite.ctx, "awa@example.com", "correct-horse")
	suite.Require().NoError(err)

	deactivated, err := suite.svc.Deactivate(suite.ctx, "someone-else", user.ID)
	suite.Require().NoError(err)
	suite.False(deactivated.IsActive)

	_, _, err = suite.authSvc.ValidateToken(suite.ctx, result.Token)
	suite.ErrorIs(err, apperrors.ErrInvalidToken)

	feed := suite.notifier.ListForUser("anyone")
	suite.Require().NotEmpty(feed)
	suite.Equal(models.NotificationUserDeactivated, feed[0].Type)
}

// TestDeactivateSelfIsRejected verifies the lockout guard
func (suite *UserServiceTestSuite) TestDeactivateSelfIsRejected() {
	user, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "Admin", Email: "admin@example.com", Password: "password1", Role: models.UserRoleAdmin,
	})
	suite.Require().NoError(err)

	_, err = suite.svc.Deactivate(suite.ctx, user.ID, user.ID)
	suite.True(apperrors.IsValidation(err))
}

// TestReactivateRestoresLogin verifies the restore path
func (suite *UserServiceTestSuite) TestReactivateRestoresLogin() {
	user, err := suite.svc.Create(suite.ctx, &service.CreateUserRequest{
		Name: "Awa", Email: "awa@example.com", Password: "correct-horse", Role: models.UserRoleUser,
	})
	suite.Require().NoError(err)

	_, err = suite.svc.Deactivate(suite.ctx, "someone-else", user.ID)
	suite.Require().NoError(err)
	_, err = suite.authSvc.Login(suite.ctx, "awa@example.com", "correct-horse")
	suite.ErrorIs(err, apperrors.ErrUserInactive)

	_, err = suite.svc.Reactivate(suite.ctx, user.ID)
	suite.Require().NoError(err)
	_, err = suite.authSvc.Login(suite.ctx, "awa@example.com", "correct-horse")
	suite.NoError(err)
}

// TestDeactivateMissingUser verifies the not-found mapping
func (suite *UserServiceTestSuite) TestDeactivateMissingUser() {
	_, err := suite.svc.Deactivate(suite.ctx, "actor", "missing")
	suite.ErrorIs(err, apperrors.ErrUserNotFound)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
