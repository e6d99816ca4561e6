package service

import (
	"context"

	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"
)

// DaoServiceInterface defines the contract for dossier operations
type DaoServiceInterface interface {
	List(ctx context.Context, filter repository.ListFilter) (*DaoListResponse, error)
	GetByID(ctx context.Context, id string) (*DaoResponse, error)
	NextNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, actor *models.User, req *CreateDaoRequest) (*DaoResponse, error)
	Update(ctx context.Context, actor *models.User, id string, req *UpdateDaoRequest) (*DaoResponse, error)
	Delete(ctx context.Context, actor *models.User, id string) (bool, error)
	UpdateTask(ctx context.Context, actor *models.User, daoID string, taskID int, req *UpdateTaskRequest) (*DaoResponse, error)
	AddTask(ctx context.Context, actor *models.User, daoID string, req *CreateTaskRequest) (*DaoResponse, error)
	DeleteTask(ctx context.Context, actor *models.User, daoID string, taskID int) (*DaoResponse, error)
	ReorderTasks(ctx context.Context, actor *models.User, daoID string, req *ReorderTasksRequest) (*DaoResponse, error)
	ClearAll(ctx context.Context) error
	SendDeadlineAlerts(ctx context.Context) error
}

// UserServiceInterface defines the contract for account management
type UserServiceInterface interface {
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Deactivate(ctx context.Context, actorID, id string) (*models.User, error)
	Reactivate(ctx context.Context, id string) (*models.User, error)
}

// CommentServiceInterface defines the contract for task comment threads
type CommentServiceInterface interface {
	Add(ctx context.Context, actor *models.User, daoID string, taskID int, req *CreateCommentRequest) (*models.Comment, error)
	ListByTask(ctx context.Context, daoID string, taskID int) ([]models.Comment, error)
	Delete(ctx context.Context, actor *models.User, commentID string) error
	Reset(ctx context.Context) error
}

// NotificationServiceInterface defines the contract for the event feed
type NotificationServiceInterface interface {
	ListForUser(userID string) []models.UserNotification
	MarkRead(userID, eventID string) error
	MarkAllRead(userID string)
	Reset()
}

var (
	_ DaoServiceInterface          = (*DaoService)(nil)
	_ UserServiceInterface         = (*UserService)(nil)
	_ CommentServiceInterface      = (*CommentService)(nil)
	_ NotificationServiceInterface = (*NotificationService)(nil)
)
