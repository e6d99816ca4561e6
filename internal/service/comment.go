package service

import (
	"context"
	"fmt"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/policy/daopolicy"
	"dao-tracker-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CommentService handles task comment threads
type CommentService struct {
	comments  repository.CommentRepository
	daos      repository.DaoRepository
	notifier  *NotificationService
	validator *validator.Validate
}

// NewCommentService creates a new comment service
func NewCommentService(
	comments repository.CommentRepository,
	daos repository.DaoRepository,
	notifier *NotificationService,
	validator *validator.Validate,
) *CommentService {
	return &CommentService{
		comments:  comments,
		daos:      daos,
		notifier:  notifier,
		validator: validator,
	}
}

// CreateCommentRequest represents the request to comment on a task
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Add posts a comment on a task. Admins and team members may comment;
// viewers may not.
func (s *CommentService) Add(ctx context.Context, actor *models.User, daoID string, taskID int, req *CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	dao, err := s.daos.GetByID(ctx, daoID)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	task := dao.FindTask(taskID)
	if task == nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if err := daopolicy.CanComment(actor, dao); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:         uuid.NewString(),
		DaoID:      daoID,
		TaskID:     taskID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.notifier.Notify(task.AssignedTo, models.NotificationCommentAdded,
		"Nouveau commentaire",
		fmt.Sprintf("%s a commente la tache %q du dossier %s", actor.Name, task.Name, dao.NumeroListe),
		map[string]interface{}{"daoId": daoID, "taskId": taskID, "commentId": comment.ID},
	)
	return comment, nil
}

// ListByTask returns the comment thread for a task, newest first.
func (s *CommentService) ListByTask(ctx context.Context, daoID string, taskID int) ([]models.Comment, error) {
	dao, err := s.daos.GetByID(ctx, daoID)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	if dao.FindTask(taskID) == nil {
		return nil, apperrors.ErrTaskNotFound
	}
	return s.comments.ListByTask(ctx, daoID, taskID)
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperrors.ErrCommentNotFound
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return apperrors.NewAuthorizationError(apperrors.CodeAdminOnly, "only the author or an admin can delete a comment")
	}

	deleted, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrCommentNotFound
	}
	return nil
}

// Reset drops every comment. Admin reset path.
func (s *CommentService) Reset(ctx context.Context) error {
	return s.comments.DeleteAll(ctx)
}
