package repository

import (
	"context"
	"sort"
	"sync"

	"dao-tracker-backend/internal/models"
)

// MemoryCommentRepository keeps task comments in a process-local slice.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	comments []models.Comment
}

// NewMemoryCommentRepository creates an empty in-memory comment store.
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{}
}

func (r *MemoryCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.comments = append(r.comments, *comment)
	return nil
}

func (r *MemoryCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.comments {
		if r.comments[i].ID == id {
			comment := r.comments[i]
			return &comment, nil
		}
	}
	return nil, nil
}

// ListByTask returns the task's comments, newest first.
func (r *MemoryCommentRepository) ListByTask(ctx context.Context, daoID string, taskID int) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Comment, 0)
	for i := range r.comments {
		if r.comments[i].DaoID == daoID && r.comments[i].TaskID == taskID {
			matched = append(matched, r.comments[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *MemoryCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.comments {
		if r.comments[i].ID == id {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryCommentRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.comments = nil
	return nil
}
