package service

import (
	"sort"
	"sync"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"

	"github.com/google/uuid"
)

// maxNotifications caps the in-memory feed; the oldest events are
// evicted first so memory stays bounded.
const maxNotifications = 100

// NotificationService records domain events and lets each user retrieve
// their subset. The feed is process-local and not persisted: polling
// clients tolerate losing history on restart.
type NotificationService struct {
	mu     sync.RWMutex
	events []models.Notification
}

// NewNotificationService creates an empty notification feed.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Broadcast records an event visible to all users.
func (s *NotificationService) Broadcast(eventType models.NotificationType, title, message string, data map[string]interface{}) *models.Notification {
	return s.record([]string{models.RecipientsAll}, eventType, title, message, data)
}

// Notify records an event visible only to the listed recipients.
func (s *NotificationService) Notify(userIDs []string, eventType models.NotificationType, title, message string, data map[string]interface{}) *models.Notification {
	if len(userIDs) == 0 {
		return nil
	}
	return s.record(userIDs, eventType, title, message, data)
}

func (s *NotificationService) record(recipients []string, eventType models.NotificationType, title, message string, data map[string]interface{}) *models.Notification {
	event := models.Notification{
		ID:         uuid.NewString(),
		Type:       eventType,
		Title:      title,
		Message:    message,
		Data:       data,
		Recipients: recipients,
		ReadBy:     make(map[string]bool),
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > maxNotifications {
		s.events = s.events[len(s.events)-maxNotifications:]
	}
	s.mu.Unlock()

	return &event
}

// ListForUser returns every event whose recipients include the user,
// annotated with the per-user read flag, newest first.
func (s *NotificationService) ListForUser(userID string) []models.UserNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := make([]models.UserNotification, 0)
	for i := range s.events {
		if !s.events[i].VisibleTo(userID) {
			continue
		}
		visible = append(visible, models.UserNotification{
			Notification: s.events[i],
			Read:         s.events[i].ReadBy[userID],
		})
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible
}

// MarkRead flags the event as read for this user only. The underlying
// event is shared; read state is a per-user set on the event.
func (s *NotificationService) MarkRead(userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == eventID {
			if !s.events[i].VisibleTo(userID) {
				return apperrors.ErrNotificationNotFound
			}
			s.events[i].ReadBy[userID] = true
			return nil
		}
	}
	return apperrors.ErrNotificationNotFound
}

// MarkAllRead flags every event visible to the user as read.
func (s *NotificationService) MarkAllRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].VisibleTo(userID) {
			s.events[i].ReadBy[userID] = true
		}
	}
}

// Reset drops the whole feed. Admin reset path.
func (s *NotificationService) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}
