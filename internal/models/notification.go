package models

import "time"

// NotificationType is the closed enum of domain events carried by the
// notification feed.
type NotificationType string

const (
	NotificationDaoCreated      NotificationType = "dao_created"
	NotificationDaoUpdated      NotificationType = "dao_updated"
	NotificationDaoDeleted      NotificationType = "dao_deleted"
	NotificationTaskAssigned    NotificationType = "task_assigned"
	NotificationTaskUpdated     NotificationType = "task_updated"
	NotificationDeadlineAlert   NotificationType = "deadline_alert"
	NotificationCommentAdded    NotificationType = "comment_added"
	NotificationUserDeactivated NotificationType = "user_deactivated"
)

// RecipientsAll marks a notification as visible to every user.
const RecipientsAll = "all"

// Notification is a feed event. Recipients is either ["all"] or a list
// of user ids; ReadBy tracks which users marked the event as read.
type Notification struct {
	ID         string                 `json:"id"`
	Type       NotificationType       `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Recipients []string               `json:"-"`
	ReadBy     map[string]bool        `json:"-"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// VisibleTo reports whether the notification targets the given user.
func (n *Notification) VisibleTo(userID string) bool {
	for _, r := range n.Recipients {
		if r == RecipientsAll || r == userID {
			return true
		}
	}
	return false
}

// UserNotification is a notification annotated with the per-user read flag.
type UserNotification struct {
	Notification
	Read bool `json:"read"`
}
