package handlers

import (
	"net/http"

	"dao-tracker-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionResetter clears every active session. Satisfied by the auth
// service.
type SessionResetter interface {
	ResetSessions()
}

// Resetter clears a transient cache. Satisfied by the idempotency
// cache.
type Resetter interface {
	Reset()
}

// AdminHandler handles administrative maintenance endpoints
type AdminHandler struct {
	daoService     service.DaoServiceInterface
	commentService service.CommentServiceInterface
	notifications  service.NotificationServiceInterface
	sessions       SessionResetter
	caches         []Resetter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	daoService service.DaoServiceInterface,
	commentService service.CommentServiceInterface,
	notifications service.NotificationServiceInterface,
	sessions SessionResetter,
	caches ...Resetter,
) *AdminHandler {
	return &AdminHandler{
		daoService:     daoService,
		commentService: commentService,
		notifications:  notifications,
		sessions:       sessions,
		caches:         caches,
	}
}

// ResetApp handles POST /api/admin/reset-app. It wipes dossiers, comments,
// notifications, sessions and transient caches. User accounts survive
// so the admin is not locked out of the fresh instance.
func (h *AdminHandler) ResetApp(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.daoService.ClearAll(ctx); err != nil {
		respondError(c, err)
		return
	}
	if err := h.commentService.Reset(ctx); err != nil {
		respondError(c, err)
		return
	}
	h.notifications.Reset()
	h.sessions.ResetSessions()
	for _, cache := range h.caches {
		cache.Reset()
	}

	logrus.Warn("application data reset by admin")
	c.JSON(http.StatusOK, gin.H{"message": "Application data reset successfully"})
}
