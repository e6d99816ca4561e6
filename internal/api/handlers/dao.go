package handlers

import (
	"net/http"
	"strconv"
	"time"

	"dao-tracker-backend/internal/auth"
	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/repository"
	"dao-tracker-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// DaoHandler handles HTTP requests for dossier operations
type DaoHandler struct {
	daoService service.DaoServiceInterface
}

// NewDaoHandler creates a new dossier handler
func NewDaoHandler(daoService service.DaoServiceInterface) *DaoHandler {
	return &DaoHandler{daoService: daoService}
}

// ListDaos handles GET /api/dao
func (h *DaoHandler) ListDaos(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.daoService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseListFilter(c *gin.Context) (repository.ListFilter, error) {
	filter := repository.ListFilter{
		Search:   c.Query("search"),
		Autorite: c.Query("autorite"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return filter, apperrors.ErrInvalidPaginationParams
		}
		filter.Page = page
	}
	if v := c.Query("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return filter, apperrors.ErrInvalidPaginationParams
		}
		filter.PageSize = size
	}

	var err error
	if filter.DateFrom, err = parseDateParam(c.Query("dateFrom"), "dateFrom"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDateParam(c.Query("dateTo"), "dateTo"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseDateParam(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidationError(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// GetDao handles GET /api/dao/:id
func (h *DaoHandler) GetDao(c *gin.Context) {
	dao, err := h.daoService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// NextNumber handles GET /api/dao/next-number
func (h *DaoHandler) NextNumber(c *gin.Context) {
	number, err := h.daoService.NextNumber(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"numeroListe": number})
}

// CreateDao handles POST /api/dao
func (h *DaoHandler) CreateDao(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req service.CreateDaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dao, err := h.daoService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dao)
}

// UpdateDao handles PUT /api/dao/:id
func (h *DaoHandler) UpdateDao(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req service.UpdateDaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dao, err := h.daoService.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// DeleteDao handles DELETE /api/dao/:id
func (h *DaoHandler) DeleteDao(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	deleted, err := h.daoService.Delete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		respondError(c, apperrors.ErrDaoNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dao deleted successfully"})
}

// UpdateTask handles PUT /api/dao/:id/tasks/:taskId
func (h *DaoHandler) UpdateTask(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid task id"})
		return
	}

	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dao, err := h.daoService.UpdateTask(c.Request.Context(), actor, c.Param("id"), taskID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// AddTask handles POST /api/dao/:id/tasks
func (h *DaoHandler) AddTask(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dao, err := h.daoService.AddTask(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dao)
}

// DeleteTask handles DELETE /api/dao/:id/tasks/:taskId
func (h *DaoHandler) DeleteTask(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid task id"})
		return
	}

	dao, err := h.daoService.DeleteTask(c.Request.Context(), actor, c.Param("id"), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// ReorderTasks handles PUT /api/dao/:id/tasks/reorder
func (h *DaoHandler) ReorderTasks(c *gin.Context) {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req service.ReorderTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dao, err := h.daoService.ReorderTasks(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}
