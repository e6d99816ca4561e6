package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/logger"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/policy/daopolicy"
	"dao-tracker-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// createRetries bounds how often creation regenerates a fresh number
// after a duplicate-key race before giving up with ErrDaoNumberConflict.
const createRetries = 3

// DaoService handles business logic for dossiers
type DaoService struct {
	repo      repository.DaoRepository
	allocator *repository.SequenceAllocator
	notifier  *NotificationService
	emails    *EmailService
	validator *validator.Validate
	log       *logger.Logger
}

// NewDaoService creates a new dossier service
func NewDaoService(
	repo repository.DaoRepository,
	allocator *repository.SequenceAllocator,
	notifier *NotificationService,
	emails *EmailService,
	validator *validator.Validate,
) *DaoService {
	return &DaoService{
		repo:      repo,
		allocator: allocator,
		notifier:  notifier,
		emails:    emails,
		validator: validator,
		log:       logger.New(),
	}
}

// TeamMemberInput represents a team member in create/update requests
type TeamMemberInput struct {
	ID    string          `json:"id" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Role  models.TeamRole `json:"role" validate:"required,oneof=chef_equipe membre_equipe"`
	Email string          `json:"email,omitempty" validate:"omitempty,email"`
}

// TaskInput represents a task in create requests
type TaskInput struct {
	Name         string   `json:"name" validate:"required"`
	IsApplicable bool     `json:"isApplicable"`
	AssignedTo   []string `json:"assignedTo"`
}

// CreateDaoRequest represents the request to create a dossier. Any
// client-supplied numeroListe is ignored: numbering is server-controlled.
type CreateDaoRequest struct {
	NumeroListe          string            `json:"numeroListe"`
	ObjetDossier         string            `json:"objetDossier" validate:"required,min=1,max=500"`
	Reference            string            `json:"reference" validate:"required,min=1,max=200"`
	AutoriteContractante string            `json:"autoriteContractante" validate:"required,min=1,max=200"`
	DateDepot            time.Time         `json:"dateDepot" validate:"required"`
	Equipe               []TeamMemberInput `json:"equipe" validate:"dive"`
	Tasks                []TaskInput       `json:"tasks" validate:"dive"`
}

// UpdateDaoRequest represents a partial dossier update. Dossier-level
// fields are admin-only; a tasks array is inspected per-field against
// the task mutation policy.
type UpdateDaoRequest struct {
	ObjetDossier         *string            `json:"objetDossier,omitempty" validate:"omitempty,min=1,max=500"`
	Reference            *string            `json:"reference,omitempty" validate:"omitempty,min=1,max=200"`
	AutoriteContractante *string            `json:"autoriteContractante,omitempty" validate:"omitempty,min=1,max=200"`
	DateDepot            *time.Time         `json:"dateDepot,omitempty"`
	Equipe               *[]TeamMemberInput `json:"equipe,omitempty" validate:"omitempty,dive"`
	Tasks                *[]models.Task     `json:"tasks,omitempty"`
}

// UpdateTaskRequest represents a single-task update
type UpdateTaskRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1,max=300"`
	Progress     *int      `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	Comment      *string   `json:"comment,omitempty"`
	IsApplicable *bool     `json:"isApplicable,omitempty"`
	AssignedTo   *[]string `json:"assignedTo,omitempty"`
}

// CreateTaskRequest represents the request to add a task to a dossier
type CreateTaskRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=300"`
	IsApplicable bool     `json:"isApplicable"`
	AssignedTo   []string `json:"assignedTo"`
}

// ReorderTasksRequest carries the full permutation of task ids
type ReorderTasksRequest struct {
	TaskIDs []int `json:"taskIds" validate:"required,min=1"`
}

// DaoResponse is a dossier annotated with derived progress and status
type DaoResponse struct {
	models.Dao
	Progress int              `json:"progress"`
	Status   models.DaoStatus `json:"status"`
}

// DaoListResponse represents a paginated list of dossiers
type DaoListResponse struct {
	Items    []DaoResponse `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

func toDaoResponse(dao *models.Dao) *DaoResponse {
	return &DaoResponse{
		Dao:      *dao,
		Progress: dao.CalculateProgress(),
		Status:   dao.Status(time.Now()),
	}
}

// List returns the filtered, sorted, paginated dossier page.
func (s *DaoService) List(ctx context.Context, filter repository.ListFilter) (*DaoListResponse, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, apperrors.ErrInvalidDateRange
	}
	filter.Normalize()

	daos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]DaoResponse, len(daos))
	for i := range daos {
		items[i] = *toDaoResponse(&daos[i])
	}
	return &DaoListResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GetByID retrieves a dossier by id.
func (s *DaoService) GetByID(ctx context.Context, id string) (*DaoResponse, error) {
	dao, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	return toDaoResponse(dao), nil
}

// NextNumber previews the next numeroListe for the current year without
// advancing the allocator.
func (s *DaoService) NextNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	seq, err := s.allocator.Peek(ctx, year)
	if err != nil {
		return "", err
	}
	return repository.FormatNumeroListe(year, seq), nil
}

// Create allocates a number, persists the dossier, and broadcasts the
// creation. On a duplicate-number race it regenerates a fresh number up
// to createRetries times.
func (s *DaoService) Create(ctx context.Context, actor *models.User, req *CreateDaoRequest) (*DaoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := daopolicy.CanManageDossiers(actor); err != nil {
		return nil, err
	}
	equipe, err := buildTeam(req.Equipe)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dao := &models.Dao{
		ID:                   uuid.NewString(),
		ObjetDossier:         req.ObjetDossier,
		Reference:            req.Reference,
		AutoriteContractante: req.AutoriteContractante,
		DateDepot:            req.DateDepot,
		Equipe:               equipe,
		Tasks:                buildTasks(req.Tasks),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	year := now.Year()
	created := false
	for attempt := 0; attempt < createRetries; attempt++ {
		seq, err := s.allocator.Allocate(ctx, year)
		if err != nil {
			return nil, err
		}
		dao.NumeroListe = repository.FormatNumeroListe(year, seq)

		err = s.repo.Create(ctx, dao)
		if errors.Is(err, apperrors.ErrDaoNumberExists) {
			s.log.WithField("numeroListe", dao.NumeroListe).Warn("dao number collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		created = true
		break
	}
	if !created {
		return nil, apperrors.ErrDaoNumberConflict
	}

	s.notifier.Broadcast(models.NotificationDaoCreated,
		"Nouveau DAO",
		fmt.Sprintf("Le dossier %s (%s) a ete cree", dao.NumeroListe, dao.ObjetDossier),
		map[string]interface{}{"daoId": dao.ID, "numeroListe": dao.NumeroListe},
	)

	return toDaoResponse(dao), nil
}

func buildTeam(inputs []TeamMemberInput) ([]models.TeamMember, error) {
	equipe := make([]models.TeamMember, 0, len(inputs))
	leads := 0
	seen := make(map[string]bool)
	for _, in := range inputs {
		if seen[in.ID] {
			continue // membership is set-like by id
		}
		seen[in.ID] = true
		if in.Role == models.TeamRoleLead {
			leads++
		}
		equipe = append(equipe, models.TeamMember{
			ID:    in.ID,
			Name:  in.Name,
			Role:  in.Role,
			Email: in.Email,
		})
	}
	if leads > 1 {
		return nil, apperrors.NewValidationError("equipe", "a dossier can have at most one team lead")
	}
	return equipe, nil
}

func buildTasks(inputs []TaskInput) []models.Task {
	tasks := make([]models.Task, len(inputs))
	for i, in := range inputs {
		assigned := in.AssignedTo
		if assigned == nil {
			assigned = []string{}
		}
		tasks[i] = models.Task{
			ID:           i + 1,
			Name:         in.Name,
			IsApplicable: in.IsApplicable,
			AssignedTo:   assigned,
		}
	}
	return tasks
}

// Update applies a partial dossier update with field-level gating:
// dossier fields are admin-only, and an embedded tasks array goes
// through the same task mutation policy as the single-task endpoint.
func (s *DaoService) Update(ctx context.Context, actor *models.User, id string, req *UpdateDaoRequest) (*DaoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	dao, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}

	touchesDaoFields := req.ObjetDossier != nil || req.Reference != nil ||
		req.AutoriteContractante != nil || req.DateDepot != nil
	if touchesDaoFields {
		if err := daopolicy.CanEditDaoFields(actor); err != nil {
			return nil, err
		}
	}

	update := repository.DaoUpdate{
		ObjetDossier:         req.ObjetDossier,
		Reference:            req.Reference,
		AutoriteContractante: req.AutoriteContractante,
		DateDepot:            req.DateDepot,
	}

	if req.Equipe != nil {
		if err := daopolicy.CanManageTeam(actor, dao); err != nil {
			return nil, err
		}
		equipe, err := buildTeam(*req.Equipe)
		if err != nil {
			return nil, err
		}
		update.Equipe = &equipe
	}

	if req.Tasks != nil {
		tasks, err := s.gateBulkTaskChange(actor, dao, *req.Tasks)
		if err != nil {
			return nil, err
		}
		update.Tasks = &tasks
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrDaoNotFound
	}

	s.notifier.Broadcast(models.NotificationDaoUpdated,
		"DAO mis a jour",
		fmt.Sprintf("Le dossier %s a ete modifie", updated.NumeroListe),
		map[string]interface{}{"daoId": updated.ID},
	)

	return toDaoResponse(updated), nil
}

// gateBulkTaskChange diffs the incoming task array against the stored
// one and checks the union of changed fields in a single policy call.
// Adding or removing tasks is a structural change (admin-only).
func (s *DaoService) gateBulkTaskChange(actor *models.User, dao *models.Dao, incoming []models.Task) ([]models.Task, error) {
	existing := make(map[int]*models.Task, len(dao.Tasks))
	for i := range dao.Tasks {
		existing[dao.Tasks[i].ID] = &dao.Tasks[i]
	}

	fields := []string{}
	structureChanged := len(incoming) != len(dao.Tasks)
	now := time.Now().UTC()

	for i := range incoming {
		old, ok := existing[incoming[i].ID]
		if !ok {
			structureChanged = true
			incoming[i].LastUpdatedBy = actor.ID
			incoming[i].LastUpdatedAt = &now
			continue
		}
		changed := taskChangedFields(old, &incoming[i])
		if len(changed) > 0 {
			fields = append(fields, changed...)
			incoming[i].LastUpdatedBy = actor.ID
			incoming[i].LastUpdatedAt = &now
		} else {
			// audit fields are server-stamped, never client-supplied
			incoming[i].LastUpdatedBy = old.LastUpdatedBy
			incoming[i].LastUpdatedAt = old.LastUpdatedAt
		}
	}

	if structureChanged {
		if err := daopolicy.CanManageStructure(actor); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		if err := daopolicy.CheckTaskMutation(actor, dao, fields); err != nil {
			return nil, err
		}
	}
	return incoming, nil
}

func taskChangedFields(old, new *models.Task) []string {
	fields := []string{}
	if old.Name != new.Name {
		fields = append(fields, daopolicy.FieldName)
	}
	if !equalIntPtr(old.Progress, new.Progress) {
		fields = append(fields, daopolicy.FieldProgress)
	}
	if old.IsApplicable != new.IsApplicable {
		fields = append(fields, daopolicy.FieldApplicable)
	}
	if !equalStrings(old.AssignedTo, new.AssignedTo) {
		fields = append(fields, daopolicy.FieldAssigned)
	}
	if old.Comment != new.Comment {
		fields = append(fields, daopolicy.FieldComment)
	}
	return fields
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UpdateTask applies a single-task update through the shared mutation
// policy and stamps the audit fields.
func (s *DaoService) UpdateTask(ctx context.Context, actor *models.User, daoID string, taskID int, req *UpdateTaskRequest) (*DaoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	dao, err := s.repo.GetByID(ctx, daoID)
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

	fields := []string{}
	if req.Name != nil && *req.Name != task.Name {
		fields = append(fields, daopolicy.FieldName)
	}
	if req.Progress != nil && !equalIntPtr(req.Progress, task.Progress) {
		fields = append(fields, daopolicy.FieldProgress)
	}
	if req.IsApplicable != nil && *req.IsApplicable != task.IsApplicable {
		fields = append(fields, daopolicy.FieldApplicable)
	}
	if req.AssignedTo != nil && !equalStrings(*req.AssignedTo, task.AssignedTo) {
		fields = append(fields, daopolicy.FieldAssigned)
	}
	if req.Comment != nil && *req.Comment != task.Comment {
		fields = append(fields, daopolicy.FieldComment)
	}
	if len(fields) == 0 {
		return toDaoResponse(dao), nil
	}

	if err := daopolicy.CheckTaskMutation(actor, dao, fields); err != nil {
		return nil, err
	}

	var newlyAssigned []string
	if req.AssignedTo != nil {
		newlyAssigned = diffStrings(*req.AssignedTo, task.AssignedTo)
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Progress != nil {
		task.Progress = req.Progress
	}
	if req.IsApplicable != nil {
		task.IsApplicable = *req.IsApplicable
	}
	if req.AssignedTo != nil {
		task.AssignedTo = *req.AssignedTo
	}
	if req.Comment != nil {
		task.Comment = *req.Comment
	}
	now := time.Now().UTC()
	task.LastUpdatedBy = actor.ID
	task.LastUpdatedAt = &now

	updated, err := s.repo.Update(ctx, daoID, repository.DaoUpdate{Tasks: &dao.Tasks})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrDaoNotFound
	}

	if len(newlyAssigned) > 0 {
		s.notifier.Notify(newlyAssigned, models.NotificationTaskAssigned,
			"Tache assignee",
			fmt.Sprintf("Vous avez ete assigne a %q sur le dossier %s", task.Name, updated.NumeroListe),
			map[string]interface{}{"daoId": updated.ID, "taskId": task.ID},
		)
		go s.emails.SendTaskAssigned(membersByIDs(updated, newlyAssigned), updated, task)
	} else {
		s.notifier.Notify(task.AssignedTo, models.NotificationTaskUpdated,
			"Tache mise a jour",
			fmt.Sprintf("La tache %q du dossier %s a ete modifiee", task.Name, updated.NumeroListe),
			map[string]interface{}{"daoId": updated.ID, "taskId": task.ID},
		)
	}

	return toDaoResponse(updated), nil
}

// diffStrings returns the elements of a that are missing from b.
func diffStrings(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	out := []string{}
	for _, v := range a {
		if !in[v] {
			out = append(out, v)
		}
	}
	return out
}

func membersByIDs(dao *models.Dao, ids []string) []models.TeamMember {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	members := []models.TeamMember{}
	for i := range dao.Equipe {
		if want[dao.Equipe[i].ID] {
			members = append(members, dao.Equipe[i])
		}
	}
	return members
}

// AddTask appends a task to the dossier. Admin-only.
func (s *DaoService) AddTask(ctx context.Context, actor *models.User, daoID string, req *CreateTaskRequest) (*DaoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := daopolicy.CanManageStructure(actor); err != nil {
		return nil, err
	}

	dao, err := s.repo.GetByID(ctx, daoID)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}

	assigned := req.AssignedTo
	if assigned == nil {
		assigned = []string{}
	}
	tasks := append(dao.Tasks, models.Task{
		ID:           dao.NextTaskID(),
		Name:         req.Name,
		IsApplicable: req.IsApplicable,
		AssignedTo:   assigned,
	})

	updated, err := s.repo.Update(ctx, daoID, repository.DaoUpdate{Tasks: &tasks})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	return toDaoResponse(updated), nil
}

// DeleteTask removes a task from the dossier. Admin-only.
func (s *DaoService) DeleteTask(ctx context.Context, actor *models.User, daoID string, taskID int) (*DaoResponse, error) {
	if err := daopolicy.CanManageStructure(actor); err != nil {
		return nil, err
	}

	dao, err := s.repo.GetByID(ctx, daoID)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	if dao.FindTask(taskID) == nil {
		return nil, apperrors.ErrTaskNotFound
	}

	tasks := make([]models.Task, 0, len(dao.Tasks)-1)
	for i := range dao.Tasks {
		if dao.Tasks[i].ID != taskID {
			tasks = append(tasks, dao.Tasks[i])
		}
	}

	updated, err := s.repo.Update(ctx, daoID, repository.DaoUpdate{Tasks: &tasks})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	return toDaoResponse(updated), nil
}

// ReorderTasks applies a full permutation of the dossier's task ids.
func (s *DaoService) ReorderTasks(ctx context.Context, actor *models.User, daoID string, req *ReorderTasksRequest) (*DaoResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	dao, err := s.repo.GetByID(ctx, daoID)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	if err := daopolicy.CanReorderTasks(actor, dao); err != nil {
		return nil, err
	}

	if len(req.TaskIDs) != len(dao.Tasks) {
		return nil, apperrors.ErrTaskOrderMismatch
	}
	byID := make(map[int]*models.Task, len(dao.Tasks))
	for i := range dao.Tasks {
		byID[dao.Tasks[i].ID] = &dao.Tasks[i]
	}
	reordered := make([]models.Task, 0, len(req.TaskIDs))
	seen := make(map[int]bool, len(req.TaskIDs))
	for _, id := range req.TaskIDs {
		task, ok := byID[id]
		if !ok || seen[id] {
			return nil, apperrors.ErrTaskOrderMismatch
		}
		seen[id] = true
		reordered = append(reordered, *task)
	}

	updated, err := s.repo.Update(ctx, daoID, repository.DaoUpdate{Tasks: &reordered})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrDaoNotFound
	}
	return toDaoResponse(updated), nil
}

// Delete removes the dossier and releases its sequence for bookkeeping.
func (s *DaoService) Delete(ctx context.Context, actor *models.User, id string) (bool, error) {
	if err := daopolicy.CanManageDossiers(actor); err != nil {
		return false, err
	}
	dao, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if dao == nil {
		return false, nil
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if year, _, ok := repository.ParseNumeroListe(dao.NumeroListe); ok {
		if err := s.allocator.Release(ctx, year); err != nil {
			s.log.WithField("numeroListe", dao.NumeroListe).Warnf("sequence release failed: %v", err)
		}
	}

	s.notifier.Broadcast(models.NotificationDaoDeleted,
		"DAO supprime",
		fmt.Sprintf("Le dossier %s a ete supprime", dao.NumeroListe),
		map[string]interface{}{"numeroListe": dao.NumeroListe},
	)
	return true, nil
}

// ClearAll empties the dossier collection and resets every yearly
// sequence baseline. Administrative reset path only.
func (s *DaoService) ClearAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	s.allocator.Reset()
	return nil
}

// SendDeadlineAlerts scans for dossiers entering the urgent window and
// fans out reminders. Called from the bootstrap ticker.
func (s *DaoService) SendDeadlineAlerts(ctx context.Context) error {
	now := time.Now()
	horizon := now.Add(3 * 24 * time.Hour)

	page := 1
	for {
		daos, total, err := s.repo.List(ctx, repository.ListFilter{
			DateFrom: &now,
			DateTo:   &horizon,
			Page:     page,
			PageSize: 100,
		})
		if err != nil {
			return err
		}
		for i := range daos {
			if daos[i].Status(now) != models.DaoStatusUrgent {
				continue
			}
			s.notifier.Broadcast(models.NotificationDeadlineAlert,
				"Date de depot imminente",
				fmt.Sprintf("Le dossier %s doit etre depose avant le %s",
					daos[i].NumeroListe, daos[i].DateDepot.Format("02/01/2006")),
				map[string]interface{}{"daoId": daos[i].ID},
			)
			go s.emails.SendDeadlineReminder(&daos[i])
		}
		if int64(page*100) >= total {
			return nil
		}
		page++
	}
}
