package models

import (
	"math"
	"time"
)

// TeamRole represents the role of a member inside a dossier team
type TeamRole string

const (
	TeamRoleLead   TeamRole = "chef_equipe"
	TeamRoleMember TeamRole = "membre_equipe"
)

// DaoStatus represents the derived delivery status of a dossier
type DaoStatus string

const (
	DaoStatusSafe      DaoStatus = "safe"
	DaoStatusUrgent    DaoStatus = "urgent"
	DaoStatusCompleted DaoStatus = "completed"
)

// urgentWindow is the number of days before the submission date at which
// a dossier switches from safe to urgent.
const urgentWindow = 3 * 24 * time.Hour

// TeamMember is a user embedded in a dossier team. It is not globally
// shared; the same user appears as a fresh TeamMember in each dossier.
type TeamMember struct {
	ID    string   `json:"id" bson:"id"`
	Name  string   `json:"name" bson:"name"`
	Role  TeamRole `json:"role" bson:"role"`
	Email string   `json:"email,omitempty" bson:"email,omitempty"`
}

// Task is a checklist entry of a dossier. The integer ID is unique only
// within its parent dossier.
type Task struct {
	ID            int        `json:"id" bson:"id"`
	Name          string     `json:"name" bson:"name"`
	Progress      *int       `json:"progress" bson:"progress"`
	Comment       string     `json:"comment,omitempty" bson:"comment,omitempty"`
	IsApplicable  bool       `json:"isApplicable" bson:"isApplicable"`
	AssignedTo    []string   `json:"assignedTo" bson:"assignedTo"`
	LastUpdatedBy string     `json:"lastUpdatedBy,omitempty" bson:"lastUpdatedBy,omitempty"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty" bson:"lastUpdatedAt,omitempty"`
}

// Dao is a tender dossier (Dossier d'Appel d'Offres)
type Dao struct {
	ID                   string       `json:"id" bson:"_id"`
	NumeroListe          string       `json:"numeroListe" bson:"numeroListe"`
	ObjetDossier         string       `json:"objetDossier" bson:"objetDossier"`
	Reference            string       `json:"reference" bson:"reference"`
	AutoriteContractante string       `json:"autoriteContractante" bson:"autoriteContractante"`
	DateDepot            time.Time    `json:"dateDepot" bson:"dateDepot"`
	Equipe               []TeamMember `json:"equipe" bson:"equipe"`
	Tasks                []Task       `json:"tasks" bson:"tasks"`
	CreatedAt            time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy sharing no memory with the receiver.
func (t *Task) Clone() Task {
	out := *t
	if t.Progress != nil {
		p := *t.Progress
		out.Progress = &p
	}
	out.AssignedTo = append([]string(nil), t.AssignedTo...)
	if t.LastUpdatedAt != nil {
		at := *t.LastUpdatedAt
		out.LastUpdatedAt = &at
	}
	return out
}

// Clone returns a deep copy whose Equipe and Tasks slices share no
// memory with the receiver.
func (d *Dao) Clone() Dao {
	out := *d
	out.Equipe = append([]TeamMember(nil), d.Equipe...)
	out.Tasks = make([]Task, len(d.Tasks))
	for i := range d.Tasks {
		out.Tasks[i] = d.Tasks[i].Clone()
	}
	return out
}

// TeamLead returns the member carrying the chef_equipe role, or nil.
func (d *Dao) TeamLead() *TeamMember {
	for i := range d.Equipe {
		if d.Equipe[i].Role == TeamRoleLead {
			return &d.Equipe[i]
		}
	}
	return nil
}

// HasMember reports whether the user appears in the dossier team,
// regardless of role. Membership is set-like by id.
func (d *Dao) HasMember(userID string) bool {
	for i := range d.Equipe {
		if d.Equipe[i].ID == userID {
			return true
		}
	}
	return false
}

// FindTask returns the task with the given id, or nil.
func (d *Dao) FindTask(taskID int) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == taskID {
			return &d.Tasks[i]
		}
	}
	return nil
}

// NextTaskID returns an id one past the highest task id in the dossier.
func (d *Dao) NextTaskID() int {
	max := 0
	for i := range d.Tasks {
		if d.Tasks[i].ID > max {
			max = d.Tasks[i].ID
		}
	}
	return max + 1
}

// CalculateProgress returns the overall progress of the dossier as the
// average of progress (nil counted as 0) over applicable tasks, rounded
// to the nearest integer. Returns 0 when no applicable task exists.
func (d *Dao) CalculateProgress() int {
	sum := 0
	applicable := 0
	for i := range d.Tasks {
		if !d.Tasks[i].IsApplicable {
			continue
		}
		applicable++
		if d.Tasks[i].Progress != nil {
			sum += *d.Tasks[i].Progress
		}
	}
	if applicable == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(applicable)))
}

// Status derives the delivery status from progress and the submission
// date. A fully progressed dossier is completed regardless of the date.
func (d *Dao) Status(now time.Time) DaoStatus {
	if d.CalculateProgress() >= 100 {
		return DaoStatusCompleted
	}
	if d.DateDepot.Sub(now) <= urgentWindow {
		return DaoStatusUrgent
	}
	return DaoStatusSafe
}
