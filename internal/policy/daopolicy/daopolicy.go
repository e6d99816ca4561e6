// Package daopolicy provides the authorization policy for dossier and
// task mutation. It is the single source of truth consumed by both the
// bulk dossier update and the single-task update paths.
//
// Authorization rules, in priority order:
//   - Admins may perform every operation except changing a task's
//     progress, applicability or assignment on a dossier they do not
//     lead ("admin owns structure, lead owns execution state").
//   - The dossier's team lead (chef_equipe) may change task progress,
//     applicability and assignment, manage team membership, and reorder
//     tasks for that dossier.
//   - A team member (membre_equipe) may view and comment only.
//   - Any other authenticated user is denied.
//
// All checks are pure and side-effect-free.
package daopolicy

import (
	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
)

// Task field names as they appear in update requests.
const (
	FieldName       = "name"
	FieldProgress   = "progress"
	FieldApplicable = "isApplicable"
	FieldAssigned   = "assignedTo"
	FieldComment    = "comment"
)

// leadGated lists the execution-state fields only the team lead (or an
// admin who is also the lead) may change. The free-text comment field is
// deliberately not gated: both admins and leads may set it.
var leadGated = map[string]bool{
	FieldProgress:   true,
	FieldApplicable: true,
	FieldAssigned:   true,
}

// IsLeadGated reports whether a task field is execution state.
func IsLeadGated(field string) bool {
	return leadGated[field]
}

// IsTeamLead reports whether the user is the chef_equipe of the dossier.
func IsTeamLead(user *models.User, dao *models.Dao) bool {
	lead := dao.TeamLead()
	return lead != nil && lead.ID == user.ID
}

// CheckTaskMutation decides whether the user may change the given task
// fields on the dossier. Used by both the bulk dossier update and the
// single-task update so the two paths cannot diverge.
func CheckTaskMutation(user *models.User, dao *models.Dao, fields []string) error {
	if user.Role == models.UserRoleViewer {
		return apperrors.ErrViewerReadOnly
	}

	var touchesGated, touchesStructure bool
	for _, f := range fields {
		switch {
		case leadGated[f]:
			touchesGated = true
		case f == FieldComment:
			// neutral: admin or lead
		default:
			touchesStructure = true
		}
	}

	isLead := IsTeamLead(user, dao)

	if user.IsAdmin() {
		if touchesGated && !isLead {
			return apperrors.ErrAdminNotLeader
		}
		return nil
	}

	// Renaming (and by extension task create/delete) is admin-only.
	if touchesStructure {
		return apperrors.ErrAdminOnly
	}
	if isLead {
		return nil
	}
	return apperrors.ErrNotTeamLead
}

// CanEditDaoFields reports whether the user may edit dossier-level
// fields (objet, reference, autorite, dateDepot). Admin-only.
func CanEditDaoFields(user *models.User) error {
	if !user.IsAdmin() {
		return apperrors.ErrAdminOnly
	}
	return nil
}

// CanManageDossiers reports whether the user may create or delete
// dossiers. Admin-only.
func CanManageDossiers(user *models.User) error {
	if !user.IsAdmin() {
		return apperrors.ErrAdminOnly
	}
	return nil
}

// CanManageStructure reports whether the user may create, delete or
// rename tasks. Admin-only regardless of team-lead status.
func CanManageStructure(user *models.User) error {
	if !user.IsAdmin() {
		return apperrors.ErrAdminOnly
	}
	return nil
}

// CanManageTeam reports whether the user may change the dossier team.
func CanManageTeam(user *models.User, dao *models.Dao) error {
	if user.IsAdmin() || IsTeamLead(user, dao) {
		return nil
	}
	return apperrors.ErrNotTeamLead
}

// CanReorderTasks reports whether the user may reorder the task list.
func CanReorderTasks(user *models.User, dao *models.Dao) error {
	if user.Role == models.UserRoleViewer {
		return apperrors.ErrViewerReadOnly
	}
	if user.IsAdmin() || IsTeamLead(user, dao) {
		return nil
	}
	return apperrors.ErrNotTeamLead
}

// CanComment reports whether the user may comment on the dossier's
// tasks: admins and any listed team member, but never viewers.
func CanComment(user *models.User, dao *models.Dao) error {
	if user.Role == models.UserRoleViewer {
		return apperrors.ErrViewerReadOnly
	}
	if user.IsAdmin() || dao.HasMember(user.ID) {
		return nil
	}
	return apperrors.ErrNotTeamLead
}
