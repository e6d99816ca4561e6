package daopolicy_test

import (
	"testing"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/policy/daopolicy"
	"dao-tracker-backend/internal/testutils"

	"github.com/stretchr/testify/assert"
)

func fixtures() (admin, adminLead, lead, member, outsider, viewer *models.User, dao *models.Dao) {
	users := testutils.NewUserFactory()
	admin = users.Admin()
	adminLead = users.Admin()
	adminLead.ID = "admin-lead"
	lead = users.WithID("lead-1")
	member = users.WithID("member-1")
	outsider = users.WithID("outsider-1")
	viewer = users.Viewer()

	dao = testutils.NewDaoFactory().Create()
	dao.Equipe = append(dao.Equipe, models.TeamMember{
		ID: adminLead.ID, Name: adminLead.Name, Role: models.TeamRoleMember,
	})
	return
}

func TestCheckTaskMutation(t *testing.T) {
	admin, adminLead, lead, member, outsider, viewer, dao := fixtures()

	// make adminLead the actual chef_equipe of a second dossier
	ledDao := testutils.NewDaoFactory().Create()
	ledDao.Equipe = []models.TeamMember{
		{ID: adminLead.ID, Name: adminLead.Name, Role: models.TeamRoleLead},
	}

	testCases := []struct {
		name    string
		user    *models.User
		dao     *models.Dao
		fields  []string
		wantErr error
	}{
		{
			name:    "admin not leading cannot change progress",
			user:    admin,
			dao:     dao,
			fields:  []string{daopolicy.FieldProgress},
			wantErr: apperrors.ErrAdminNotLeader,
		},
		{
			name:    "admin not leading cannot change applicability",
			user:    admin,
			dao:     dao,
			fields:  []string{daopolicy.FieldApplicable},
			wantErr: apperrors.ErrAdminNotLeader,
		},
		{
			name:    "admin not leading cannot reassign",
			user:    admin,
			dao:     dao,
			fields:  []string{daopolicy.FieldAssigned},
			wantErr: apperrors.ErrAdminNotLeader,
		},
		{
			name:   "admin not leading can rename a task",
			user:   admin,
			dao:    dao,
			fields: []string{daopolicy.FieldName},
		},
		{
			name:   "admin not leading can edit the comment field",
			user:   admin,
			dao:    dao,
			fields: []string{daopolicy.FieldComment},
		},
		{
			name:   "admin leading can change progress",
			user:   adminLead,
			dao:    ledDao,
			fields: []string{daopolicy.FieldProgress},
		},
		{
			name:   "lead can change progress and assignment",
			user:   lead,
			dao:    dao,
			fields: []string{daopolicy.FieldProgress, daopolicy.FieldAssigned},
		},
		{
			name:    "lead cannot rename a task",
			user:    lead,
			dao:     dao,
			fields:  []string{daopolicy.FieldName},
			wantErr: apperrors.ErrAdminOnly,
		},
		{
			name:    "mixed rename and progress by admin still gated",
			user:    admin,
			dao:     dao,
			fields:  []string{daopolicy.FieldName, daopolicy.FieldProgress},
			wantErr: apperrors.ErrAdminNotLeader,
		},
		{
			name:    "plain member cannot change progress",
			user:    member,
			dao:     dao,
			fields:  []string{daopolicy.FieldProgress},
			wantErr: apperrors.ErrNotTeamLead,
		},
		{
			name:    "outsider cannot change anything",
			user:    outsider,
			dao:     dao,
			fields:  []string{daopolicy.FieldProgress},
			wantErr: apperrors.ErrNotTeamLead,
		},
		{
			name:    "viewer is always read-only",
			user:    viewer,
			dao:     dao,
			fields:  []string{daopolicy.FieldComment},
			wantErr: apperrors.ErrViewerReadOnly,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := daopolicy.CheckTaskMutation(tc.user, tc.dao, tc.fields)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdminNotLeaderCarriesCode(t *testing.T) {
	admin, _, _, _, _, _, dao := fixtures()
	err := daopolicy.CheckTaskMutation(admin, dao, []string{daopolicy.FieldProgress})
	assert.Equal(t, apperrors.CodeAdminNotLeader, apperrors.AuthorizationCode(err))
}

func TestCanManageTeam(t *testing.T) {
	admin, _, lead, member, _, _, dao := fixtures()
	assert.NoError(t, daopolicy.CanManageTeam(admin, dao))
	assert.NoError(t, daopolicy.CanManageTeam(lead, dao))
	assert.ErrorIs(t, daopolicy.CanManageTeam(member, dao), apperrors.ErrNotTeamLead)
}

func TestCanComment(t *testing.T) {
	admin, _, lead, member, outsider, viewer, dao := fixtures()
	assert.NoError(t, daopolicy.CanComment(admin, dao))
	assert.NoError(t, daopolicy.CanComment(lead, dao))
	assert.NoError(t, daopolicy.CanComment(member, dao))
	assert.ErrorIs(t, daopolicy.CanComment(outsider, dao), apperrors.ErrNotTeamLead)
	assert.ErrorIs(t, daopolicy.CanComment(viewer, dao), apperrors.ErrViewerReadOnly)
}

func TestCanReorderTasks(t *testing.T) {
	admin, _, lead, member, _, viewer, dao := fixtures()
	assert.NoError(t, daopolicy.CanReorderTasks(admin, dao))
	assert.NoError(t, daopolicy.CanReorderTasks(lead, dao))
	assert.ErrorIs(t, daopolicy.CanReorderTasks(member, dao), apperrors.ErrNotTeamLead)
	assert.ErrorIs(t, daopolicy.CanReorderTasks(viewer, dao), apperrors.ErrViewerReadOnly)
}

func TestCanEditDaoFields(t *testing.T) {
	admin, _, lead, _, _, _, _ := fixtures()
	assert.NoError(t, daopolicy.CanEditDaoFields(admin))
	assert.ErrorIs(t, daopolicy.CanEditDaoFields(lead), apperrors.ErrAdminOnly)
}
