package models_test

import (
	"testing"
	"time"

	"dao-tracker-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCalculateProgress(t *testing.T) {
	testCases := []struct {
		name  string
		tasks []models.Task
		want  int
	}{
		{
			name: "averages applicable tasks with nil as zero",
			tasks: []models.Task{
				{ID: 1, Progress: intPtr(50), IsApplicable: true},
				{ID: 2, Progress: intPtr(100), IsApplicable: true},
				{ID: 3, Progress: nil, IsApplicable: true},
				{ID: 4, Progress: intPtr(80), IsApplicable: false},
			},
			want: 50,
		},
		{
			name: "rounds to the nearest integer",
			tasks: []models.Task{
				{ID: 1, Progress: intPtr(50), IsApplicable: true},
				{ID: 2, Progress: intPtr(64), IsApplicable: true},
				{ID: 3, Progress: nil, IsApplicable: true},
			},
			want: 38,
		},
		{
			name:  "no tasks means zero",
			tasks: nil,
			want:  0,
		},
		{
			name: "no applicable tasks means zero",
			tasks: []models.Task{
				{ID: 1, Progress: intPtr(100), IsApplicable: false},
			},
			want: 0,
		},
		{
			name: "fully progressed",
			tasks: []models.Task{
				{ID: 1, Progress: intPtr(100), IsApplicable: true},
				{ID: 2, Progress: intPtr(100), IsApplicable: true},
			},
			want: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dao := &models.Dao{Tasks: tc.tasks}
			assert.Equal(t, tc.want, dao.CalculateProgress())
		})
	}
}

func TestStatus(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		dateDepot time.Time
		tasks     []models.Task
		want      models.DaoStatus
	}{
		{
			name:      "far deadline is safe",
			dateDepot: now.Add(10 * 24 * time.Hour),
			tasks:     []models.Task{{ID: 1, Progress: intPtr(10), IsApplicable: true}},
			want:      models.DaoStatusSafe,
		},
		{
			name:      "deadline within three days is urgent",
			dateDepot: now.Add(2 * 24 * time.Hour),
			tasks:     []models.Task{{ID: 1, Progress: intPtr(10), IsApplicable: true}},
			want:      models.DaoStatusUrgent,
		},
		{
			name:      "deadline exactly three days away is urgent",
			dateDepot: now.Add(3 * 24 * time.Hour),
			tasks:     []models.Task{{ID: 1, Progress: intPtr(10), IsApplicable: true}},
			want:      models.DaoStatusUrgent,
		},
		{
			name:      "past deadline is urgent, not safe",
			dateDepot: now.Add(-24 * time.Hour),
			tasks:     []models.Task{{ID: 1, Progress: intPtr(10), IsApplicable: true}},
			want:      models.DaoStatusUrgent,
		},
		{
			name:      "full progress wins over a close deadline",
			dateDepot: now.Add(24 * time.Hour),
			tasks:     []models.Task{{ID: 1, Progress: intPtr(100), IsApplicable: true}},
			want:      models.DaoStatusCompleted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dao := &models.Dao{DateDepot: tc.dateDepot, Tasks: tc.tasks}
			assert.Equal(t, tc.want, dao.Status(now))
		})
	}
}

func TestTeamLead(t *testing.T) {
	dao := &models.Dao{Equipe: []models.TeamMember{
		{ID: "m1", Role: models.TeamRoleMember},
		{ID: "l1", Role: models.TeamRoleLead},
	}}
	lead := dao.TeamLead()
	assert.NotNil(t, lead)
	assert.Equal(t, "l1", lead.ID)

	empty := &models.Dao{}
	assert.Nil(t, empty.TeamLead())
}

func TestNextTaskID(t *testing.T) {
	dao := &models.Dao{Tasks: []models.Task{{ID: 2}, {ID: 7}, {ID: 3}}}
	assert.Equal(t, 8, dao.NextTaskID())

	empty := &models.Dao{}
	assert.Equal(t, 1, empty.NextTaskID())
}
