package service_test

import (
	"testing"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastVisibleToEveryone(t *testing.T) {
	svc := service.NewNotificationService()
	svc.Broadcast(models.NotificationDaoCreated, "t", "m", nil)

	assert.Len(t, svc.ListForUser("alice"), 1)
	assert.Len(t, svc.ListForUser("bob"), 1)
}

func TestNotifyTargetsOnlyRecipients(t *testing.T) {
	svc := service.NewNotificationService()
	svc.Notify([]string{"alice"}, models.NotificationTaskAssigned, "t", "m", nil)

	assert.Len(t, svc.ListForUser("alice"), 1)
	assert.Empty(t, svc.ListForUser("bob"))
}

func TestNotifyWithoutRecipientsRecordsNothing(t *testing.T) {
	svc := service.NewNotificationService()
	assert.Nil(t, svc.Notify(nil, models.NotificationTaskAssigned, "t", "m", nil))
	assert.Empty(t, svc.ListForUser("alice"))
}

func TestReadStateIsPerUser(t *testing.T) {
	svc := service.NewNotificationService()
	event := svc.Broadcast(models.NotificationDaoUpdated, "t", "m", nil)

	require.NoError(t, svc.MarkRead("alice", event.ID))

	aliceFeed := svc.ListForUser("alice")
	require.Len(t, aliceFeed, 1)
	assert.True(t, aliceFeed[0].Read)

	bobFeed := svc.ListForUser("bob")
	require.Len(t, bobFeed, 1)
	assert.False(t, bobFeed[0].Read)
}

func TestMarkReadRejectsInvisibleEvent(t *testing.T) {
	svc := service.NewNotificationService()
	event := svc.Notify([]string{"alice"}, models.NotificationTaskAssigned, "t", "m", nil)

	err := svc.MarkRead("bob", event.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	err = svc.MarkRead("alice", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc := service.NewNotificationService()
	svc.Broadcast(models.NotificationDaoCreated, "t1", "m", nil)
	svc.Notify([]string{"alice"}, models.NotificationTaskAssigned, "t2", "m", nil)
	svc.Notify([]string{"bob"}, models.NotificationTaskAssigned, "t3", "m", nil)

	svc.MarkAllRead("alice")

	for _, n := range svc.ListForUser("alice") {
		assert.True(t, n.Read)
	}
	bobFeed := svc.ListForUser("bob")
	for _, n := range bobFeed {
		assert.False(t, n.Read, n.Title)
	}
}

func TestFeedIsCappedAndNewestFirst(t *testing.T) {
	svc := service.NewNotificationService()
	for i := 0; i < 150; i++ {
		svc.Broadcast(models.NotificationDaoUpdated, "t", "m", map[string]interface{}{"i": i})
	}

	feed := svc.ListForUser("alice")
	assert.Len(t, feed, 100)
	// the newest event survives eviction
	assert.Equal(t, 149, feed[0].Data["i"])
}
