package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func seedDemo(store *memStore, id string, status models.DemoClassStatus) {
	store.demos[id] = &models.DemoClass{ID: id, TutorID: "tutor-1", Status: status, RequestedDate: time.Now(), DurationMinutes: 60}
}

func demoStatus(s models.DemoClassStatus) *models.DemoClassStatus { return &s }

func TestCompletedDemoCannotBeCancelled(t *testing.T) {
	store := newMemStore()
	svc := NewDemoClassService(memDemos{store}, nil, nil, nil)
	seedDemo(store, "d1", models.DemoCompleted)

	_, err := svc.Update(context.Background(), "d1", dto.UpdateDemoClassRequest{Status: demoStatus(models.DemoCancelled)}, adminActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
	assert.Equal(t, models.DemoCompleted, store.demos["d1"].Status)
}

func TestTerminalDemoAllowsNotesOnly(t *testing.T) {
	store := newMemStore()
	svc := NewDemoClassService(memDemos{store}, nil, nil, nil)
	seedDemo(store, "d1", models.DemoCancelled)

	updated, err := svc.Update(context.Background(), "d1", dto.UpdateDemoClassRequest{AdminNotes: strPtr("")}, adminActor)
	require.NoError(t, err)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, "", *updated.AdminNotes)

	later := time.Now().Add(48 * time.Hour)
	_, err = svc.Update(context.Background(), "d1", dto.UpdateDemoClassRequest{RequestedDate: &later}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestDemoPendingAcceptedBackAndForth(t *testing.T) {
	store := newMemStore()
	svc := NewDemoClassService(memDemos{store}, NewMetricsService(), nil, nil)
	seedDemo(store, "d1", models.DemoPending)

	for _, next := range []models.DemoClassStatus{models.DemoAccepted, models.DemoPending, models.DemoAccepted, models.DemoCompleted} {
		updated, err := svc.Update(context.Background(), "d1", dto.UpdateDemoClassRequest{Status: demoStatus(next)}, adminActor)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	duration := 10
	_, err := svc.Update(context.Background(), "d1", dto.UpdateDemoClassRequest{Duration: &duration}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDemoClassAdminOnly(t *testing.T) {
	store := newMemStore()
	svc := NewDemoClassService(memDemos{store}, nil, nil, nil)
	seedDemo(store, "d1", models.DemoPending)

	_, err := svc.Get(context.Background(), "d1", tutorActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, _, err = svc.List(context.Background(), dto.DemoClassQuery{}, studentActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), "d1", tutorActor), appErrors.ErrForbidden)

	demos, page, err := svc.List(context.Background(), dto.DemoClassQuery{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, demos, 1)
	assert.Equal(t, 1, page.TotalCount)

	require.NoError(t, svc.Delete(context.Background(), "d1", adminActor))
	_, err = svc.Get(context.Background(), "d1", adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
