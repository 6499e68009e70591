package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-match-api/internal/repository"
	"github.com/noah-isme/tuition-match-api/pkg/cache"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func newRequestService(store *memStore, c *memCache) *TutorRequestService {
	cacheSvc := NewCacheService(c, nil, 0, nil, c != nil)
	return NewTutorRequestService(memRequests{store}, memAssignments{store}, directory, cacheSvc, NewMetricsService(), nil, nil)
}

func validCreate() dto.CreateTutorRequestRequest {
	return dto.CreateTutorRequestRequest{
		Subjects:    []string{"Math"},
		ClassLevels: []string{"Class 9"},
		District:    "Dhaka",
		Area:        "Mirpur",
		SalaryRange: dto.SalaryRange{Min: 3000, Max: 5000},
	}
}

func TestCreateRejectsInvertedSalaryRange(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)

	req := validCreate()
	req.SalaryRange = dto.SalaryRange{Min: 5000, Max: 3000}
	_, err := svc.Create(context.Background(), req, studentActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "min must be <= max")
	assert.Empty(t, store.requests)
}

func TestCreateSetsOwnerAndActive(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)

	created, err := svc.Create(context.Background(), validCreate(), studentActor)
	require.NoError(t, err)
	assert.Equal(t, models.TutorRequestActive, created.Status)
	assert.True(t, created.OwnedBy(studentActor.UserID))

	_, err = svc.Create(context.Background(), validCreate(), tutorActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCreatePublicRequiresContact(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)

	_, err := svc.CreatePublic(context.Background(), validCreate(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req := validCreate()
	req.ContactName = "Parent"
	req.ContactPhone = "+880100"
	created, err := svc.CreatePublic(context.Background(), req, "tutor-2")
	require.NoError(t, err)
	require.NotNil(t, created.PreferredTutorID)
	assert.Equal(t, "tutor-2", *created.PreferredTutorID)
	assert.Nil(t, created.StudentID)
}

func TestCreatePublicChecksPreferredTutor(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)
	req := validCreate()
	req.ContactName = "Parent"
	req.ContactPhone = "+880100"

	_, err := svc.CreatePublic(context.Background(), req, "no-such-tutor")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.CreatePublic(context.Background(), req, studentActor.UserID)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.requests)
}

// danglingRequests fails inserts the way Postgres does when student_id or
// preferred_tutor_id names no user.
type danglingRequests struct{ memRequests }

func (danglingRequests) Create(ctx context.Context, req *models.TutorRequest) error {
	return fmt.Errorf("insert tutor request: %w", repository.ErrMissingReference)
}

func TestCreateWithUnknownStudentIsValidationError(t *testing.T) {
	store := newMemStore()
	svc := NewTutorRequestService(danglingRequests{memRequests{store}}, memAssignments{store}, directory, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreate(), &models.JWTClaims{UserID: "ghost", Role: models.RoleStudent})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestUpdateRoundTripsEmptyAdminFields(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)
	req := store.addRequest(models.TutorRequestActive, studentActor.UserID)
	req.AdminNote = strPtr("call after 5pm")

	updated, err := svc.Update(context.Background(), req.ID, dto.UpdateTutorRequestRequest{
		AdminNote:    strPtr(""),
		UpdateNotice: strPtr(""),
	}, adminActor)
	require.NoError(t, err)
	require.NotNil(t, updated.AdminNote)
	assert.Equal(t, "", *updated.AdminNote)
	require.NotNil(t, updated.UpdateNotice)
	assert.Equal(t, "", *updated.UpdateNotice)

	stored := store.requests[req.ID]
	require.NotNil(t, stored.AdminNote)
	assert.Equal(t, "", *stored.AdminNote)
}

func TestUpdateAdminFieldsForbiddenForStudent(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)
	req := store.addRequest(models.TutorRequestActive, studentActor.UserID)

	_, err := svc.Update(context.Background(), req.ID, dto.UpdateTutorRequestRequest{AdminNote: strPtr("x")}, studentActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	area := "Uttara"
	updated, err := svc.Update(context.Background(), req.ID, dto.UpdateTutorRequestRequest{Area: &area}, studentActor)
	require.NoError(t, err)
	assert.Equal(t, "Uttara", updated.Area)
}

func TestUpdateStatusTable(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)
	req := store.addRequest(models.TutorRequestCompleted, studentActor.UserID)

	_, err := svc.UpdateStatus(context.Background(), req.ID, dto.UpdateTutorRequestStatusRequest{Status: models.TutorRequestActive}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)

	updated, err := svc.UpdateStatus(context.Background(), req.ID, dto.UpdateTutorRequestStatusRequest{Status: models.TutorRequestActive, Force: true}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.TutorRequestActive, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), req.ID, dto.UpdateTutorRequestStatusRequest{Status: models.TutorRequestInactive}, studentActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.UpdateStatus(context.Background(), "missing", dto.UpdateTutorRequestStatusRequest{Status: models.TutorRequestInactive}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListScopesByRole(t *testing.T) {
	store := newMemStore()
	svc := newRequestService(store, nil)
	store.addRequest(models.TutorRequestActive, studentActor.UserID)
	store.addRequest(models.TutorRequestInactive, studentActor.UserID)
	store.addRequest(models.TutorRequestActive, "student-2")

	items, page, err := svc.List(context.Background(), dto.TutorRequestQuery{}, studentActor)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, page.TotalCount)

	items, _, err = svc.List(context.Background(), dto.TutorRequestQuery{}, tutorActor)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, models.TutorRequestActive, item.Status)
	}

	items, _, err = svc.List(context.Background(), dto.TutorRequestQuery{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, _, err = svc.List(context.Background(), dto.TutorRequestQuery{}, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestDeleteInvalidatesAssignmentCache(t *testing.T) {
	store := newMemStore()
	c := &memCache{}
	svc := newRequestService(store, c)
	req := store.addRequest(models.TutorRequestActive, studentActor.UserID)

	err := svc.Delete(context.Background(), req.ID, &models.JWTClaims{UserID: "student-2", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), req.ID, studentActor))
	assert.Contains(t, c.deleted, cache.AssignmentsKey(req.ID))
	assert.NotContains(t, store.requests, req.ID)
}
