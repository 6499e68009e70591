package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-match-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

var (
	adminActor   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	studentActor = &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	tutorActor   = &models.JWTClaims{UserID: "tutor-1", Role: models.RoleTutor}
	otherTutor   = &models.JWTClaims{UserID: "tutor-2", Role: models.RoleTutor}
)

// directory holds the accounts the actors above belong to.
var directory = staticUsers{
	"admin-1":   {ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin, Active: true},
	"student-1": {ID: "student-1", Email: "student@example.com", Role: models.RoleStudent, Active: true},
	"tutor-1":   {ID: "tutor-1", Email: "tutor1@example.com", Role: models.RoleTutor, Active: true},
	"tutor-2":   {ID: "tutor-2", Email: "tutor2@example.com", Role: models.RoleTutor, Active: true},
}

func strPtr(s string) *string { return &s }

// memStore is an in-memory stand-in for the repositories with transaction
// semantics: writes made inside a tx are discarded if the tx fails.
type memStore struct {
	mu          sync.Mutex
	requests    map[string]*models.TutorRequest
	assignments map[string]*models.TutorAssignment
	demos       map[string]*models.DemoClass
	apps        map[string]*models.Application

	failDemoCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		requests:    map[string]*models.TutorRequest{},
		assignments: map[string]*models.TutorAssignment{},
		demos:       map[string]*models.DemoClass{},
		apps:        map[string]*models.Application{},
	}
}

func (m *memStore) addRequest(status models.TutorRequestStatus, owner string) *models.TutorRequest {
	req := &models.TutorRequest{
		ID:          uuid.NewString(),
		Subjects:    []string{"Math"},
		ClassLevels: []string{"Class 9"},
		District:    "Dhaka",
		Area:        "Mirpur",
		Status:      status,
	}
	if owner != "" {
		req.StudentID = strPtr(owner)
	}
	m.requests[req.ID] = req
	return req
}

// runTx snapshots the store and restores it when fn fails.
func (m *memStore) runTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	m.mu.Lock()
	snapshot := m.clone()
	m.mu.Unlock()
	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.requests, m.assignments, m.demos, m.apps = snapshot.requests, snapshot.assignments, snapshot.demos, snapshot.apps
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.requests {
		cp := *v
		c.requests[k] = &cp
	}
	for k, v := range m.assignments {
		cp := *v
		c.assignments[k] = &cp
	}
	for k, v := range m.demos {
		cp := *v
		c.demos[k] = &cp
	}
	for k, v := range m.apps {
		cp := *v
		c.apps[k] = &cp
	}
	return c
}

// tutor request repository

type memRequests struct{ *memStore }

func (r memRequests) Create(ctx context.Context, req *models.TutorRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uuid.NewString()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r memRequests) FindByID(ctx context.Context, id string) (*models.TutorRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (r memRequests) LockByID(ctx context.Context, _ sqlx.ExtContext, id string) (*models.TutorRequest, error) {
	return r.FindByID(ctx, id)
}

func (r memRequests) List(ctx context.Context, filter models.TutorRequestFilter) ([]models.TutorRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorRequest
	for _, req := range r.requests {
		if filter.StudentID != "" && !req.OwnedBy(filter.StudentID) {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, s := range filter.Status {
				match = match || s == req.Status
			}
			if !match {
				continue
			}
		}
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (r memRequests) Update(ctx context.Context, req *models.TutorRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r memRequests) UpdateStatus(ctx context.Context, _ sqlx.ExtContext, id string, from, to models.TutorRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return repository.ErrStatusChanged
	}
	req.Status = to
	return nil
}

func (r memRequests) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.requests, id)
	for k, a := range r.assignments {
		if a.TutorRequestID == id {
			delete(r.assignments, k)
		}
	}
	return nil
}

// assignment repository

type memAssignments struct{ *memStore }

func (r memAssignments) ListByRequest(ctx context.Context, requestID string) ([]models.TutorAssignmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorAssignmentDetail
	for _, a := range r.assignments {
		if a.TutorRequestID == requestID {
			detail := models.TutorAssignmentDetail{TutorAssignment: *a}
			if user, ok := directory[a.TutorID]; ok {
				email := user.Email
				detail.TutorEmail = &email
			}
			out = append(out, detail)
		}
	}
	return out, nil
}

func (r memAssignments) FindByID(ctx context.Context, requestID, id string) (*models.TutorAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.TutorRequestID != requestID {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r memAssignments) FindActiveByPair(ctx context.Context, _ sqlx.ExtContext, requestID, tutorID string) (*models.TutorAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.TutorRequestID == requestID && a.TutorID == tutorID && a.Status.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memAssignments) HasTutor(ctx context.Context, requestID, tutorID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.TutorRequestID == requestID && a.TutorID == tutorID {
			return true, nil
		}
	}
	return false, nil
}

func (r memAssignments) Create(ctx context.Context, _ sqlx.ExtContext, a *models.TutorAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	a.Status = models.AssignmentPending
	a.AssignedAt = time.Now().UTC()
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r memAssignments) Reset(ctx context.Context, _ sqlx.ExtContext, a *models.TutorAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return sql.ErrNoRows
	}
	a.Status = models.AssignmentPending
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r memAssignments) UpdateStatus(ctx context.Context, id string, from, to models.AssignmentStatus, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status != from {
		return repository.ErrStatusChanged
	}
	a.Status = to
	if notes != nil {
		a.Notes = notes
	}
	return nil
}

func (r memAssignments) Delete(ctx context.Context, requestID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.TutorRequestID != requestID {
		return sql.ErrNoRows
	}
	delete(r.assignments, id)
	return nil
}

// demo class repository

type memDemos struct{ *memStore }

func (r memDemos) Create(ctx context.Context, _ sqlx.ExtContext, d *models.DemoClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDemoCreate {
		return sql.ErrConnDone
	}
	d.ID = uuid.NewString()
	cp := *d
	r.demos[d.ID] = &cp
	return nil
}

func (r memDemos) FindByID(ctx context.Context, id string) (*models.DemoClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (r memDemos) List(ctx context.Context, filter models.DemoClassFilter) ([]models.DemoClass, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DemoClass
	for _, d := range r.demos {
		if filter.TutorID != "" && d.TutorID != filter.TutorID {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (r memDemos) Update(ctx context.Context, d *models.DemoClass, expected models.DemoClassStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.demos[d.ID]
	if !ok || stored.Status != expected {
		return repository.ErrStatusChanged
	}
	cp := *d
	r.demos[d.ID] = &cp
	return nil
}

func (r memDemos) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.demos[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.demos, id)
	for _, a := range r.assignments {
		if a.DemoClassID != nil && *a.DemoClassID == id {
			a.DemoClassID = nil
		}
	}
	return nil
}

// application repository

type memApps struct{ *memStore }

func (r memApps) FindByPair(ctx context.Context, requestID, tutorID string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.TutorRequestID == requestID && a.TutorID == tutorID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memApps) FindByID(ctx context.Context, requestID, id string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.TutorRequestID != requestID {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r memApps) ListByRequest(ctx context.Context, requestID string) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, a := range r.apps {
		if a.TutorRequestID == requestID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r memApps) Create(ctx context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.TutorRequestID == app.TutorRequestID && a.TutorID == app.TutorID {
			return repository.ErrDuplicate
		}
	}
	app.ID = uuid.NewString()
	app.Status = models.ApplicationPending
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r memApps) Reactivate(ctx context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok || stored.Status != models.ApplicationWithdrawn {
		return repository.ErrStatusChanged
	}
	app.Status = models.ApplicationPending
	app.AdminNotes = nil
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r memApps) UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != from {
		return repository.ErrStatusChanged
	}
	a.Status = to
	if notes != nil {
		a.AdminNotes = notes
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(notifications ...models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notifications...)
}

type memCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	deleted []string
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = map[string][]byte{}
	}
	c.values[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}
