package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

var assignmentRowColumns = []string{"id", "tutor_request_id", "tutor_id", "status", "assigned_by", "assigned_at", "updated_at", "notes", "demo_class_id"}

func TestAssignmentListByRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTutorAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(append(assignmentRowColumns, "tutor_name", "tutor_email")).
		AddRow("a1", "r1", "t1", "pending", "admin", now, now, nil, "d1", "Tutor One", "t1@example.com")
	mock.ExpectQuery("FROM tutor_assignments ta").WithArgs("r1").WillReturnRows(rows)

	items, err := repo.ListByRequest(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tutor One", *items[0].TutorName)
	assert.Equal(t, "d1", *items[0].DemoClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentFindActiveByPairInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTutorAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status IN ('pending', 'accepted')")).
		WithArgs("r1", "t1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO tutor_assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	_, err = repo.FindActiveByPair(context.Background(), tx, "r1", "t1")
	require.ErrorIs(t, err, sql.ErrNoRows)

	assignment := &models.TutorAssignment{TutorRequestID: "r1", TutorID: "t1", AssignedBy: "admin"}
	require.NoError(t, repo.Create(context.Background(), tx, assignment))
	require.NoError(t, tx.Commit())

	assert.Equal(t, models.AssignmentPending, assignment.Status)
	assert.NotEmpty(t, assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateStatusConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTutorAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $4 AND status = $5")).
		WithArgs(models.AssignmentAccepted, nil, sqlmock.AnyArg(), "a1", models.AssignmentPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "a1", models.AssignmentPending, models.AssignmentAccepted, nil)
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTutorAssignmentRepository(db)

	mock.ExpectExec("DELETE FROM tutor_assignments").WithArgs("a1", "r1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "r1", "a1"), sql.ErrNoRows)
}
