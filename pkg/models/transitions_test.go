package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentTerminalStatesHaveNoExit(t *testing.T) {
	all := []AssignmentStatus{AssignmentPending, AssignmentAccepted, AssignmentRejected, AssignmentCompleted}
	for _, terminal := range []AssignmentStatus{AssignmentRejected, AssignmentCompleted} {
		assert.True(t, terminal.Terminal())
		assert.Empty(t, NextAssignmentStatuses(terminal))
		for _, to := range all {
			assert.False(t, CanTransitionAssignment(terminal, to), "%s -> %s", terminal, to)
		}
	}
	assert.False(t, AssignmentPending.Terminal())
}

func TestAssignmentRoleGating(t *testing.T) {
	// tutor may answer a pending assignment
	assert.True(t, AssignmentTransitionAllowed(AssignmentPending, AssignmentAccepted, false, true))
	assert.True(t, AssignmentTransitionAllowed(AssignmentPending, AssignmentRejected, false, true))
	// completion and override rejection are staff only
	assert.False(t, AssignmentTransitionAllowed(AssignmentAccepted, AssignmentCompleted, false, true))
	assert.False(t, AssignmentTransitionAllowed(AssignmentAccepted, AssignmentRejected, false, true))
	assert.True(t, AssignmentTransitionAllowed(AssignmentAccepted, AssignmentCompleted, true, false))
	// strangers get nothing
	assert.False(t, AssignmentTransitionAllowed(AssignmentPending, AssignmentAccepted, false, false))
	// pending cannot skip to completed
	assert.False(t, AssignmentTransitionAllowed(AssignmentPending, AssignmentCompleted, true, false))
}

func TestDemoClassTransitions(t *testing.T) {
	assert.True(t, CanTransitionDemoClass(DemoPending, DemoAccepted))
	assert.True(t, CanTransitionDemoClass(DemoAccepted, DemoPending))
	assert.True(t, CanTransitionDemoClass(DemoAccepted, DemoCompleted))
	assert.False(t, CanTransitionDemoClass(DemoCompleted, DemoCancelled))
	assert.False(t, CanTransitionDemoClass(DemoCancelled, DemoPending))
	assert.True(t, DemoRejected.Terminal())
	assert.False(t, DemoAccepted.Terminal())
}

func TestApplicationTransitions(t *testing.T) {
	assert.True(t, CanTransitionApplication(ApplicationRejected, ApplicationWithdrawn))
	assert.True(t, CanTransitionApplication(ApplicationWithdrawn, ApplicationPending))
	assert.False(t, CanTransitionApplication(ApplicationRejected, ApplicationPending))
	assert.ElementsMatch(t, []ApplicationStatus{ApplicationApproved, ApplicationRejected, ApplicationWithdrawn}, NextApplicationStatuses(ApplicationPending))
}

func TestTutorRequestTransitions(t *testing.T) {
	assert.True(t, CanTransitionTutorRequest(TutorRequestActive, TutorRequestAssign))
	assert.True(t, CanTransitionTutorRequest(TutorRequestInactive, TutorRequestActive))
	assert.False(t, CanTransitionTutorRequest(TutorRequestCompleted, TutorRequestActive))
	assert.False(t, CanTransitionTutorRequest(TutorRequestAssign, TutorRequestActive))
	assert.True(t, TutorRequestAssign.Valid())
	assert.False(t, TutorRequestStatus("Archived").Valid())

	next := NextTutorRequestStatuses(TutorRequestActive)
	next[0] = TutorRequestCompleted
	assert.Equal(t, TutorRequestInactive, NextTutorRequestStatuses(TutorRequestActive)[0])
}
