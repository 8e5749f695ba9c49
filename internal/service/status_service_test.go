package service

import (
	"context"
	"testing"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatusDefaultsToOperational(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	status, err := f.statuses.GetStatus(ctx, adminActor, pc.ID, "keyboard", models.PartStandard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, status)

	severity, err := f.statuses.ComputerSeverity(ctx, adminActor, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, severity)
}

func TestSetStatusIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	change := StatusChange{Part: "monitor", Status: models.StatusDamaged}
	first, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, change)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	require.NotNil(t, first.ReportID)

	second, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, change)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Nil(t, second.ReportID)
	assert.Equal(t, first.State.Version, second.State.Version)

	recs, err := f.statusRepo.ListStatusesForComputer(ctx, pc.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	reports, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestSetStatusValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "printer", Status: models.StatusDamaged})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "monitor", Status: "broken"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.statuses.SetStatus(ctx, adminActor, 999, StatusChange{Part: "monitor", Status: models.StatusDamaged})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.statuses.SetStatus(ctx, deanActor, pc.ID, StatusChange{Part: "monitor", Status: models.StatusDamaged})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSetStatusExpectedVersion(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	zero := uint(0)
	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "hdmi", Status: models.StatusNotOperational, ExpectedVersion: &zero})
	require.NoError(t, err)
	assert.Equal(t, uint(1), out.State.Version)

	// a writer still holding version 0 loses
	_, err = f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "hdmi", Status: models.StatusOperational, ExpectedVersion: &zero})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	one := uint(1)
	out, err = f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "hdmi", Status: models.StatusOperational, ExpectedVersion: &one})
	require.NoError(t, err)
	assert.Equal(t, uint(2), out.State.Version)

	// omitted version: last writer wins
	_, err = f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "hdmi", Status: models.StatusMissing})
	assert.NoError(t, err)
}

func TestSetStatusRespectsTechnicianLabScope(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	assigned := f.lab(t, "CL 1")
	other := f.lab(t, "CL 2")
	inScope := f.computer(t, assigned.ID, "PC 1")
	outOfScope := f.computer(t, other.ID, "PC 1")

	tech := f.user(t, "Tina", models.RoleTechnician, "secret123")

	// unassigned technicians work everywhere
	_, err := f.statuses.SetStatus(ctx, tech, outOfScope.ID, StatusChange{Part: "mouse", Status: models.StatusMissing})
	require.NoError(t, err)

	require.NoError(t, f.users.AssignLab(ctx, adminActor, tech.UserID, assigned.ID))

	_, err = f.statuses.SetStatus(ctx, tech, outOfScope.ID, StatusChange{Part: "mouse", Status: models.StatusOperational})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.statuses.SetStatus(ctx, tech, inScope.ID, StatusChange{Part: "mouse", Status: models.StatusMissing})
	assert.NoError(t, err)
}

func TestListAllStatusesFillsDefaults(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "Webcam")

	_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "Webcam", Kind: models.PartCustom, Status: models.StatusDamaged})
	require.NoError(t, err)

	all, err := f.statuses.ListAllStatuses(ctx, adminActor, "")
	require.NoError(t, err)
	assert.Len(t, all, len(models.StandardPartNames)+1)

	custom, err := f.statuses.ListAllStatuses(ctx, adminActor, models.PartCustom)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Webcam", custom[0].Part)
	assert.Equal(t, models.StatusDamaged, custom[0].Status)

	severity, err := f.statuses.ComputerSeverity(ctx, adminActor, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDamaged, severity)
}
