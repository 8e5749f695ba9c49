package service

import (
	"context"
	"testing"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLabRejectsDuplicateName(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.lab(t, "CL 1")

	_, err := f.labs.CreateLab(ctx, adminActor, "CL 1", "Building B")
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	_, err = f.labs.CreateLab(ctx, adminActor, "  ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateLabRequiresWriteLab(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.labs.CreateLab(context.Background(), techActor, "CL 9", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRenameOrRelocate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	first := f.lab(t, "CL 1")
	f.lab(t, "CL 2")

	taken := "CL 2"
	_, err := f.labs.RenameOrRelocate(ctx, adminActor, first.ID, &taken, nil)
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	location := "Annex"
	lab, err := f.labs.RenameOrRelocate(ctx, adminActor, first.ID, nil, &location)
	require.NoError(t, err)
	assert.Equal(t, "CL 1", lab.Name)
	assert.Equal(t, "Annex", lab.Location)

	_, err = f.labs.RenameOrRelocate(ctx, adminActor, 999, nil, &location)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteLabWithComputersConflicts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	f.computer(t, lab.ID, "PC 1")

	err := f.labs.DeleteLab(ctx, adminActor, "CL 1")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	counts, err := f.labs.PCCountByLab(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].PCCount)
}

func TestDeleteLabCascade(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "monitor", Status: models.StatusDamaged})
	require.NoError(t, err)
	_, err = f.accessories.AddAccessories(ctx, adminActor, []AccessoryInput{{LabID: lab.ID, Name: "Projector", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.labs.DeleteLab(ctx, adminActor, "CL 1"))

	_, err = f.computers.GetComputer(ctx, adminActor, pc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	reports, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Empty(t, reports)

	items, err := f.accessories.ListAccessories(ctx, adminActor, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteUnknownLab(t *testing.T) {
	f := newFixture(t, false)

	err := f.labs.DeleteLab(context.Background(), adminActor, "Nowhere")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListLabsOrderedByName(t *testing.T) {
	f := newFixture(t, false)
	f.lab(t, "CL 2")
	f.lab(t, "CL 1")

	seq, err := f.labs.ListLabs(context.Background(), adminActor)
	require.NoError(t, err)

	var names []string
	for lab, err := range seq {
		require.NoError(t, err)
		names = append(names, lab.Name)
	}
	assert.Equal(t, []string{"CL 1", "CL 2"}, names)
}
