package service

import (
	"context"
	"testing"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkNames(t *testing.T) {
	names := BulkNames("PC ", 1, 20)
	require.Len(t, names, 20)
	assert.Equal(t, "PC 1", names[0])
	assert.Equal(t, "PC 20", names[19])

	assert.Equal(t, []string{"WS-7", "WS-8"}, BulkNames("WS-", 7, 2))
}

func TestAddComputerNameRules(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	other := f.lab(t, "CL 2")
	f.computer(t, lab.ID, "PC 1")

	_, err := f.computers.AddComputer(ctx, adminActor, lab.ID, ComputerInput{PCName: "pc 1"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	// names are unique per lab only
	_, err = f.computers.AddComputer(ctx, adminActor, other.ID, ComputerInput{PCName: "PC 1"})
	assert.NoError(t, err)

	_, err = f.computers.AddComputer(ctx, adminActor, 999, ComputerInput{PCName: "PC 2"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddComputerStoresEveryStandardSlot(t *testing.T) {
	f := newFixture(t, false)
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "Webcam")

	stored, err := f.computers.GetComputer(context.Background(), adminActor, pc.ID)
	require.NoError(t, err)
	specs := stored.Specs.Data()
	assert.Len(t, specs, len(models.StandardPartNames))
	assert.Equal(t, "Dell P2419H", specs["monitor"].Name)
	assert.Equal(t, []models.CustomPart{{Name: "Webcam"}}, stored.OtherParts.Data())
}

func TestAddComputersBulk(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")

	created, err := f.computers.AddComputersBulk(ctx, adminActor, lab.ID, BulkTemplate{Prefix: "PC ", StartNumber: 1, Count: 20})
	require.NoError(t, err)
	assert.Len(t, created, 20)

	list, err := f.computers.ListComputers(ctx, adminActor, lab.ID)
	require.NoError(t, err)
	assert.Len(t, list, 20)
	assert.Equal(t, "CL 1", list[0].LabName)
}

func TestAddComputersBulkIsAtomicOnCollision(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	f.computer(t, lab.ID, "PC 5")

	_, err := f.computers.AddComputersBulk(ctx, adminActor, lab.ID, BulkTemplate{Prefix: "PC ", StartNumber: 1, Count: 10})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := f.computers.ListComputers(ctx, adminActor, lab.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddComputersListRejectsCollisionWithinBatch(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")

	_, err := f.computers.AddComputersList(ctx, adminActor, lab.ID, []ComputerInput{{PCName: "PC 1"}, {PCName: "pc 1"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := f.computers.ListComputers(ctx, adminActor, lab.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddComputersBulkLimits(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")

	_, err := f.computers.AddComputersBulk(ctx, adminActor, lab.ID, BulkTemplate{Prefix: "PC ", StartNumber: 1, Count: 101})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.computers.AddComputersBulk(ctx, adminActor, lab.ID, BulkTemplate{Prefix: "PC ", StartNumber: 1, Count: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.computers.AddComputersBulk(ctx, techActor, lab.ID, BulkTemplate{Prefix: "PC ", StartNumber: 1, Count: 2})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEditComputer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "Webcam", "Speaker")
	f.computer(t, lab.ID, "PC 2")

	_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "Webcam", Kind: models.PartCustom, Status: models.StatusMissing})
	require.NoError(t, err)

	taken := "PC 2"
	_, err = f.computers.EditComputer(ctx, adminActor, pc.ID, ComputerPatch{PCName: &taken})
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	name := "PC 10"
	others := []models.CustomPart{{Name: "Speaker"}}
	edited, err := f.computers.EditComputer(ctx, adminActor, pc.ID, ComputerPatch{PCName: &name, OtherParts: &others})
	require.NoError(t, err)
	assert.Equal(t, "PC 10", edited.PCName)

	// the removed custom part takes its status row with it
	rec, err := f.statusRepo.GetStatus(ctx, pc.ID, "Webcam", models.PartCustom)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = f.computers.EditComputer(ctx, adminActor, 999, ComputerPatch{PCName: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteComputerCascades(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "mouse", Status: models.StatusMissing})
	require.NoError(t, err)

	require.NoError(t, f.computers.DeleteComputer(ctx, adminActor, pc.ID))

	rec, err := f.statusRepo.GetStatus(ctx, pc.ID, "mouse", models.PartStandard)
	require.NoError(t, err)
	assert.Nil(t, rec)
	reports, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Empty(t, reports)

	assert.ErrorIs(t, f.computers.DeleteComputer(ctx, adminActor, pc.ID), apperr.ErrNotFound)
}

func TestDeleteComputersBulkSkipsUnknownIDs(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	a := f.computer(t, lab.ID, "PC 1")
	b := f.computer(t, lab.ID, "PC 2")

	result, err := f.computers.DeleteComputersBulk(ctx, adminActor, []uint{a.ID, 999, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, result.Deleted)
	assert.Equal(t, []uint{999}, result.Skipped)

	list, err := f.computers.ListComputers(ctx, adminActor, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeanCannotMutateComputers(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	_, err := f.computers.AddComputer(ctx, deanActor, lab.ID, ComputerInput{PCName: "PC 2"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	name := "PC 9"
	_, err = f.computers.EditComputer(ctx, deanActor, pc.ID, ComputerPatch{PCName: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.ErrorIs(t, f.computers.DeleteComputer(ctx, deanActor, pc.ID), apperr.ErrForbidden)
	_, err = f.computers.DeleteComputersBulk(ctx, deanActor, []uint{pc.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// viewing stays open
	list, err := f.computers.ListComputers(ctx, deanActor, lab.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditComputerClosesReportsOfRemovedParts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "GPU", "Fan")

	gpu, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "GPU", Kind: models.PartCustom, Status: models.StatusDamaged})
	require.NoError(t, err)
	fan, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "Fan", Kind: models.PartCustom, Status: models.StatusMissing})
	require.NoError(t, err)

	others := []models.CustomPart{{Name: "Fan"}}
	_, err = f.computers.EditComputer(ctx, adminActor, pc.ID, ComputerPatch{OtherParts: &others})
	require.NoError(t, err)

	removed, err := f.reportRepo.GetReportByID(ctx, *gpu.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, removed.State)

	kept, err := f.reportRepo.GetReportByID(ctx, *fan.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, kept.State)
}
