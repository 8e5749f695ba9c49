package service

import (
	"context"
	"testing"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReconcileReportsPerTargetFailures(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	a := f.computer(t, lab.ID, "PC 1")
	b := f.computer(t, lab.ID, "PC 2")

	batch := map[uint][]BulkTarget{
		a.ID: {{Part: "monitor", Status: models.StatusDamaged}, {Part: "keyboard", Status: models.StatusMissing}},
		b.ID: {{Part: "monitor", Status: models.StatusDamaged}},
		999:  {{Part: "monitor", Status: models.StatusDamaged}},
	}

	result, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 4)

	last := result.Results[3]
	assert.Equal(t, uint(999), last.ComputerID)
	assert.False(t, last.Success)
	assert.Equal(t, apperr.KindNotFound.String(), last.ErrorKind)

	for _, id := range []uint{a.ID, b.ID} {
		status, err := f.statuses.GetStatus(ctx, adminActor, id, "monitor", models.PartStandard)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDamaged, status)
	}
}

func TestReconcileTwiceChangesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")
	batch := map[uint][]BulkTarget{pc.ID: {{Part: "power", Status: models.StatusNotOperational}}}

	first, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	assert.True(t, first.Results[0].Changed)

	second, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	assert.True(t, second.Results[0].Success)
	assert.False(t, second.Results[0].Changed)

	reports, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReconcileRenamesCustomPart(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "Webcam")

	batch := map[uint][]BulkTarget{pc.ID: {{Part: "Webcam", Kind: models.PartCustom, NewName: "HD Webcam", Status: models.StatusDamaged}}}
	result, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	require.True(t, result.Results[0].Success, result.Results[0].Error)
	assert.Equal(t, "HD Webcam", result.Results[0].Part)

	stored, err := f.computers.GetComputer(ctx, adminActor, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, "HD Webcam", stored.OtherParts.Data()[0].Name)

	// replaying the batch after the rename still succeeds
	again, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	assert.True(t, again.Results[0].Success)
	assert.False(t, again.Results[0].Changed)
}

func TestReconcileRequiresWriteStatus(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.reconciler.Reconcile(context.Background(), itsdActor, map[uint][]BulkTarget{1: {{Part: "monitor", Status: models.StatusDamaged}}})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.reconciler.Reconcile(context.Background(), adminActor, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReconcileRenameCarriesOpenReports(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "GPU")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "GPU", Kind: models.PartCustom, Status: models.StatusDamaged})
	require.NoError(t, err)
	require.NotNil(t, out.ReportID)

	batch := map[uint][]BulkTarget{pc.ID: {{Part: "GPU", Kind: models.PartCustom, NewName: "Graphics", Status: models.StatusDamaged}}}
	result, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	require.True(t, result.Results[0].Success, result.Results[0].Error)
	assert.True(t, result.Results[0].Changed)

	report, err := f.reportRepo.GetReportByID(ctx, *out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "Graphics", report.PartName)

	logged, err := f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "reseated card", StatusAfter: models.StatusOperational})
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, logged.ReportState)

	status, err := f.statuses.GetStatus(ctx, adminActor, pc.ID, "Graphics", models.PartCustom)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, status)
}

func TestReconcileCaseOnlyRename(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1", "GPU", "Fan")

	result, err := f.reconciler.Reconcile(ctx, adminActor, map[uint][]BulkTarget{pc.ID: {{Part: "GPU", Kind: models.PartCustom, NewName: "gpu", Status: models.StatusOperational}}})
	require.NoError(t, err)
	require.True(t, result.Results[0].Success, result.Results[0].Error)
	assert.Equal(t, "gpu", result.Results[0].Part)

	// another part's name is still taken
	result, err = f.reconciler.Reconcile(ctx, adminActor, map[uint][]BulkTarget{pc.ID: {{Part: "gpu", Kind: models.PartCustom, NewName: "FAN", Status: models.StatusOperational}}})
	require.NoError(t, err)
	assert.False(t, result.Results[0].Success)
	assert.Equal(t, apperr.KindDuplicateName.String(), result.Results[0].ErrorKind)
}

func TestReconcileReportsComputersWithoutTargets(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	result, err := f.reconciler.Reconcile(ctx, adminActor, map[uint][]BulkTarget{pc.ID: {}, 999: nil})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Results, 2)
	assert.Equal(t, apperr.KindValidation.String(), result.Results[0].ErrorKind)
	assert.Equal(t, uint(999), result.Results[1].ComputerID)
	assert.Equal(t, apperr.KindNotFound.String(), result.Results[1].ErrorKind)
}

func TestReconcileCancelledKeepsPartialResult(t *testing.T) {
	f := newFixture(t, false)
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := map[uint][]BulkTarget{pc.ID: {{Part: "monitor", Status: models.StatusDamaged}, {Part: "mouse", Status: models.StatusMissing}}}
	result, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Failed)
	for _, res := range result.Results {
		assert.False(t, res.Success)
		assert.Equal(t, apperr.KindInternal.String(), res.ErrorKind)
	}

	status, err := f.statuses.GetStatus(context.Background(), adminActor, pc.ID, "monitor", models.PartStandard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, status)
}

func TestReconcileCancelledMidBatch(t *testing.T) {
	f := newFixture(t, false)
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel while the second target loads its computer
	loads := 0
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:cancel_on_second_load", func(tx *gorm.DB) {
		if tx.Statement.Table == "computers" {
			loads++
			if loads == 2 {
				cancel()
			}
		}
	}))

	batch := map[uint][]BulkTarget{pc.ID: {
		{Part: "keyboard", Status: models.StatusDamaged},
		{Part: "monitor", Status: models.StatusDamaged},
		{Part: "mouse", Status: models.StatusMissing},
	}}
	result, err := f.reconciler.Reconcile(ctx, adminActor, batch)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "keyboard", result.Results[0].Part)
	assert.False(t, result.Results[1].Success)
	assert.False(t, result.Results[2].Success)

	status, err := f.statuses.GetStatus(context.Background(), adminActor, pc.ID, "keyboard", models.PartStandard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDamaged, status)
}
