package service

import (
	"context"
	"errors"
	"testing"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportLifecycleFromFaultToResolved(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC1")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "monitor", Status: models.StatusDamaged, Notes: "cracked screen"})
	require.NoError(t, err)
	require.NotNil(t, out.ReportID)

	open, err := f.reports.ListReports(ctx, adminActor, models.ReportOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "PC1", open[0].PCName)
	assert.Equal(t, "CL 1", open[0].LabName)
	assert.Equal(t, "cracked screen", open[0].IssueDescription)

	severity, err := f.statuses.ComputerSeverity(ctx, adminActor, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDamaged, severity)

	actioned, err := f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "ordered panel", StatusAfter: models.StatusNotOperational})
	require.NoError(t, err)
	assert.Equal(t, models.ReportActioned, actioned.ReportState)

	resolved, err := f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "replaced panel", StatusAfter: models.StatusOperational})
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, resolved.ReportState)

	severity, err = f.statuses.ComputerSeverity(ctx, adminActor, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, severity)

	// the log history is kept per report
	logs, err := f.reports.ReportLogs(ctx, adminActor, *out.ReportID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "again", StatusAfter: models.StatusOperational})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// a technician log never opens a new report
	all, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitTechnicianLogValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: 1, StatusAfter: models.StatusOperational})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: 42, ActionTaken: "fixed", StatusAfter: models.StatusOperational})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDispatchMarksReportsSent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "wifi", Status: models.StatusNotOperational})
	require.NoError(t, err)

	result, err := f.reports.Dispatch(ctx, itsdActor, DispatchRequest{Title: "Weekly", ReportIDs: []uint{*out.ReportID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{*out.ReportID}, result.Sent)
	assert.Equal(t, []string{"itsd@lab.test"}, result.Recipients)
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].Subject, "Weekly")

	report, err := f.reportRepo.GetReportByID(ctx, *out.ReportID)
	require.NoError(t, err)
	assert.True(t, report.Sent)
	assert.NotNil(t, report.SentAt)
	assert.Equal(t, models.ReportQueued, report.State)

	_, err = f.reports.Dispatch(ctx, itsdActor, DispatchRequest{ReportIDs: []uint{*out.ReportID}})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDispatchMarksSentAfterConcurrentRepair(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "hdmi", Status: models.StatusDamaged})
	require.NoError(t, err)

	// a technician logs a repair while the email is on its way
	f.sender.during = func() {
		_, err := f.reports.SubmitTechnicianLog(ctx, techActor, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "new cable", StatusAfter: models.StatusOperational})
		require.NoError(t, err)
	}

	_, err = f.reports.Dispatch(ctx, itsdActor, DispatchRequest{Title: "Weekly", ReportIDs: []uint{*out.ReportID}})
	require.NoError(t, err)

	report, err := f.reportRepo.GetReportByID(ctx, *out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, report.State)
	assert.True(t, report.Sent)
	assert.NotNil(t, report.SentAt)
}

func TestDispatchFailureReturnsReportsToOpen(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")
	f.sender.err = errors.New("smtp: connection refused")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "mouse", Status: models.StatusMissing})
	require.NoError(t, err)

	_, err = f.reports.Dispatch(ctx, adminActor, DispatchRequest{ReportIDs: []uint{*out.ReportID}})
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	report, err := f.reportRepo.GetReportByID(ctx, *out.ReportID)
	require.NoError(t, err)
	assert.False(t, report.Sent)
	assert.Equal(t, models.ReportOpen, report.State)

	// the retry goes through once delivery works again
	f.sender.err = nil
	_, err = f.reports.Dispatch(ctx, adminActor, DispatchRequest{ReportIDs: []uint{*out.ReportID}})
	assert.NoError(t, err)
}

func TestDispatchUnknownReport(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.reports.Dispatch(context.Background(), adminActor, DispatchRequest{ReportIDs: []uint{7}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.reports.Dispatch(context.Background(), techActor, DispatchRequest{ReportIDs: []uint{7}})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateManualReportUsesCurrentStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	report, err := f.reports.CreateReport(ctx, techActor, ManualReport{ComputerID: pc.ID, PartName: "headphone", Issue: "left side silent"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOperational, report.DetectedStatus)
	assert.Equal(t, models.ReportOpen, report.State)
	assert.Equal(t, techActor.Email, report.SubmittedBy)

	_, err = f.reports.CreateReport(ctx, techActor, ManualReport{ComputerID: pc.ID, PartName: "scanner"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTechnicianLogsAndEmail(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")
	tech := f.user(t, "Tomas", models.RoleTechnician, "secret123")

	out, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: "keyboard", Status: models.StatusDamaged})
	require.NoError(t, err)
	logged, err := f.reports.SubmitTechnicianLog(ctx, tech, TechnicianLogInput{ReportID: *out.ReportID, ActionTaken: "swapped keyboard", StatusAfter: models.StatusOperational})
	require.NoError(t, err)

	mine, err := f.reports.ListTechnicianLogs(ctx, tech)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "PC 1", mine[0].PCName)
	assert.Equal(t, "keyboard", mine[0].PartName)

	others, err := f.reports.ListTechnicianLogs(ctx, techActor)
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, f.reports.SendTechnicianLogs(ctx, tech, LogDispatchRequest{LogIDs: []string{logged.Log.ID}}))
	require.Len(t, f.sender.sent, 1)

	err = f.reports.SendTechnicianLogs(ctx, tech, LogDispatchRequest{LogIDs: []string{"missing"}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteReports(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	lab := f.lab(t, "CL 1")
	pc := f.computer(t, lab.ID, "PC 1")

	for _, part := range []string{"monitor", "mouse"} {
		_, err := f.statuses.SetStatus(ctx, adminActor, pc.ID, StatusChange{Part: part, Status: models.StatusDamaged})
		require.NoError(t, err)
	}
	reports, err := f.reports.ListReports(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	require.NoError(t, f.reports.DeleteReport(ctx, adminActor, reports[0].ID))
	assert.ErrorIs(t, f.reports.DeleteReport(ctx, adminActor, reports[0].ID), apperr.ErrNotFound)

	_, err = f.reports.DeleteAllReports(ctx, techActor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	deleted, err := f.reports.DeleteAllReports(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
