package notify

import (
	"context"
	"testing"
	"time"

	"lab-maintenance-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSenderWithoutServer(t *testing.T) {
	sender := NewSender(config.MailConfig{})
	err := sender.Send(context.Background(), Message{To: []string{"a@x.io"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSenderWithServer(t *testing.T) {
	sender := NewSender(config.MailConfig{Host: "smtp.example.com", Port: 587, Sender: "lab@example.com"})
	assert.IsType(t, &SMTPSender{}, sender)
}

func TestSMTPSenderRequiresRecipients(t *testing.T) {
	sender := &SMTPSender{cfg: config.MailConfig{Host: "smtp.example.com", Port: 587, Sender: "lab@example.com"}}
	err := sender.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorContains(t, err, "no recipients")
}

func TestRenderReportBatchEscapesHTML(t *testing.T) {
	msg, err := RenderReportBatch(ReportBatch{
		Title:       "Weekly report",
		Position:    "ITSD",
		SenderName:  "Ana",
		SenderEmail: "ana@example.com",
		Reports: []ReportLine{{
			ReportID: 3, PCName: "PC 1", LabName: "CL 1", PartName: "monitor",
			Status: "damaged", Issue: "<cracked>", CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Weekly report", msg.Subject)
	assert.Equal(t, "ana@example.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "&lt;cracked&gt;")
	assert.Contains(t, msg.HTML, "2024-03-01 09:30")
	assert.Contains(t, msg.Text, "[CL 1] PC 1 / monitor: damaged (<cracked>)")
}

func TestRenderLogBatch(t *testing.T) {
	msg, err := RenderLogBatch(LogBatch{
		Title: "Technician summary", SenderName: "Tom", SenderEmail: "tom@example.com",
		Logs: []LogLine{{PCName: "PC 2", LabName: "CL 1", PartName: "mouse", ActionTaken: "Replaced", StatusAfter: "operational", Technician: "Tom"}},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "PC 2 / mouse: Replaced -> operational (Tom)")
	assert.Contains(t, msg.HTML, "<td>Replaced</td>")
}
