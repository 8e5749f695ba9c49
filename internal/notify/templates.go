package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ReportLine is one report in an outbound batch.
type ReportLine struct {
	ReportID  uint
	PCName    string
	LabName   string
	PartName  string
	Status    string
	Issue     string
	CreatedAt time.Time
}

// ReportBatch is the content of a report dispatch email.
type ReportBatch struct {
	Title       string
	Position    string
	SenderName  string
	SenderEmail string
	Reports     []ReportLine
}

// LogLine is one technician action in an outbound batch.
type LogLine struct {
	PCName      string
	LabName     string
	PartName    string
	ActionTaken string
	StatusAfter string
	Technician  string
	CreatedAt   time.Time
}

// LogBatch is the content of a technician summary email.
type LogBatch struct {
	Title       string
	SenderName  string
	SenderEmail string
	Logs        []LogLine
}

var reportTmpl = template.Must(template.New("report").Parse(`<html><body>
<h2>{{.Title}}</h2>
<p>Submitted by {{.SenderName}}{{if .Position}} ({{.Position}}){{end}} &lt;{{.SenderEmail}}&gt;</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>#</th><th>Laboratory</th><th>Computer</th><th>Part</th><th>Status</th><th>Issue</th><th>Reported</th></tr>
{{range .Reports}}<tr><td>{{.ReportID}}</td><td>{{.LabName}}</td><td>{{.PCName}}</td><td>{{.PartName}}</td><td>{{.Status}}</td><td>{{.Issue}}</td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>
{{end}}</table>
</body></html>`))

var logTmpl = template.Must(template.New("logs").Parse(`<html><body>
<h2>{{.Title}}</h2>
<p>Sent by {{.SenderName}} &lt;{{.SenderEmail}}&gt;</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Laboratory</th><th>Computer</th><th>Part</th><th>Action taken</th><th>Status after</th><th>Technician</th><th>Date</th></tr>
{{range .Logs}}<tr><td>{{.LabName}}</td><td>{{.PCName}}</td><td>{{.PartName}}</td><td>{{.ActionTaken}}</td><td>{{.StatusAfter}}</td><td>{{.Technician}}</td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>
{{end}}</table>
</body></html>`))

// RenderReportBatch builds the subject, text and HTML bodies of a report email.
func RenderReportBatch(b ReportBatch) (Message, error) {
	var html bytes.Buffer
	if err := reportTmpl.Execute(&html, b); err != nil {
		return Message{}, err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\nSubmitted by %s <%s>\n\n", b.Title, b.SenderName, b.SenderEmail)
	for _, r := range b.Reports {
		fmt.Fprintf(&text, "- [%s] %s / %s: %s", r.LabName, r.PCName, r.PartName, r.Status)
		if r.Issue != "" {
			fmt.Fprintf(&text, " (%s)", r.Issue)
		}
		text.WriteString("\n")
	}

	return Message{
		ReplyTo: b.SenderEmail,
		Subject: b.Title,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// RenderLogBatch builds the subject, text and HTML bodies of a technician summary.
func RenderLogBatch(b LogBatch) (Message, error) {
	var html bytes.Buffer
	if err := logTmpl.Execute(&html, b); err != nil {
		return Message{}, err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\nSent by %s <%s>\n\n", b.Title, b.SenderName, b.SenderEmail)
	for _, l := range b.Logs {
		fmt.Fprintf(&text, "- [%s] %s / %s: %s -> %s (%s)\n",
			l.LabName, l.PCName, l.PartName, l.ActionTaken, l.StatusAfter, l.Technician)
	}

	return Message{
		ReplyTo: b.SenderEmail,
		Subject: b.Title,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
