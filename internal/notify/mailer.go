// Package notify delivers complaint emails: status updates to the owning
// citizen and full complaint reports to municipal departments.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
)

// ComplaintSummary carries everything a department needs to act on a
// forwarded complaint without logging into the admin panel.
type ComplaintSummary struct {
	ID          uuid.UUID
	Title       string
	Category    string
	Status      string
	Description string
	Address     string
	Latitude    float64
	Longitude   float64
	EvidenceURL string

	CitizenName  string
	CitizenEmail string
	CitizenPhone string
}

// Mailer sends complaint notifications.
type Mailer interface {
	SendStatusUpdate(ctx context.Context, email string, complaintID uuid.UUID, newStatus string) error
	SendDepartmentForward(ctx context.Context, targetEmail string, c ComplaintSummary) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail over plain SMTP with optional auth.
type SMTPMailer struct {
	cfg SMTPConfig
	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

var statusUpdateTmpl = template.Must(template.New("status").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px;">
<h2>Your Complaint Has Been Updated</h2>
<p>Dear Citizen,</p>
<p>The status for your complaint <strong>#{{.ShortID}}</strong> has been changed to:
<strong>{{.Status}}</strong></p>
<p>Thank you for reporting issues in your city.</p>
<p style="font-size: 12px;">Please log in to the application to view full details.</p>
</div>`))

var forwardTmpl = template.Must(template.New("forward").Funcs(template.FuncMap{
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}).Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6;">
<h2>ACTION REQUIRED: Citizen Complaint Forwarded</h2>
<p><strong>Complaint ID:</strong> {{.ShortID}}</p>
<p><strong>Title:</strong> {{.C.Title}}</p>
<p><strong>Category:</strong> {{.C.Category}}</p>
<p><strong>Current Status:</strong> {{.C.Status}}</p>
<h3>Problem Details</h3>
<p>{{.C.Description}}</p>
<h3>Location</h3>
<p><strong>Address:</strong> {{if .C.Address}}{{.C.Address}}{{else}}Address not provided{{end}}</p>
<p><strong>Coordinates:</strong> Lat: {{printf "%.4f" .C.Latitude}}, Lon: {{printf "%.4f" .C.Longitude}}</p>
<h3>Citizen Contact</h3>
<p><strong>Name:</strong> {{orNA .C.CitizenName}}</p>
<p><strong>Email:</strong> {{orNA .C.CitizenEmail}}</p>
<p><strong>Phone:</strong> {{orNA .C.CitizenPhone}}</p>
<h3>Photo Evidence</h3>
{{if .C.EvidenceURL}}<p><a href="{{.C.EvidenceURL}}">View photo evidence</a></p>{{else}}<p>No photo evidence provided by the citizen.</p>{{end}}
<p style="font-size: 0.9em;">Please address this issue and update the status on the admin panel.</p>
</body>
</html>`))

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func (m *SMTPMailer) SendStatusUpdate(_ context.Context, email string, complaintID uuid.UUID, newStatus string) error {
	var body bytes.Buffer
	if err := statusUpdateTmpl.Execute(&body, struct {
		ShortID string
		Status  string
	}{shortID(complaintID), newStatus}); err != nil {
		return fmt.Errorf("render status email: %w", err)
	}

	subject := fmt.Sprintf("Complaint #%s Status Update: %s", shortID(complaintID), newStatus)
	return m.sendHTML(email, subject, body.Bytes())
}

func (m *SMTPMailer) SendDepartmentForward(_ context.Context, targetEmail string, c ComplaintSummary) error {
	var body bytes.Buffer
	if err := forwardTmpl.Execute(&body, struct {
		ShortID string
		C       ComplaintSummary
	}{shortID(c.ID), c}); err != nil {
		return fmt.Errorf("render forward email: %w", err)
	}

	subject := fmt.Sprintf("[ACTION REQUIRED] Complaint #%s: %s", shortID(c.ID), c.Title)
	return m.sendHTML(targetEmail, subject, body.Bytes())
}

func (m *SMTPMailer) sendHTML(to, subject string, body []byte) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NoopMailer drops all mail. Used when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) SendStatusUpdate(context.Context, string, uuid.UUID, string) error {
	return nil
}

func (NoopMailer) SendDepartmentForward(context.Context, string, ComplaintSummary) error {
	return nil
}
