package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"competency-assessment/internal/config"
)

// Service sends HTML notifications over SMTP. With no SMTP host configured every send is
// logged and skipped.
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{config: cfg}
}

// Enabled reports whether an SMTP host is configured
func (s *Service) Enabled() bool {
	return s.config.SMTPHost != ""
}

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">{{.Title}}</h2>
        {{template "content" .}}
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.Link}}" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">{{.LinkLabel}}</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>`

var (
	assessorAssignedTmpl = mustTemplate("assessor_assigned", `
        <p>Hello {{.RecipientName}},</p>
        <p>You have been assigned as assessor for <strong>{{.EmployeeName}}</strong>.</p>
        <p>Their assessments will appear in your assessment list once HR creates them.</p>`)

	staleReminderTmpl = mustTemplate("stale_reminder", `
        <p>Hello {{.RecipientName}},</p>
        <p>The {{.AssessmentType}} assessment of <strong>{{.EmployeeName}}</strong> has been {{.Status}} for {{.IdleDays}} days.</p>
        <p>Please complete your ratings so the consensus can be prepared.</p>`)
)

// mustTemplate wraps content in the shared layout
func mustTemplate(name, content string) *template.Template {
	tmpl := template.Must(template.New(name).Parse(layout))
	template.Must(tmpl.New("content").Parse(content))
	return tmpl
}

type message struct {
	Title          string
	Link           string
	LinkLabel      string
	RecipientName  string
	EmployeeName   string
	AssessmentType string
	Status         string
	IdleDays       int
}

// SendAssessorAssigned tells an assessor which employee they now evaluate
func (s *Service) SendAssessorAssigned(to, assessorName, employeeName string) error {
	body, err := render(assessorAssignedTmpl, message{
		Title:         "New assessor assignment",
		Link:          s.config.FrontendURL + "/assessments",
		LinkLabel:     "Open assessments",
		RecipientName: assessorName,
		EmployeeName:  employeeName,
	})
	if err != nil {
		return err
	}
	return s.sendEmail(to, "You have been assigned as assessor", body)
}

// SendStaleAssessmentReminder reminds the owner of an assessment that stayed open too long
func (s *Service) SendStaleAssessmentReminder(to, recipientName, employeeName string, assessmentID uint, assessmentType, status string, idle time.Duration) error {
	body, err := render(staleReminderTmpl, message{
		Title:          "Reminder: open assessment",
		Link:           fmt.Sprintf("%s/assessments/%d", s.config.FrontendURL, assessmentID),
		LinkLabel:      "Continue assessment",
		RecipientName:  recipientName,
		EmployeeName:   employeeName,
		AssessmentType: assessmentType,
		Status:         status,
		IdleDays:       int(idle.Hours() / 24),
	})
	if err != nil {
		return err
	}
	return s.sendEmail(to, "Reminder: your assessment is still open", body)
}

func render(tmpl *template.Template, data message) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// buildMessage assembles headers and body in a fixed order
func (s *Service) buildMessage(to, subject, body string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.SMTPFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}

func (s *Service) sendEmail(to, subject, body string) error {
	if !s.Enabled() {
		slog.Debug("SMTP not configured, skipping email", "to", to, "subject", subject)
		return nil
	}

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Debug("Failed to close SMTP client", "error", err)
		}
	}()

	// Dev servers like Mailpit accept mail without auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := wc.Write(s.buildMessage(to, subject, body)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		slog.Debug("SMTP quit failed", "error", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}
