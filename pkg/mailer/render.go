package mailer

import (
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/go-auth-service/pkg/mailer/templates"
)

var ErrInvalidJob = errors.New("invalid email job")

// Message is a job after templates were applied.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Render resolves a job into a sendable message. Jobs with a template are
// rendered from the embedded set; raw jobs pass through.
func Render(job EmailJob) (Message, error) {
	to := strings.TrimSpace(job.To)
	if to == "" {
		return Message{}, fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return Message{}, fmt.Errorf("%w: subject and body required", ErrInvalidJob)
		}
		return Message{To: to, Subject: job.Subject, Text: job.Text, HTML: job.HTML}, nil
	}

	data := job.Data
	if data == nil {
		data = map[string]any{}
	}
	if v, ok := data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		data["Email"] = to
	}
	if v, ok := data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		data["RecipientEmail"] = to
	}

	name := strings.ToLower(job.Template)
	if !mailtpl.Known(name) {
		return Message{}, fmt.Errorf("%w: unknown template %q", ErrInvalidJob, job.Template)
	}
	subject, text, html, err := mailtpl.Render(name, data)
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	return Message{To: to, Subject: subject, Text: text, HTML: html}, nil
}
