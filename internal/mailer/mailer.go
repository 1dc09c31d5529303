package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var ErrNotConfigured = errors.New("RESEND_API_KEY not set")

const statementReadySubject = "Your Statement from North Falmouth Pharmacy"

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type StatementReady struct {
	To        string
	FirstName string
	Link      string
	Passcode  string
	ExpiresIn time.Duration
}

// Message renders the statement-ready email. The passcode is included in
// plaintext; the link alone does not grant access.
func (s StatementReady) Message() (Message, error) {
	greeting := s.FirstName
	if greeting == "" {
		greeting = "there"
	}

	data := struct {
		Greeting       string
		Link           string
		Passcode       string
		ExpiresMinutes int
	}{
		Greeting:       greeting,
		Link:           s.Link,
		Passcode:       s.Passcode,
		ExpiresMinutes: int(s.ExpiresIn.Minutes()),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "statement_ready.html", data); err != nil {
		return Message{}, fmt.Errorf("render statement email: %w", err)
	}

	return Message{
		To:      s.To,
		Subject: statementReadySubject,
		HTML:    buf.String(),
	}, nil
}
