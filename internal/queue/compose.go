package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Message is a rendered e-mail ready for a Mailer.
type Message struct {
	To      string
	Subject string
	Body    string
}

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) mailTemplate {
	return mailTemplate{
		subject: template.Must(template.New(name + ".subject").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Parse(body)),
	}
}

// statusTemplates is keyed by the new application status.
var statusTemplates = map[string]mailTemplate{
	"reviewed": mustTemplate("reviewed",
		`Your application for {{.JobTitle}} is under review`,
		`Hello {{.Applicant.FirstName}},

Thank you for applying for {{.JobTitle}} ({{.JobNumber}}). Our team is now reviewing your application.
{{with .Notes}}
{{.}}
{{end}}
We will be in touch with next steps.
`),
	"shortlisted": mustTemplate("shortlisted",
		`You have been shortlisted for {{.JobTitle}}`,
		`Hello {{.Applicant.FirstName}},

Good news: you have been shortlisted for {{.JobTitle}} ({{.JobNumber}}).
{{with .Interview}}
Interview details:
{{with .Date}}  Date: {{.}}
{{end}}{{with .Time}}  Time: {{.}}
{{end}}{{with .Location}}  Location: {{.}}
{{end}}{{with .Notes}}  Notes: {{.}}
{{end}}{{end}}{{with .Notes}}
{{.}}
{{end}}`),
	"hired": mustTemplate("hired",
		`Offer for {{.JobTitle}}`,
		`Hello {{.Applicant.FirstName}},

Congratulations! We are delighted to offer you the position of {{.JobTitle}} ({{.JobNumber}}).
{{with .Notes}}
{{.}}
{{end}}
Our team will contact you shortly with the details.
`),
	"rejected": mustTemplate("rejected",
		`Update on your application for {{.JobTitle}}`,
		`Hello {{.Applicant.FirstName}},

Thank you for your interest in {{.JobTitle}} ({{.JobNumber}}). After careful consideration we will not be moving forward with your application.
{{with .Notes}}
{{.}}
{{end}}
We wish you the best in your search.
`),
	"pending": mustTemplate("pending",
		`Your application for {{.JobTitle}}`,
		`Hello {{.Applicant.FirstName}},

The status of your application for {{.JobTitle}} ({{.JobNumber}}) is now pending.
`),
}

var receivedTemplate = mustTemplate("received",
	`We received your application for {{.JobTitle}}`,
	`Hello {{.Applicant.FirstName}},

Thank you for applying for {{.JobTitle}} ({{.JobNumber}}). Your application has been received and will be reviewed shortly.
`)

var messageTemplate = mustTemplate("message",
	`{{if .Subject}}{{.Subject}}{{else}}Regarding your application for {{.JobTitle}}{{end}}`,
	`Hello {{.Applicant.FirstName}},

{{.Body}}
`)

var inviteTemplate = mustTemplate("invite",
	`{{if .Event.Resent}}Reminder: {{end}}You have been invited to the careers portal`,
	`Hello,

You have been invited to join the careers portal as {{.Event.Role}}.
Complete your account here:

  {{.Link}}

This link expires at {{.Event.ExpiresAt}}.
`)

func render(t mailTemplate, data any) (string, string, error) {
	var subj, body bytes.Buffer
	if err := t.subject.Execute(&subj, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(subj.String()), body.String(), nil
}

// Compose renders the e-mail for an envelope.  baseURL prefixes links such as
// the invitation acceptance page.
func Compose(env Envelope, baseURL string) (Message, error) {
	switch env.Kind {
	case KindStatusChanged:
		var ev ApplicationStatusChangedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		t, ok := statusTemplates[ev.NewStatus]
		if !ok {
			return Message{}, fmt.Errorf("no template for status %q", ev.NewStatus)
		}
		return renderTo(ev.Applicant.Email, t, ev)
	case KindApplicationReceived:
		var ev ApplicationReceivedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return renderTo(ev.Applicant.Email, receivedTemplate, ev)
	case KindApplicantMessage:
		var ev ApplicantMessageEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return renderTo(ev.Applicant.Email, messageTemplate, ev)
	case KindUserInvited:
		var ev UserInvitedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		link := strings.TrimRight(baseURL, "/") + "/accept-invite?token=" + ev.Token
		return renderTo(ev.Email, inviteTemplate, struct {
			Event UserInvitedEvent
			Link  string
		}{ev, link})
	}
	return Message{}, fmt.Errorf("unknown kind %q", env.Kind)
}

func renderTo(to string, t mailTemplate, data any) (Message, error) {
	if strings.TrimSpace(to) == "" {
		return Message{}, fmt.Errorf("missing recipient")
	}
	subj, body, err := render(t, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subj, Body: body}, nil
}
