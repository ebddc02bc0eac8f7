// Package queue defines the e-mail notification messages exchanged over the
// message broker, the publisher used by request handlers and the background
// consumer that turns messages into e-mails.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the payload carried by an Envelope.
type Kind string

const (
	KindStatusChanged       Kind = "application.status_changed"
	KindApplicationReceived Kind = "application.received"
	KindApplicantMessage    Kind = "application.message"
	KindUserInvited         Kind = "user.invited"
)

// Envelope wraps every message on the notifications queue.
type Envelope struct {
	Kind       Kind            `json:"kind"`
	OccurredAt string          `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Applicant identifies the e-mail recipient of application notifications.
type Applicant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Interview carries optional scheduling details for shortlisted candidates.
type Interview struct {
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ApplicationStatusChangedEvent is published after every status transition.
type ApplicationStatusChangedEvent struct {
	ApplicationID uint64     `json:"application_id"`
	Applicant     Applicant  `json:"applicant"`
	JobTitle      string     `json:"job_title"`
	JobNumber     string     `json:"job_number"`
	OldStatus     string     `json:"old_status"`
	NewStatus     string     `json:"new_status"`
	Notes         string     `json:"notes,omitempty"`
	Interview     *Interview `json:"interview,omitempty"`
}

// ApplicationReceivedEvent confirms a submission to the candidate.
type ApplicationReceivedEvent struct {
	ApplicationID uint64    `json:"application_id"`
	Applicant     Applicant `json:"applicant"`
	JobTitle      string    `json:"job_title"`
	JobNumber     string    `json:"job_number"`
}

// ApplicantMessageEvent is a free-form message written by staff.
type ApplicantMessageEvent struct {
	ApplicationID uint64    `json:"application_id"`
	Applicant     Applicant `json:"applicant"`
	JobTitle      string    `json:"job_title"`
	JobNumber     string    `json:"job_number"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
}

// UserInvitedEvent carries the one-time invitation link.
type UserInvitedEvent struct {
	UserID    uint64 `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Resent    bool   `json:"resent"`
}

// kindOf maps payload types to their envelope kind.
func kindOf(payload any) (Kind, error) {
	switch payload.(type) {
	case ApplicationStatusChangedEvent, *ApplicationStatusChangedEvent:
		return KindStatusChanged, nil
	case ApplicationReceivedEvent, *ApplicationReceivedEvent:
		return KindApplicationReceived, nil
	case ApplicantMessageEvent, *ApplicantMessageEvent:
		return KindApplicantMessage, nil
	case UserInvitedEvent, *UserInvitedEvent:
		return KindUserInvited, nil
	}
	return "", fmt.Errorf("unsupported event type %T", payload)
}

// NewEnvelope wraps payload with its kind and a UTC timestamp.
func NewEnvelope(payload any) (Envelope, error) {
	kind, err := kindOf(payload)
	if err != nil {
		return Envelope{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, OccurredAt: time.Now().UTC().Format(time.RFC3339), Payload: raw}, nil
}
