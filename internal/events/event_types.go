package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketStatusChanged     EventType = "ticket_status_changed"
	EventTicketPriorityChanged   EventType = "ticket_priority_changed"
	EventTicketAssigned          EventType = "ticket_assigned"
	EventTicketCommentAdded      EventType = "ticket_comment_added"
	EventTicketFeedbackSubmitted EventType = "ticket_feedback_submitted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID string  `json:"department_id"`
	TeamID       *string `json:"team_id,omitempty"`
	PriorityID   string  `json:"priority_id"`
	Title        string  `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Comment   string `json:"comment,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriorityID string `json:"old_priority_id"`
	NewPriorityID string `json:"new_priority_id"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
	TeamID     *string `json:"team_id,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string  `json:"comment_id"`
	AuthorID    *string `json:"author_id,omitempty"`
	BodyPreview string  `json:"body_preview"`
}

// TicketFeedbackSubmittedPayload payload.
type TicketFeedbackSubmittedPayload struct {
	FeedbackID string `json:"feedback_id"`
	Rating     int    `json:"rating"`
}
