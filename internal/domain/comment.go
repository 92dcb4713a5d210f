package domain

import "time"

// CommentAuthorType indicates who authored a comment.
type CommentAuthorType string

const (
	CommentAuthorUser   CommentAuthorType = "USER"
	CommentAuthorSystem CommentAuthorType = "SYSTEM"
)

// TicketComment is an append-only entry in a ticket's thread. System
// comments record lifecycle transitions.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorType CommentAuthorType
	AuthorID   *string
	Body       string
	CreatedAt  time.Time
}

// TicketAttachment stores metadata for an uploaded file. Append-only;
// removed only when the owning ticket is purged.
type TicketAttachment struct {
	ID           string
	TicketID     string
	UploadedByID string
	StorageKey   string
	FileName     string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}

// TicketFeedback captures the requester's rating after resolution. At most
// one entry per (ticket, user).
type TicketFeedback struct {
	ID        string
	TicketID  string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
