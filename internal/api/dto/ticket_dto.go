package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	CategoryID   string  `json:"category_id"`
	PriorityID   string  `json:"priority_id"`
	DepartmentID string  `json:"department_id"`
	TeamID       *string `json:"team_id"`
	AssigneeID   *string `json:"assignee_id"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	StatusID string `json:"status_id"`
	Comment  string `json:"comment"`
}

// CancelRequest payload.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	PriorityID string `json:"priority_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// CreateAttachmentRequest payload.
type CreateAttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TicketResponse represents a ticket in API responses.
type TicketResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CategoryID   string     `json:"category_id"`
	PriorityID   string     `json:"priority_id"`
	StatusID     string     `json:"status_id"`
	CreatedByID  string     `json:"created_by_id"`
	AssignedToID *string    `json:"assigned_to_id"`
	DepartmentID string     `json:"department_id"`
	TeamID       *string    `json:"team_id"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorType string    `json:"author_type"`
	AuthorID   *string   `json:"author_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse represents attachment metadata.
type AttachmentResponse struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticket_id"`
	UploadedByID string    `json:"uploaded_by_id"`
	StorageKey   string    `json:"storage_key"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedbackResponse represents submitted feedback.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse represents one audit entry.
type HistoryResponse struct {
	ID          string         `json:"id"`
	TicketID    string         `json:"ticket_id"`
	ChangedByID *string        `json:"changed_by_id"`
	ChangeType  string         `json:"change_type"`
	OldValue    map[string]any `json:"old_value"`
	NewValue    map[string]any `json:"new_value"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FromTicket maps a domain ticket to its response form.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		CategoryID:   t.CategoryID,
		PriorityID:   t.PriorityID,
		StatusID:     t.StatusID,
		CreatedByID:  t.CreatedByID,
		AssignedToID: t.AssignedToID,
		DepartmentID: t.DepartmentID,
		TeamID:       t.TeamID,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ClosedAt:     t.ClosedAt,
	}
}

// FromComment maps a domain comment.
func FromComment(c *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorType: string(c.AuthorType),
		AuthorID:   c.AuthorID,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

// FromAttachment maps attachment metadata.
func FromAttachment(a *domain.TicketAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		TicketID:     a.TicketID,
		UploadedByID: a.UploadedByID,
		StorageKey:   a.StorageKey,
		FileName:     a.FileName,
		MimeType:     a.MimeType,
		SizeBytes:    a.SizeBytes,
		CreatedAt:    a.CreatedAt,
	}
}

// FromFeedback maps feedback.
func FromFeedback(f *domain.TicketFeedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		TicketID:  f.TicketID,
		UserID:    f.UserID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}

// FromHistory maps an audit entry.
func FromHistory(h *domain.TicketHistory) HistoryResponse {
	return HistoryResponse{
		ID:          h.ID,
		TicketID:    h.TicketID,
		ChangedByID: h.ChangedByID,
		ChangeType:  string(h.ChangeType),
		OldValue:    h.OldValue,
		NewValue:    h.NewValue,
		CreatedAt:   h.CreatedAt,
	}
}
