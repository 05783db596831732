package service

import (
	"context"
	"io"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/crm"
)

// Gateway is the slice of the CRM backend the board engine depends on.
// *crm.Client satisfies it; tests substitute fakes.
type Gateway interface {
	ListLeads(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, leadID string, status domain.LeadStatus, reason string) error
	StatusHistory(ctx context.Context, leadID string) ([]domain.StatusHistoryEntry, error)
	Conversations(ctx context.Context, leadID string, limit int) ([]domain.Conversation, error)
	SendMessage(ctx context.Context, leadID, content string, messageType domain.MessageType) error
	SetFollowUp(ctx context.Context, leadID string, at *time.Time) error
	DeleteLead(ctx context.Context, leadID string) error
	BulkDelete(ctx context.Context, ids []string) (crm.BulkDeleteResult, error)
	ImportCSV(ctx context.Context, filename string, file io.Reader) (crm.ImportSummary, error)
}

// Compile-time check that the real client satisfies the port.
var _ Gateway = (*crm.Client)(nil)
