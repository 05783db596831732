package crm

import (
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/platform/phone"
)

// Wire shapes for the remote CRM backend. Field names follow the remote
// contract (snake_case); mapping to domain types happens here so coercion of
// bad enum values never leaks past this package.

type leadEnvelope struct {
	Data []wireLead `json:"data"`
}

type wireLead struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	PhoneNumber    string          `json:"phone_number"`
	SourcePlatform string          `json:"source_platform"`
	Status         string          `json:"status"`
	FormData       domain.FormData `json:"form_data"`
	FollowUpAt     *time.Time      `json:"follow_up_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (w wireLead) toDomain() domain.Lead {
	return domain.Lead{
		ID:             w.ID,
		Name:           w.Name,
		Email:          w.Email,
		PhoneNumber:    phone.NormalizeE164(w.PhoneNumber),
		SourcePlatform: domain.ParsePlatform(w.SourcePlatform),
		Status:         domain.ParseStatus(w.Status),
		FormData:       w.FormData,
		FollowUpAt:     w.FollowUpAt,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

type historyEnvelope struct {
	Data []wireHistoryEntry `json:"data"`
}

type wireHistoryEntry struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (w wireHistoryEntry) toDomain() domain.StatusHistoryEntry {
	return domain.StatusHistoryEntry{
		ID:        w.ID,
		LeadID:    w.LeadID,
		OldStatus: domain.ParseStatus(w.OldStatus),
		NewStatus: domain.ParseStatus(w.NewStatus),
		Reason:    w.Reason,
		CreatedAt: w.CreatedAt,
	}
}

type conversationEnvelope struct {
	Data []wireConversation `json:"data"`
}

type wireConversation struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	Sender      string    `json:"sender"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (w wireConversation) toDomain() domain.Conversation {
	return domain.Conversation{
		ID:          w.ID,
		LeadID:      w.LeadID,
		Sender:      domain.ConversationSender(w.Sender),
		MessageType: domain.MessageType(w.MessageType),
		Content:     w.Content,
		Status:      domain.DeliveryStatus(w.Status),
		CreatedAt:   w.CreatedAt,
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type sendMessageRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type followUpRequest struct {
	FollowUpAt *string `json:"follow_up_at"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResult reports per-item outcomes of a batched delete.
// FailedIDs is itemized only by newer backend versions; callers must cope
// with FailedCount > 0 and an empty FailedIDs.
type BulkDeleteResult struct {
	Success      bool     `json:"success"`
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	FailedIDs    []string `json:"failedIds,omitempty"`
}

// ImportSummary is the remote backend's per-row accounting of a CSV import.
type ImportSummary struct {
	Success          bool     `json:"success"`
	TotalRows        int      `json:"totalRows"`
	Created          int      `json:"created"`
	Duplicates       int      `json:"duplicates"`
	Errors           int      `json:"errors"`
	ErrorDetails     []string `json:"errorDetails,omitempty"`
	DuplicateDetails []string `json:"duplicateDetails,omitempty"`
}
