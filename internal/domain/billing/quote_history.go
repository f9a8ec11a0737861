package billing

import (
	"time"

	"github.com/google/uuid"
)

// Quote history actions
const (
	HistoryActionCreated       = "created"
	HistoryActionUpdated       = "updated"
	HistoryActionSent          = "sent"
	HistoryActionViewed        = "viewed"
	HistoryActionAccepted      = "accepted"
	HistoryActionRejected      = "rejected"
	HistoryActionStatusChanged = "status_changed"
)

// Requester describes who triggered an action. Public link actions always
// carry it; authenticated routes pass it through where available.
type Requester struct {
	IPAddress string
	UserAgent string
}

// QuoteHistory is one append-only entry of a quote's audit trail
type QuoteHistory struct {
	ID          uuid.UUID
	QuoteID     uuid.UUID
	Action      string
	Description string
	IPAddress   string
	UserAgent   string
	Metadata    string
	CreatedAt   time.Time
}

// NewQuoteHistory creates a history entry for quoteID
func NewQuoteHistory(id, quoteID uuid.UUID, action, description string, requester Requester, now time.Time) *QuoteHistory {
	return &QuoteHistory{
		ID:          id,
		QuoteID:     quoteID,
		Action:      action,
		Description: description,
		IPAddress:   requester.IPAddress,
		UserAgent:   requester.UserAgent,
		Metadata:    "{}",
		CreatedAt:   now,
	}
}
