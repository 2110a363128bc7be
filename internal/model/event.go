package model

import "time"

// Topics of fire-and-forget notification events. Delivery failures are
// logged, never propagated back into the benefit grant.
const (
	PurchaseCompletedTopic = "purchase-completed"
	EntriesAddedTopic      = "entries-added"
	ReferralConvertedTopic = "referral-converted"
	WinnerSelectedTopic    = "winner-selected"
)

type PurchaseCompletedEvent struct {
	EventID          int64     `json:"event_id"`
	PaymentReference string    `json:"payment_reference"`
	UserID           string    `json:"user_id"`
	PackageType      string    `json:"package_type"`
	PackageID        string    `json:"package_id"`
	Entries          int       `json:"entries"`
	Points           int       `json:"points"`
	Price            float64   `json:"price"`
	ProcessedAt      time.Time `json:"processed_at"`
}

type EntriesAddedEvent struct {
	EventID int64  `json:"event_id"`
	DrawID  string `json:"draw_id"`
	UserID  string `json:"user_id"`
	Source  string `json:"source"`
	Count   int    `json:"count"`
}

type ReferralConvertedEvent struct {
	EventID      int64  `json:"event_id"`
	ReferrerID   string `json:"referrer_id"`
	InviteeID    string `json:"invitee_id"`
	BonusEntries int    `json:"bonus_entries"`
}

type WinnerSelectedEvent struct {
	EventID     int64  `json:"event_id"`
	DrawID      string `json:"draw_id"`
	UserID      string `json:"user_id"`
	EntryNumber int    `json:"entry_number"`
}
