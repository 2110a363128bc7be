package entity

import (
	"time"

	"github.com/prizeloop/backend/pkg/enum"
)

type PaymentEventKind string

var (
	PaymentEventPurchase = enum.New(PaymentEventKind("purchase"))
	PaymentEventRenewal  = enum.New(PaymentEventKind("renewal"))
	PaymentEventRefund   = enum.New(PaymentEventKind("refund"))
)

// PaymentEvent is the idempotency ledger. One row exists per
// (payment_reference, event_kind); its presence is the source of truth for
// "this payment is already processed". Rows are never updated.
type PaymentEvent struct {
	Base

	PaymentReference string           `gorm:"uniqueIndex:idx_payment_events_ref_kind"`
	EventKind        PaymentEventKind `gorm:"uniqueIndex:idx_payment_events_ref_kind"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	PackageType PackageType
	PackageID   string
	PackageName string

	GrantedEntries int
	GrantedPoints  int
	Price          float64

	Origin      string
	ProcessedAt time.Time
}
