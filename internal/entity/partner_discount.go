package entity

import (
	"database/sql"
	"time"

	"github.com/prizeloop/backend/pkg/enum"
)

type DiscountStatus string

var (
	DiscountActive    = enum.New(DiscountStatus("active"))
	DiscountQueued    = enum.New(DiscountStatus("queued"))
	DiscountExpired   = enum.New(DiscountStatus("expired"))
	DiscountCancelled = enum.New(DiscountStatus("cancelled"))
)

// PartnerDiscountItem is one time-boxed discount-access grant in a user's
// queue. At most one non-subscription item is active per user at a time;
// queue positions are dense and re-packed after any removal.
type PartnerDiscountItem struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	PackageID   string
	PackageType PackageType

	PaymentReference string `gorm:"index"`

	DiscountHours int

	// IsSubscription items always occupy the active slot the instant they
	// start, preempting any active one-off item.
	IsSubscription bool

	Status        DiscountStatus
	QueuePosition int

	PurchaseDate time.Time
	StartDate    sql.NullTime
	EndDate      sql.NullTime
	ExpiryDate   time.Time
}
