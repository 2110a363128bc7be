package entity

import (
	"database/sql"
	"time"

	"github.com/prizeloop/backend/pkg/enum"
)

type PackageType string

var (
	PackageOneTime      = enum.New(PackageType("one-time"))
	PackageSubscription = enum.New(PackageType("subscription"))
	PackageUpsell       = enum.New(PackageType("upsell"))
	PackageMiniDraw     = enum.New(PackageType("mini-draw"))
)

// Purchase is an append-only record of a granted package. One row is created
// per successful benefit grant.
type Purchase struct {
	Base

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	PaymentReference string `gorm:"index"`

	PackageType PackageType
	PackageID   string
	PackageName string

	Entries int
	Points  int
	Price   float64

	// DiscountHours is non-zero when the package grants partner-discount
	// access.
	DiscountHours int

	// MiniDrawID references the mini draw this purchase belongs to. For
	// upsells it is inherited from the parent purchase.
	MiniDrawID sql.NullString

	PurchasedAt time.Time
}
