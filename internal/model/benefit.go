package model

import "time"

// PackageDescriptor is the closed description of a purchased package. Type
// resolves to entity.PackageType; the remaining fields apply to every kind.
type PackageDescriptor struct {
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Entries int     `json:"entries"`
	Points  int     `json:"points"`
	Price   float64 `json:"price"`

	// DiscountHours grants partner-discount access when non-zero.
	DiscountHours int `json:"discount_hours,omitempty"`

	// MiniDrawID is required for mini-draw packages and optional for
	// upsells, where it is inherited from the parent purchase.
	MiniDrawID string `json:"mini_draw_id,omitempty"`
}

// PaymentMetadata is decoded from the free-form metadata the payment
// confirmation source attaches to a delivery.
type PaymentMetadata struct {
	Timestamp  time.Time `json:"timestamp" mapstructure:"timestamp"`
	MiniDrawID string    `json:"mini_draw_id" mapstructure:"mini_draw_id"`
}

type GrantBenefitsRequest struct {
	PaymentReference string `json:"payment_reference"`
	UserID           string `json:"user_id"`

	Package PackageDescriptor `json:"package"`

	// EventKind distinguishes a renewal delivery from a first purchase. It
	// defaults to purchase when empty.
	EventKind string `json:"event_kind,omitempty"`

	Origin       string         `json:"origin"`
	ReferralCode string         `json:"referral_code,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type GrantBenefitsResponse struct {
	Granted          bool `json:"granted"`
	AlreadyProcessed bool `json:"already_processed"`
}
