package entity

import (
	"database/sql"

	"github.com/prizeloop/backend/pkg/enum"
)

type ReferralStatus string

var (
	ReferralPending   = enum.New(ReferralStatus("pending"))
	ReferralConverted = enum.New(ReferralStatus("converted"))
)

// ReferralEvent tracks one invitee purchasing through a referral code. It
// converts exactly once, when the invitee's email is verified.
type ReferralEvent struct {
	Base

	ReferrerID string `gorm:"uniqueIndex:idx_referral_events_parties"`
	Referrer   User   `gorm:"foreignKey:ReferrerID"`

	ReferralCode string `gorm:"uniqueIndex:idx_referral_events_parties"`

	InviteeUserID string `gorm:"uniqueIndex:idx_referral_events_parties"`
	Invitee       User   `gorm:"foreignKey:InviteeUserID"`

	Status      ReferralStatus
	ConvertedAt sql.NullTime
}
