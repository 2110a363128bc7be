package entity

import (
	"database/sql"
	"time"

	"github.com/prizeloop/backend/pkg/enum"
)

type DrawType string

var (
	DrawMajor = enum.New(DrawType("major"))
	DrawMini  = enum.New(DrawType("mini"))
)

type DrawStatus string

var (
	DrawQueued    = enum.New(DrawStatus("queued"))
	DrawActive    = enum.New(DrawStatus("active"))
	DrawFrozen    = enum.New(DrawStatus("frozen"))
	DrawCompleted = enum.New(DrawStatus("completed"))
	DrawCancelled = enum.New(DrawStatus("cancelled"))
)

// Draw is created by draw administration and only read and transitioned
// here. Status is a pure function of the stored dates, recomputed lazily
// wherever the draw is touched.
type Draw struct {
	Base

	Name   string
	Type   DrawType
	Status DrawStatus `gorm:"index"`

	// ActivationDate applies to major draws only: a queued major draw
	// becomes active when it passes.
	ActivationDate  sql.NullTime
	FreezeEntriesAt sql.NullTime
	DrawDate        time.Time

	// MinimumEntries is the capacity of a mini draw. Zero means unbounded
	// (major draws).
	MinimumEntries int

	// TotalEntries is denormalized from the per-user aggregate rows and
	// recomputed after every mutation.
	TotalEntries int

	ConfigurationLocked bool
	LockedAt            sql.NullTime

	PrizeName        string
	PrizeDescription string
	PrizeValue       float64

	Cycle int
}

type EntrySource string

var (
	EntrySourceMembership = enum.New(EntrySource("membership"))
	EntrySourceOneTime    = enum.New(EntrySource("one-time-package"))
	EntrySourceUpsell     = enum.New(EntrySource("upsell"))
	EntrySourceMiniDraw   = enum.New(EntrySource("mini-draw"))
	EntrySourceReferral   = enum.New(EntrySource("referral"))
)

// DrawEntry is the aggregated entries of one user in one draw. There is at
// most one row per (draw, user); individual entries are never stored.
type DrawEntry struct {
	Base

	DrawID string `gorm:"uniqueIndex:idx_draw_entries_draw_user"`
	Draw   Draw   `gorm:"foreignKey:DrawID"`

	UserID string `gorm:"uniqueIndex:idx_draw_entries_draw_user"`
	User   User   `gorm:"foreignKey:UserID"`

	TotalEntries int

	MembershipEntries int
	OneTimeEntries    int
	UpsellEntries     int
	MiniDrawEntries   int
	ReferralEntries   int

	FirstAddedAt  time.Time
	LastUpdatedAt time.Time
}
