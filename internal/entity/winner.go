package entity

import (
	"time"

	"github.com/prizeloop/backend/pkg/enum"
)

type FulfillmentStatus string

var (
	FulfillmentPending   = enum.New(FulfillmentStatus("pending"))
	FulfillmentShipped   = enum.New(FulfillmentStatus("shipped"))
	FulfillmentDelivered = enum.New(FulfillmentStatus("delivered"))
)

// Winner is a write-once snapshot created when a draw concludes. The prize
// fields are copied from the draw, so later prize edits never alter the
// historical record.
type Winner struct {
	Base

	DrawID string `gorm:"unique"`
	Draw   Draw   `gorm:"foreignKey:DrawID"`

	DrawType DrawType

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	EntryNumber int
	SelectedAt  time.Time

	PrizeSnapshot Map

	FulfillmentStatus FulfillmentStatus
	Cycle             int
}
