package entity

type User struct {
	Base

	Name  string
	Email string

	IsEmailVerified bool
	HasAnyPurchase  bool

	// AccumulatedEntries counts every entry ever granted to the user. It
	// only grows.
	AccumulatedEntries uint64

	// RewardsPoints grows with grants and shrinks with redemptions, it
	// never goes negative.
	RewardsPoints uint64

	ReferralCode        string `gorm:"unique"`
	ReferralConversions int
}
