package model

import "time"

type Draw struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	ActivationDate      *time.Time `json:"activation_date,omitempty"`
	FreezeEntriesAt     *time.Time `json:"freeze_entries_at,omitempty"`
	DrawDate            time.Time  `json:"draw_date"`
	MinimumEntries      int        `json:"minimum_entries,omitempty"`
	TotalEntries        int        `json:"total_entries"`
	ConfigurationLocked bool       `json:"configuration_locked"`
	PrizeName           string     `json:"prize_name"`
	PrizeDescription    string     `json:"prize_description"`
	PrizeValue          float64    `json:"prize_value"`
}

type DrawEntry struct {
	DrawID            string    `json:"draw_id"`
	UserID            string    `json:"user_id"`
	TotalEntries      int       `json:"total_entries"`
	MembershipEntries int       `json:"membership_entries"`
	OneTimeEntries    int       `json:"one_time_entries"`
	UpsellEntries     int       `json:"upsell_entries"`
	MiniDrawEntries   int       `json:"mini_draw_entries"`
	ReferralEntries   int       `json:"referral_entries"`
	FirstAddedAt      time.Time `json:"first_added_at"`
	LastUpdatedAt     time.Time `json:"last_updated_at"`
}

type GetDrawRequest struct {
	DrawID string `json:"draw_id"`
}

type GetDrawResponse struct {
	Draw Draw `json:"draw"`
}

type GetMyEntriesRequest struct {
	UserID string `json:"user_id"`
}

type GetMyEntriesResponse struct {
	Entries []DrawEntry `json:"entries"`
}
