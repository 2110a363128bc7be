package model

import "time"

type PartnerDiscountItem struct {
	PackageID        string     `json:"package_id"`
	PackageType      string     `json:"package_type"`
	PaymentReference string     `json:"payment_reference"`
	DiscountHours    int        `json:"discount_hours"`
	IsSubscription   bool       `json:"is_subscription"`
	Status           string     `json:"status"`
	QueuePosition    int        `json:"queue_position"`
	PurchaseDate     time.Time  `json:"purchase_date"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	ExpiryDate       time.Time  `json:"expiry_date"`
}

type GetMyDiscountQueueRequest struct {
	UserID string `json:"user_id"`
}

type GetMyDiscountQueueResponse struct {
	Items []PartnerDiscountItem `json:"items"`
}

type CancelDiscountRequest struct {
	UserID           string `json:"user_id"`
	PaymentReference string `json:"payment_reference"`
}

type CancelDiscountResponse struct {
	Found bool `json:"found"`
}
