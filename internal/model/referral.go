package model

type VerifyEmailRequest struct {
	UserID string `json:"user_id"`
}

type VerifyEmailResponse struct {
	ConvertedReferrals int `json:"converted_referrals"`
}
