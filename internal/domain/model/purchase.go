package model

import "time"

type PurchaseRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"stripe_session_id"`
	PurchaseTime   time.Time `json:"purchase_time"`
	TokenAmount    int       `json:"token_amount"`
	PurchaseAmount float64   `json:"purchase_amount"`
}
