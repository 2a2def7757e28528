package dto

import "time"

type PackageItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Coins      int    `json:"coins"`
	Bonus      int    `json:"bonus"`
	TotalCoins int    `json:"totalCoins"`
	Price      int64  `json:"price"`
}

type PackagesResponse struct {
	Packages []PackageItem `json:"packages"`
}

type PurchaseItem struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	PurchaseTime   time.Time `json:"purchaseTime"`
	TokenAmount    int       `json:"tokenAmount"`
	PurchaseAmount float64   `json:"purchaseAmount"`
}

type PurchasesResponse struct {
	Purchases []PurchaseItem `json:"purchases"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
