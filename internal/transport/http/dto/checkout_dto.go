package dto

type CreateCheckoutSessionRequest struct {
	PackageID string `json:"packageId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

type CreateCheckoutSessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type VerifyPaymentResponse struct {
	Success   bool   `json:"success"`
	PackageID string `json:"packageId,omitempty"`
	Coins     *int   `json:"coins,omitempty"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
