package responses

import (
	"schoolpay-service/internal/app/models"
)

type InitializePayment struct {
	AuthorizationURL string  `json:"authorization_url"`
	AccessCode       string  `json:"access_code"`
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
}

type VerifyPayment struct {
	Verified bool            `json:"verified"`
	Message  string          `json:"message"`
	Payment  *models.Payment `json:"payment,omitempty"`
}
