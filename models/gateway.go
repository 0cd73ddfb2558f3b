package models

// CheckoutRequest is the payload sent to the gateway to open a hosted
// checkout session.
type CheckoutRequest struct {
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Reference          string  `json:"reference"`
	CustomerName       string  `json:"customerName,omitempty"`
	CustomerEmail      string  `json:"customerEmail,omitempty"`
	Narration          string  `json:"narration,omitempty"`
	SuccessRedirectURL string  `json:"successRedirectUrl,omitempty"`
	FailureRedirectURL string  `json:"failureRedirectUrl,omitempty"`
}

// StatusRequest asks the gateway for the outcome of a transaction.
type StatusRequest struct {
	Reference string `json:"reference"`
}

// GatewayResponse is the standard envelope returned by the gateway API.
type GatewayResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"`   // string or null
	Dialog interface{}            `json:"dialog"` // string, object, or null
	Data   map[string]interface{} `json:"data"`
}

// TransactionStatus is the parsed result of a gateway status query.
// Everything besides Status is only populated once the gateway has
// processed the transaction.
type TransactionStatus struct {
	Status          string
	TransactionRef  string
	Amount          float64
	CurrencyID      string
	TransactionType string
	CardType        string
	Fee             float64
	MerchantAmount  float64
	MerchantID      string
	GatewayRef      string
	ProcessedAt     string
}
