package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation types accepted by the foundation. The frontend sends the
// internal id; TypeLabels maps it to the label shown on receipts.
const (
	DonationTypeGeneral    = "general"
	DonationTypeEducation  = "education"
	DonationTypeLivelihood = "livelihood"
	DonationTypePeace      = "peace"
)

// TypeLabels maps a donation type id to its human-readable label.
var TypeLabels = map[string]string{
	DonationTypeGeneral:    "General Donation",
	DonationTypeEducation:  "Education",
	DonationTypeLivelihood: "Livelihood",
	DonationTypePeace:      "Peacebuilding",
}

// Donation statuses. Status is owned by the backend; clients only observe it.
const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
)

// DonationRequest is the body of POST /api/donations. Email format is
// validated here, server-side; the frontend sends it as typed.
type DonationRequest struct {
	Amount   int    `json:"amount" validate:"required,gt=0"`
	Type     string `json:"type" validate:"required,oneof=general education livelihood peace"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// PaymentData holds the transaction details reported by the payment
// gateway once it has processed the checkout. Present on a donation only
// after verification; field names follow the gateway's wire format.
type PaymentData struct {
	TransactionAmount     float64   `json:"transaction_amount" bson:"transaction_amount"`
	TransactionRef        string    `json:"transaction_ref" bson:"transaction_ref"`
	TransactionStatus     string    `json:"transaction_status" bson:"transaction_status"`
	TransactionCurrencyID string    `json:"transaction_currency_id" bson:"transaction_currency_id"`
	CreatedAt             time.Time `json:"created_at" bson:"created_at"`
	TransactionType       string    `json:"transaction_type" bson:"transaction_type"`
	CardType              string    `json:"card_type" bson:"card_type"`
	Fee                   float64   `json:"fee" bson:"fee"`
	MerchantAmount        float64   `json:"merchant_amount" bson:"merchant_amount"`
	MerchantID            string    `json:"merchant_id" bson:"merchant_id"`
	GatewayRef            string    `json:"gateway_ref" bson:"gateway_ref"`
}

// Donation is the persisted donation record. Reference is the opaque
// correlation id tying the record to the gateway transaction.
type Donation struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Amount      int                `json:"amount" bson:"amount"`
	Type        string             `json:"type" bson:"type"`
	Currency    string             `json:"currency" bson:"currency"`
	FullName    string             `json:"fullName" bson:"fullName"`
	Email       string             `json:"email" bson:"email"`
	Reference   string             `json:"reference" bson:"reference"`
	Status      string             `json:"status" bson:"status"`
	PaymentURL  string             `json:"paymentUrl,omitempty" bson:"paymentUrl,omitempty"`
	PaymentData *PaymentData       `json:"paymentData,omitempty" bson:"paymentData,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsTerminal reports whether the donation has reached a final status.
func (d *Donation) IsTerminal() bool {
	return d.Status == DonationStatusCompleted || d.Status == DonationStatusFailed
}

// CreateDonationData is the data payload returned by POST /api/donations.
type CreateDonationData struct {
	Donation   *Donation `json:"donation"`
	PaymentURL string    `json:"paymentUrl,omitempty"`
}

// VerifyDonationData is the data payload returned by
// GET /api/donations/verify/:reference.
type VerifyDonationData struct {
	Donation       *Donation `json:"donation"`
	PaymentStatus  string    `json:"paymentStatus"`
	Amount         int       `json:"amount"`
	Currency       string    `json:"currency"`
	Fee            float64   `json:"fee"`
	MerchantAmount float64   `json:"merchantAmount"`
}

// VerifyDonationResponse is the full verification envelope.
type VerifyDonationResponse struct {
	Success bool                `json:"success"`
	Data    *VerifyDonationData `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Response is the standard API response envelope.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
