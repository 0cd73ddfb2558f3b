package donorflow

import (
	"github.com/amani-foundation/donations-backend/models"
	"github.com/amani-foundation/donations-backend/utils"
)

// SuccessView is everything the success page shows. Payment method fields
// are filled only when the gateway reported transaction details.
type SuccessView struct {
	Reference     string
	TypeLabel     string
	AmountDisplay string
	Status        string
	FullName      string
	Email         string

	HasPaymentData bool
	PaymentMethod  string
	CardType       string
	ProcessedAt    string
}

// FailedView is everything the failed page shows. It is identical for all
// failure reasons: the donor gets one generic message plus the raw
// reference (when one was resolved) for support correlation.
type FailedView struct {
	Message   string
	Reference string
	RetryURL  string
	HomeURL   string
}

const failedMessage = "We could not confirm your donation. If you were charged, " +
	"please contact support with the reference below, or try again."

// NewSuccessView builds the success page model from a verified donation.
func NewSuccessView(donation *models.Donation) SuccessView {
	view := SuccessView{
		Reference:     donation.Reference,
		TypeLabel:     typeLabel(donation.Type),
		AmountDisplay: utils.FormatNaira(donation.Amount),
		Status:        donation.Status,
		FullName:      donation.FullName,
		Email:         donation.Email,
	}

	if donation.PaymentData != nil {
		view.HasPaymentData = true
		view.PaymentMethod = donation.PaymentData.TransactionType
		view.CardType = donation.PaymentData.CardType
		view.ProcessedAt = utils.FormatLongDate(donation.PaymentData.CreatedAt)
	}

	return view
}

// NewFailedView builds the failed page model. reference may be empty when
// none was resolvable.
func NewFailedView(reference string) FailedView {
	return FailedView{
		Message:   failedMessage,
		Reference: reference,
		RetryURL:  "/donate",
		HomeURL:   "/",
	}
}

// RenderOutcome maps a settled Outcome onto its page model. It returns
// exactly one non-nil view.
func RenderOutcome(outcome Outcome) (*SuccessView, *FailedView) {
	if outcome.State == StateSuccess && outcome.Donation != nil {
		view := NewSuccessView(outcome.Donation)
		return &view, nil
	}
	view := NewFailedView(outcome.Reference)
	return nil, &view
}

func typeLabel(id string) string {
	if label, ok := models.TypeLabels[id]; ok {
		return label
	}
	return id
}
