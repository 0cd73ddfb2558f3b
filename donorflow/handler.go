package donorflow

import (
	"context"

	"github.com/amani-foundation/donations-backend/models"
)

// State is where the return page landed. Pending exists only between mount
// and the single verification attempt; the flow then settles on Success or
// Failed and never transitions again.
type State int

const (
	StatePending State = iota
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// FailureReason records why the flow failed. The donor sees one generic
// failed screen regardless; the reason is kept for tests and diagnostics.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	// ReasonNoReference: nothing to verify — absent from both the URL
	// query and the store. No network call is made.
	ReasonNoReference
	// ReasonRequestFailed: the verification HTTP call failed (transport
	// error or non-2xx).
	ReasonRequestFailed
	// ReasonGatewayDeclined: the HTTP call succeeded but the payment did
	// not.
	ReasonGatewayDeclined
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoReference:
		return "no reference"
	case ReasonRequestFailed:
		return "request failed"
	case ReasonGatewayDeclined:
		return "gateway declined"
	}
	return "unknown"
}

// Outcome is the settled result of the return flow.
type Outcome struct {
	State         State
	Reference     string
	PaymentStatus string
	Donation      *models.Donation
	Reason        FailureReason
}

// ReturnHandler resolves the outcome of a donation after the browser
// returns from the external gateway.
type ReturnHandler struct {
	client *Client
	store  ReferenceStore
}

func NewReturnHandler(client *Client, store ReferenceStore) *ReturnHandler {
	return &ReturnHandler{client: client, store: store}
}

// ResolveReference picks the reference to verify: the URL query parameter
// wins over the stored reference. Returns "" when neither exists.
func (h *ReturnHandler) ResolveReference(ctx context.Context, queryReference string) string {
	if queryReference != "" {
		return queryReference
	}
	stored, err := h.store.Get(ctx)
	if err != nil {
		return ""
	}
	return stored
}

// Run makes the single verification attempt and settles the flow. The sole
// success condition is success=true with paymentStatus "success"; every
// other answer — including success=true with any other status — fails. On
// success the stored reference is cleared; on failure it is left in place.
func (h *ReturnHandler) Run(ctx context.Context, queryReference string) Outcome {
	reference := h.ResolveReference(ctx, queryReference)
	if reference == "" {
		return Outcome{
			State:  StateFailed,
			Reason: ReasonNoReference,
		}
	}

	result, err := h.client.VerifyDonation(ctx, reference)
	if err != nil {
		return Outcome{
			State:     StateFailed,
			Reference: reference,
			Reason:    ReasonRequestFailed,
		}
	}

	if result.Success && result.Data != nil && result.Data.PaymentStatus == "success" {
		// One-time durable-state cleanup; a failed clear is not worth
		// failing a verified payment over.
		_ = h.store.Clear(ctx)

		return Outcome{
			State:         StateSuccess,
			Reference:     reference,
			PaymentStatus: result.Data.PaymentStatus,
			Donation:      result.Data.Donation,
		}
	}

	outcome := Outcome{
		State:     StateFailed,
		Reference: reference,
		Reason:    ReasonGatewayDeclined,
	}
	if result.Data != nil {
		outcome.PaymentStatus = result.Data.PaymentStatus
		outcome.Donation = result.Data.Donation
	}
	return outcome
}
