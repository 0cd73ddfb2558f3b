package donorflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/amani-foundation/donations-backend/models"
)

// ErrMissingPaymentURL means the server accepted the donation but its
// response had no payment URL. That is a contract violation, not a
// recoverable case: the flow aborts and the donor retries from scratch.
var ErrMissingPaymentURL = errors.New("donation response missing payment URL")

// Navigation describes the full-page redirect that hands the donor to the
// hosted checkout. Submit returns it as a value instead of performing it,
// so callers (and tests) decide how and whether the redirect happens.
type Navigation struct {
	URL string
}

// Initiator collects a donation intent and starts an off-site payment
// session. Its lifecycle ends at the returned Navigation; there is no
// callback path back into it.
type Initiator struct {
	client *Client
	store  ReferenceStore
}

func NewInitiator(client *Client, store ReferenceStore) *Initiator {
	return &Initiator{client: client, store: store}
}

// Submit sends the donation to the backend and, on success, persists the
// returned reference and describes the redirect to the checkout page.
// Exactly one outbound request is made; nothing is retried. On any error
// the store is left untouched and no navigation happens.
func (i *Initiator) Submit(ctx context.Context, request models.DonationRequest) (*Navigation, error) {
	created, err := i.client.CreateDonation(ctx, request)
	if err != nil {
		return nil, err
	}

	if created.PaymentURL == "" || created.Donation == nil || created.Donation.Reference == "" {
		return nil, ErrMissingPaymentURL
	}

	// The reference goes into durable storage before the redirect so the
	// return page can recover it even if the gateway drops the query
	// parameter on the way back.
	if err := i.store.Set(ctx, created.Donation.Reference); err != nil {
		return nil, fmt.Errorf("failed to persist donation reference: %w", err)
	}

	return &Navigation{URL: created.PaymentURL}, nil
}
