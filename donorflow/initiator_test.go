package donorflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amani-foundation/donations-backend/models"
)

func donationRequest() models.DonationRequest {
	return models.DonationRequest{
		Amount:   50000,
		Type:     "education",
		FullName: "Jane Doe",
		Email:    "jane@example.com",
	}
}

// newInitiator wires an Initiator against a fake donations API and a fresh
// in-memory reference store.
func newInitiator(t *testing.T, handler http.HandlerFunc) (*Initiator, *MemoryReferenceStore, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := NewMemoryReferenceStore()
	return NewInitiator(NewClient(server.URL, server.Client()), store), store, server
}

func TestSubmit_HappyPath_NavigatesAndPersistsReference(t *testing.T) {
	initiator, store, _ := newInitiator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/donations" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"message": "Donation initiated",
			"data": {
				"donation": {"reference": "DON-123", "amount": 50000, "type": "education", "status": "pending"},
				"paymentUrl": "https://pay.example/x"
			}
		}`))
	})

	nav, err := initiator.Submit(context.Background(), donationRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if nav == nil || nav.URL != "https://pay.example/x" {
		t.Errorf("expected navigation to https://pay.example/x, got %+v", nav)
	}

	stored, _ := store.Get(context.Background())
	if stored != "DON-123" {
		t.Errorf("expected stored reference DON-123, got %q", stored)
	}
}

func TestSubmit_MissingPaymentURL_IsHardFailure(t *testing.T) {
	// A 200-class response without data.paymentUrl is a server contract
	// violation: no navigation, no stored reference.
	initiator, store, _ := newInitiator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"message": "Donation initiated",
			"data": {"donation": {"reference": "DON-123"}}
		}`))
	})

	nav, err := initiator.Submit(context.Background(), donationRequest())
	if !errors.Is(err, ErrMissingPaymentURL) {
		t.Fatalf("expected ErrMissingPaymentURL, got %v", err)
	}
	if nav != nil {
		t.Errorf("expected no navigation, got %+v", nav)
	}

	stored, _ := store.Get(context.Background())
	if stored != "" {
		t.Errorf("expected no stored reference, got %q", stored)
	}
}

func TestSubmit_ServerError_NoNavigationNoReference(t *testing.T) {
	initiator, store, _ := newInitiator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	nav, err := initiator.Submit(context.Background(), donationRequest())
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if nav != nil {
		t.Errorf("expected no navigation, got %+v", nav)
	}

	stored, _ := store.Get(context.Background())
	if stored != "" {
		t.Errorf("expected no stored reference, got %q", stored)
	}
}

func TestSubmit_TransportError_NoNavigation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	store := NewMemoryReferenceStore()
	initiator := NewInitiator(NewClient(server.URL, nil), store)

	nav, err := initiator.Submit(context.Background(), donationRequest())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if nav != nil {
		t.Errorf("expected no navigation, got %+v", nav)
	}
}
