package donorflow

import (
	"testing"
	"time"

	"github.com/amani-foundation/donations-backend/models"
)

func TestSuccessView_WithoutPaymentData(t *testing.T) {
	donation := &models.Donation{
		Reference: "DON-123",
		Type:      "education",
		Amount:    50000,
		Status:    "completed",
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
	}

	view := NewSuccessView(donation)

	if view.TypeLabel != "Education" {
		t.Errorf("expected type label Education, got %q", view.TypeLabel)
	}
	if view.AmountDisplay != "₦50,000" {
		t.Errorf("expected ₦50,000, got %q", view.AmountDisplay)
	}
	if view.HasPaymentData {
		t.Error("expected no payment data section")
	}
}

func TestSuccessView_WithPaymentData(t *testing.T) {
	processed := time.Date(2026, time.March, 14, 15, 4, 0, 0, time.UTC)
	donation := &models.Donation{
		Reference: "DON-123",
		Type:      "peace",
		Amount:    1250000,
		Status:    "completed",
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		PaymentData: &models.PaymentData{
			TransactionType: "card",
			CardType:        "visa",
			CreatedAt:       processed,
		},
	}

	view := NewSuccessView(donation)

	if !view.HasPaymentData {
		t.Fatal("expected payment data section")
	}
	if view.PaymentMethod != "card" || view.CardType != "visa" {
		t.Errorf("unexpected payment method fields: %q / %q", view.PaymentMethod, view.CardType)
	}
	if view.ProcessedAt != "March 14, 2026 3:04 PM" {
		t.Errorf("expected long date format, got %q", view.ProcessedAt)
	}
	if view.TypeLabel != "Peacebuilding" {
		t.Errorf("expected Peacebuilding, got %q", view.TypeLabel)
	}
	if view.AmountDisplay != "₦1,250,000" {
		t.Errorf("expected ₦1,250,000, got %q", view.AmountDisplay)
	}
}

func TestFailedView_CarriesReferenceAndNavigation(t *testing.T) {
	view := NewFailedView("DON-123")

	if view.Reference != "DON-123" {
		t.Errorf("expected reference DON-123, got %q", view.Reference)
	}
	if view.RetryURL == "" || view.HomeURL == "" {
		t.Error("failed view must offer retry and home navigation")
	}
	if view.Message == "" {
		t.Error("failed view must carry the generic message")
	}
}
