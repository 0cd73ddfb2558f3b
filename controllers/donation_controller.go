package controllers

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/amani-foundation/donations-backend/models"
	"github.com/amani-foundation/donations-backend/repositories"
)

// PaymentGateway is the slice of the gateway client the donation flow needs.
type PaymentGateway interface {
	CreateCheckout(req models.CheckoutRequest) (string, error)
	GetTransactionStatus(reference string) (*models.TransactionStatus, error)
}

// Mailer sends donor receipts. Send failures are logged, never surfaced.
type Mailer interface {
	SendDonationReceipt(donation *models.Donation) error
}

// DonationController handles donation creation, verification, gateway
// redirect landings, and the payment-link QR code.
type DonationController struct {
	repo    repositories.DonationRepository
	gateway PaymentGateway
	mailer  Mailer
	apiURL  string
	appURL  string
}

// NewDonationController creates a new donation controller. apiURL is this
// service's public base URL (for gateway redirect landings); appURL is the
// site the donor is sent back to.
func NewDonationController(repo repositories.DonationRepository, gateway PaymentGateway, mailer Mailer) *DonationController {
	return &DonationController{
		repo:    repo,
		gateway: gateway,
		mailer:  mailer,
		apiURL:  strings.TrimRight(os.Getenv("API_URL"), "/"),
		appURL:  strings.TrimRight(os.Getenv("APP_URL"), "/"),
	}
}

// generateReference issues the opaque correlation id tying a donation to
// its gateway transaction, e.g. "DON-3F2A9C81D04B".
func generateReference() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "DON-" + raw[:12]
}

// CreateDonation handles POST /api/donations. It records a pending
// donation, opens a hosted checkout session, and hands the checkout URL
// back to the client, which then performs a full-page navigation to it.
func (dc *DonationController) CreateDonation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req models.DonationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Validation failed: %v", err),
		})
	}

	donation := &models.Donation{
		Amount:    req.Amount,
		Type:      req.Type,
		Currency:  "NGN",
		FullName:  req.FullName,
		Email:     req.Email,
		Reference: generateReference(),
		Status:    models.DonationStatusPending,
	}

	typeLabel := models.TypeLabels[donation.Type]

	checkoutReq := models.CheckoutRequest{
		Amount:             float64(donation.Amount),
		Currency:           donation.Currency,
		Reference:          donation.Reference,
		CustomerName:       donation.FullName,
		CustomerEmail:      donation.Email,
		Narration:          fmt.Sprintf("Amani Foundation - %s", typeLabel),
		SuccessRedirectURL: fmt.Sprintf("%s/api/donations/callback/success?reference=%s", dc.apiURL, donation.Reference),
		FailureRedirectURL: fmt.Sprintf("%s/api/donations/callback/failure?reference=%s", dc.apiURL, donation.Reference),
	}

	paymentURL, err := dc.gateway.CreateCheckout(checkoutReq)
	if err != nil {
		log.Printf("Failed to create checkout for donation %s: %v", donation.Reference, err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to initiate payment. Please try again.",
		})
	}

	donation.PaymentURL = paymentURL

	if err := dc.repo.Create(ctx, donation); err != nil {
		log.Printf("Failed to save donation %s: %v", donation.Reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save donation. Please try again.",
		})
	}

	log.Printf("Donation %s created: %d NGN (%s) -> %s", donation.Reference, donation.Amount, donation.Type, paymentURL)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Donation initiated. Complete the payment to finish.",
		Data: models.CreateDonationData{
			Donation:   donation,
			PaymentURL: paymentURL,
		},
	})
}

// VerifyDonation handles GET /api/donations/verify/:reference. The return
// page calls it once after the gateway redirects the donor back. The sole
// success condition for callers is success=true with paymentStatus
// "success"; anything else renders as a failed payment.
func (dc *DonationController) VerifyDonation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reference := c.Param("reference")
	if reference == "" {
		return c.JSON(http.StatusBadRequest, models.VerifyDonationResponse{
			Success: false,
			Message: "Missing reference",
		})
	}

	donation, err := dc.repo.FindByReference(ctx, reference)
	if err != nil {
		if err == repositories.ErrDonationNotFound {
			return c.JSON(http.StatusNotFound, models.VerifyDonationResponse{
				Success: false,
				Message: "Donation not found",
			})
		}
		log.Printf("Failed to load donation %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.VerifyDonationResponse{
			Success: false,
			Message: "Failed to load donation",
		})
	}

	// Already-terminal donations answer from the stored record; the
	// gateway is not asked twice about a settled transaction.
	if donation.IsTerminal() {
		return c.JSON(http.StatusOK, models.VerifyDonationResponse{
			Success: true,
			Data:    verifyDataFromRecord(donation),
		})
	}

	txStatus, err := dc.gateway.GetTransactionStatus(reference)
	if err != nil {
		log.Printf("Failed to verify donation %s with gateway: %v", reference, err)
		return c.JSON(http.StatusBadGateway, models.VerifyDonationResponse{
			Success: false,
			Message: "Failed to verify payment",
		})
	}

	if txStatus.Status == "success" {
		paymentData := paymentDataFromStatus(donation, txStatus)
		if err := dc.repo.MarkVerified(ctx, reference, models.DonationStatusCompleted, paymentData); err != nil {
			log.Printf("Failed to mark donation %s completed: %v", reference, err)
			return c.JSON(http.StatusInternalServerError, models.VerifyDonationResponse{
				Success: false,
				Message: "Failed to record verification",
			})
		}

		donation.Status = models.DonationStatusCompleted
		donation.PaymentData = paymentData
		donation.UpdatedAt = time.Now()

		if dc.mailer != nil {
			receipt := *donation
			go func() {
				if err := dc.mailer.SendDonationReceipt(&receipt); err != nil {
					log.Printf("Failed to send receipt for %s: %v", receipt.Reference, err)
				}
			}()
		}

		log.Printf("Donation %s verified: success", reference)

		return c.JSON(http.StatusOK, models.VerifyDonationResponse{
			Success: true,
			Data: &models.VerifyDonationData{
				Donation:       donation,
				PaymentStatus:  "success",
				Amount:         donation.Amount,
				Currency:       donation.Currency,
				Fee:            paymentData.Fee,
				MerchantAmount: paymentData.MerchantAmount,
			},
		})
	}

	// Gateway answered but the payment did not succeed. A hard decline is
	// recorded; an unprocessed transaction stays pending so a later
	// verification attempt can still settle it.
	if txStatus.Status == "failed" {
		if err := dc.repo.UpdateStatus(ctx, reference, models.DonationStatusFailed); err != nil {
			log.Printf("Failed to mark donation %s failed: %v", reference, err)
		}
		donation.Status = models.DonationStatusFailed
	}

	log.Printf("Donation %s verified: gateway status %q", reference, txStatus.Status)

	return c.JSON(http.StatusOK, models.VerifyDonationResponse{
		Success: true,
		Data: &models.VerifyDonationData{
			Donation:       donation,
			PaymentStatus:  txStatus.Status,
			Amount:         donation.Amount,
			Currency:       donation.Currency,
			Fee:            txStatus.Fee,
			MerchantAmount: txStatus.MerchantAmount,
		},
	})
}

// PaymentSuccessCallback handles the gateway's success redirect. It only
// forwards the donor to the site's verification page; verification
// authority stays with VerifyDonation.
func (dc *DonationController) PaymentSuccessCallback(c echo.Context) error {
	reference := c.QueryParam("reference")
	if reference == "" {
		return c.String(http.StatusBadRequest, "Missing reference parameter")
	}

	log.Printf("Gateway success redirect for donation %s", reference)
	return c.Redirect(http.StatusSeeOther, dc.returnPageURL(reference))
}

// PaymentFailureCallback handles the gateway's failure redirect. The
// donation is marked failed best-effort; the donor still lands on the
// verification page, which reports the terminal state.
func (dc *DonationController) PaymentFailureCallback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reference := c.QueryParam("reference")
	if reference == "" {
		return c.String(http.StatusBadRequest, "Missing reference parameter")
	}

	log.Printf("Gateway failure redirect for donation %s", reference)

	if err := dc.repo.UpdateStatus(ctx, reference, models.DonationStatusFailed); err != nil {
		log.Printf("Failed to mark donation %s failed on callback: %v", reference, err)
	}

	return c.Redirect(http.StatusSeeOther, dc.returnPageURL(reference))
}

// DonationQRCode handles GET /api/donations/:reference/qr. It renders the
// pending donation's checkout URL as a PNG QR code so the donor can pay
// from a second device.
func (dc *DonationController) DonationQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reference := c.Param("reference")

	donation, err := dc.repo.FindByReference(ctx, reference)
	if err != nil {
		if err == repositories.ErrDonationNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Donation not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load donation",
		})
	}

	if donation.IsTerminal() {
		return c.JSON(http.StatusGone, models.Response{
			Status:  http.StatusGone,
			Message: "Donation is no longer payable",
		})
	}

	if donation.PaymentURL == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No payment link for this donation",
		})
	}

	qrCode, err := qr.Encode(donation.PaymentURL, qr.M, qr.Auto)
	if err != nil {
		log.Printf("Failed to encode QR for %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (dc *DonationController) returnPageURL(reference string) string {
	return fmt.Sprintf("%s/donation/verify?reference=%s", dc.appURL, url.QueryEscape(reference))
}

// verifyDataFromRecord builds the verification payload for a donation that
// already reached a terminal status.
func verifyDataFromRecord(donation *models.Donation) *models.VerifyDonationData {
	paymentStatus := "failed"
	fee := 0.0
	merchantAmount := 0.0

	if donation.Status == models.DonationStatusCompleted {
		paymentStatus = "success"
	}
	if donation.PaymentData != nil {
		if donation.PaymentData.TransactionStatus != "" {
			paymentStatus = donation.PaymentData.TransactionStatus
		}
		fee = donation.PaymentData.Fee
		merchantAmount = donation.PaymentData.MerchantAmount
	}

	return &models.VerifyDonationData{
		Donation:       donation,
		PaymentStatus:  paymentStatus,
		Amount:         donation.Amount,
		Currency:       donation.Currency,
		Fee:            fee,
		MerchantAmount: merchantAmount,
	}
}

// paymentDataFromStatus maps a gateway status query onto the donation's
// stored payment metadata.
func paymentDataFromStatus(donation *models.Donation, tx *models.TransactionStatus) *models.PaymentData {
	processedAt := time.Now()
	if tx.ProcessedAt != "" {
		if t, err := time.Parse(time.RFC3339, tx.ProcessedAt); err == nil {
			processedAt = t
		}
	}

	currencyID := tx.CurrencyID
	if currencyID == "" {
		currencyID = donation.Currency
	}

	return &models.PaymentData{
		TransactionAmount:     tx.Amount,
		TransactionRef:        tx.TransactionRef,
		TransactionStatus:     tx.Status,
		TransactionCurrencyID: currencyID,
		CreatedAt:             processedAt,
		TransactionType:       tx.TransactionType,
		CardType:              tx.CardType,
		Fee:                   tx.Fee,
		MerchantAmount:        tx.MerchantAmount,
		MerchantID:            tx.MerchantID,
		GatewayRef:            tx.GatewayRef,
	}
}
