package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/amani-foundation/donations-backend/models"
	"github.com/amani-foundation/donations-backend/utils"
)

// EmailService sends donor-facing emails over SMTP.
type EmailService struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

// NewEmailService creates an email service from SMTP environment variables.
func NewEmailService() *EmailService {
	port := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	fromEmail := os.Getenv("SMTP_FROM")
	if fromEmail == "" {
		fromEmail = os.Getenv("SMTP_USER")
	}

	return &EmailService{
		host:      os.Getenv("SMTP_HOST"),
		port:      port,
		username:  os.Getenv("SMTP_USER"),
		password:  os.Getenv("SMTP_PASS"),
		fromEmail: fromEmail,
	}
}

// SendDonationReceipt emails the donor a receipt for a completed donation.
func (es *EmailService) SendDonationReceipt(donation *models.Donation) error {
	if es.host == "" || es.username == "" {
		return fmt.Errorf("SMTP not configured, skipping receipt for %s", donation.Reference)
	}

	typeLabel := models.TypeLabels[donation.Type]
	if typeLabel == "" {
		typeLabel = donation.Type
	}

	processedAt := utils.FormatLongDate(donation.UpdatedAt)
	if donation.PaymentData != nil {
		processedAt = utils.FormatLongDate(donation.PaymentData.CreatedAt)
	}

	subject := fmt.Sprintf("Thank you for your donation — %s", donation.Reference)
	body := fmt.Sprintf(`
		<h2>Thank you, %s!</h2>
		<p>Your donation to the Amani Foundation has been received.</p>
		<table>
			<tr><td>Reference</td><td>%s</td></tr>
			<tr><td>Donation</td><td>%s</td></tr>
			<tr><td>Amount</td><td>%s</td></tr>
			<tr><td>Processed</td><td>%s</td></tr>
		</table>
		<p>Keep this email for your records. The reference above identifies
		your donation if you ever need to contact support.</p>
	`, donation.FullName, donation.Reference, typeLabel,
		utils.FormatNaira(donation.Amount), processedAt)

	m := gomail.NewMessage()
	m.SetHeader("From", es.fromEmail)
	m.SetHeader("To", donation.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(es.host, es.port, es.username, es.password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Receipt email sent to %s for donation %s", maskEmail(donation.Email), donation.Reference)
	return nil
}

// maskEmail partially masks an email address for privacy in logs
func maskEmail(email string) string {
	at := -1
	for i, r := range email {
		if r == '@' {
			at = i
			break
		}
	}
	if at <= 1 {
		return email
	}
	return email[:1] + "***" + email[at:]
}
