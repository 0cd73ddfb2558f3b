package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/amani-foundation/donations-backend/models"
)

const (
	gatewaySandboxURL    = "https://api.sandbox.coralgate.ng/collect-service/api/"
	gatewayProductionURL = "https://api.coralgate.ng/collect-service/api/"
)

// GatewayService handles interactions with the hosted-checkout gateway API
type GatewayService struct {
	baseURL    string
	merchantID string
	secret     string
	appURL     string
	isTesting  bool
	httpClient *http.Client
}

// NewGatewayService creates a new gateway service instance
func NewGatewayService() *GatewayService {
	// Default to production unless GATEWAY_ENV is set to "testing"
	gatewayEnv := os.Getenv("GATEWAY_ENV")
	isTesting := gatewayEnv == "testing"

	baseURL := os.Getenv("GATEWAY_BASE_URL")
	if baseURL == "" {
		if isTesting {
			baseURL = gatewaySandboxURL
		} else {
			baseURL = gatewayProductionURL
		}
	}

	merchantID := os.Getenv("GATEWAY_MERCHANT_ID")
	secret := os.Getenv("GATEWAY_SECRET")
	appURL := os.Getenv("APP_URL")

	if merchantID == "" || secret == "" || appURL == "" {
		log.Printf("WARNING: gateway credentials not fully configured:")
		if merchantID == "" {
			log.Printf("  - GATEWAY_MERCHANT_ID is missing")
		}
		if secret == "" {
			log.Printf("  - GATEWAY_SECRET is missing")
		}
		if appURL == "" {
			log.Printf("  - APP_URL is missing")
		}
		log.Printf("Please set these environment variables for the payment gateway to work")
		log.Printf("Set GATEWAY_ENV=testing to use the sandbox, or leave unset for production")
	} else {
		log.Printf("Gateway Service Configuration:")
		log.Printf("  Environment: %s", map[bool]string{true: "testing", false: "production"}[isTesting])
		log.Printf("  Base URL: %s", baseURL)
		log.Printf("  Merchant ID: %s", merchantID)
		log.Printf("  App URL: %s", appURL)
		log.Printf("  Secret: [CONFIGURED]")
	}

	return &GatewayService{
		baseURL:    baseURL,
		merchantID: merchantID,
		secret:     secret,
		appURL:     appURL,
		isTesting:  isTesting,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// getHeaders returns the standard headers required for gateway API requests
func (s *GatewayService) getHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"merchantid":   s.merchantID,
		"secret":       s.secret,
		"appurl":       s.appURL,
	}
}

// makeRequest performs an HTTP request to the gateway API
func (s *GatewayService) makeRequest(method, endpoint string, payload interface{}) (*models.GatewayResponse, error) {
	url := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.merchantID == "" || s.secret == "" || s.appURL == "" {
		return nil, fmt.Errorf("missing gateway credentials. Please set GATEWAY_MERCHANT_ID, GATEWAY_SECRET, and APP_URL environment variables")
	}

	headers := s.getHeaders()

	if s.isTesting || os.Getenv("GATEWAY_DEBUG") == "true" {
		log.Printf("Gateway API Request:")
		log.Printf("  URL: %s", url)
		log.Printf("  Method: %s", method)
		for key, value := range headers {
			if key == "secret" {
				log.Printf("  %s: [HIDDEN]", key)
			} else {
				log.Printf("  %s: %s", key, value)
			}
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if s.isTesting || os.Getenv("GATEWAY_DEBUG") == "true" {
		log.Printf("Gateway API Response: %s", string(respBody))
	}

	var gatewayResp models.GatewayResponse
	if err := json.Unmarshal(respBody, &gatewayResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	if !gatewayResp.Status {
		code := "unknown"
		if gatewayResp.Code != nil {
			if codeStr, ok := gatewayResp.Code.(string); ok {
				code = codeStr
			} else {
				code = fmt.Sprintf("%v", gatewayResp.Code)
			}
		}

		// The dialog object carries the human-readable error message
		var errorMsg string
		if gatewayResp.Dialog != nil {
			if dialogMap, ok := gatewayResp.Dialog.(map[string]interface{}); ok {
				if msg, ok := dialogMap["message"].(string); ok {
					errorMsg = fmt.Sprintf("gateway API error: %s - %s", code, msg)
				}
			}
		}

		if errorMsg == "" {
			errorMsg = fmt.Sprintf("gateway API error: %s", code)
		}

		log.Printf("Gateway API Error Details: Code=%s, Dialog=%v", code, gatewayResp.Dialog)

		return &gatewayResp, fmt.Errorf("%s", errorMsg)
	}

	return &gatewayResp, nil
}

// GetBalance retrieves the merchant account balance. Used at startup as a
// health signal for the merchant account; a failure never blocks payments.
func (s *GatewayService) GetBalance() (float64, error) {
	resp, err := s.makeRequest("GET", "payment/account/balance", nil)
	if err != nil {
		return 0, err
	}

	if balanceDetails, ok := resp.Data["balanceDetails"].(map[string]interface{}); ok {
		if balance, ok := balanceDetails["balance"].(float64); ok {
			return balance, nil
		}
	}

	return 0, fmt.Errorf("failed to parse balance from response")
}

// CreateCheckout opens a hosted checkout session and returns the URL the
// donor's browser is redirected to.
func (s *GatewayService) CreateCheckout(req models.CheckoutRequest) (string, error) {
	resp, err := s.makeRequest("POST", "payment/checkout", req)
	if err != nil {
		return "", err
	}

	if checkoutURL, ok := resp.Data["checkoutUrl"].(string); ok {
		return checkoutURL, nil
	}

	return "", fmt.Errorf("failed to parse checkout URL from response")
}

// GetTransactionStatus returns the gateway's view of the transaction tied
// to reference. Metadata fields besides Status are empty until the gateway
// has processed the transaction.
func (s *GatewayService) GetTransactionStatus(reference string) (*models.TransactionStatus, error) {
	payload := models.StatusRequest{Reference: reference}

	resp, err := s.makeRequest("POST", "payment/checkout/status", payload)
	if err != nil {
		return nil, err
	}

	status := &models.TransactionStatus{}

	if v, ok := resp.Data["transactionStatus"].(string); ok {
		status.Status = v
	}
	if v, ok := resp.Data["transactionRef"].(string); ok {
		status.TransactionRef = v
	}
	if v, ok := resp.Data["transactionAmount"].(float64); ok {
		status.Amount = v
	}
	if v, ok := resp.Data["transactionCurrencyId"].(string); ok {
		status.CurrencyID = v
	}
	if v, ok := resp.Data["transactionType"].(string); ok {
		status.TransactionType = v
	}
	if v, ok := resp.Data["cardType"].(string); ok {
		status.CardType = v
	}
	if v, ok := resp.Data["fee"].(float64); ok {
		status.Fee = v
	}
	if v, ok := resp.Data["merchantAmount"].(float64); ok {
		status.MerchantAmount = v
	}
	if v, ok := resp.Data["merchantId"].(string); ok {
		status.MerchantID = v
	}
	if v, ok := resp.Data["gatewayRef"].(string); ok {
		status.GatewayRef = v
	}
	if v, ok := resp.Data["createdAt"].(string); ok {
		status.ProcessedAt = v
	}

	return status, nil
}
