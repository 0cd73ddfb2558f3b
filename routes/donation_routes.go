package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/amani-foundation/donations-backend/controllers"
	"github.com/amani-foundation/donations-backend/middleware"
)

// RegisterDonationRoutes wires the donation endpoints. All of them are
// public; authorization is owned by the upstream gateway, not this service.
func RegisterDonationRoutes(e *echo.Echo, dc *controllers.DonationController, idem *middleware.Idempotency) {
	api := e.Group("/api")

	if idem != nil {
		api.POST("/donations", dc.CreateDonation, idem.Middleware())
	} else {
		api.POST("/donations", dc.CreateDonation)
	}

	api.GET("/donations/verify/:reference", dc.VerifyDonation)
	api.GET("/donations/callback/success", dc.PaymentSuccessCallback)
	api.GET("/donations/callback/failure", dc.PaymentFailureCallback)
	api.GET("/donations/:reference/qr", dc.DonationQRCode)
}
