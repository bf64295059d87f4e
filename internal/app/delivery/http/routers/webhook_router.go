package routers

import (
	"schoolpay-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachWebhookRoutes(r chi.Router, controller *controllers.WebhookController) {
	r.Post("/paystack/{institutionID}", controller.HandleGatewayEvent)
}
