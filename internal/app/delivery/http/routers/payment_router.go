package routers

import (
	"schoolpay-service/internal/app/delivery/http/controllers"
	"schoolpay-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachPaymentRoutes(r chi.Router, m *middlewares.Middlewares, controller *controllers.PaymentController) {
	r.Post("/initialize", controller.InitializePayment)
	r.Get("/{institutionID}/verify/{reference}", controller.VerifyPayment)
	r.Post("/{institutionID}/cancel/{reference}", controller.CancelPayment)

	r.Group(func(r chi.Router) {
		r.Use(m.AdminAuth)
		r.Post("/{institutionID}/re-verify/{reference}", controller.ReverifyPayment)
		r.Get("/{institutionID}/sessions/{sessionID}", controller.ListBySession)
	})
}
