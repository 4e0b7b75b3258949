package handler

import "campus/internal/payment/models"

type CouponsResponse struct {
	Coupons []models.Coupon `json:"coupons"`
	Total   int             `json:"total"`
}

type PlansResponse struct {
	Plans []models.SubscriptionPlan `json:"plans"`
	Total int                       `json:"total"`
}

type PaymentsResponse struct {
	Payments []models.Payment `json:"payments"`
	Total    int              `json:"total"`
}

type SubscriptionsResponse struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	Total         int                   `json:"total"`
}

type PayoutsResponse struct {
	Payouts []models.CommissionPayout `json:"payouts"`
	Total   int                       `json:"total"`
}

type ProcessedResponse struct {
	Processed int `json:"processed"`
}

// NotificationResponse acknowledges a gateway callback. Status is set when
// the callback settled a payment.
type NotificationResponse struct {
	Received bool                 `json:"received"`
	Status   models.PaymentStatus `json:"status,omitempty"`
}
