package dto

import (
	"time"

	"github.com/polkiloo/coursepay/internal/checkout"
)

// CheckoutRequest starts a checkout attempt for a course.
type CheckoutRequest struct {
	CourseID string         `json:"courseId"`
	User     map[string]any `json:"user,omitempty"`
	UserID   string         `json:"userId,omitempty"`
	Name     string         `json:"name,omitempty"`
	Email    string         `json:"email,omitempty"`
	Contact  string         `json:"contact,omitempty"`
}

// Fields flattens the stored user object and top level identity fields.
// Top level values win over the nested user object.
func (r CheckoutRequest) Fields() map[string]any {
	fields := make(map[string]any, len(r.User)+4)
	for k, v := range r.User {
		fields[k] = v
	}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("userId", r.UserID)
	set("name", r.Name)
	set("email", r.Email)
	set("contact", r.Contact)
	return fields
}

// CheckoutResponse is either a widget configuration or a free enrollment redirect.
type CheckoutResponse struct {
	OrderID     string                 `json:"orderId"`
	Free        bool                   `json:"free"`
	RedirectURL string                 `json:"redirectUrl,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Widget      *checkout.WidgetConfig `json:"widget,omitempty"`
}

// SuccessRequest is the widget success payload. Both API style and gateway
// style keys are accepted since the browser relays the handler argument as is.
type SuccessRequest struct {
	OrderID          string `json:"orderId,omitempty"`
	PaymentID        string `json:"paymentId,omitempty"`
	Signature        string `json:"signature,omitempty"`
	GatewayOrderID   string `json:"razorpay_order_id,omitempty"`
	GatewayPaymentID string `json:"razorpay_payment_id,omitempty"`
	GatewaySignature string `json:"razorpay_signature,omitempty"`
}

// Normalize returns order, payment and signature preferring API style keys.
func (r SuccessRequest) Normalize() (orderID, paymentID, signature string) {
	return first(r.OrderID, r.GatewayOrderID), first(r.PaymentID, r.GatewayPaymentID), first(r.Signature, r.GatewaySignature)
}

func first(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// StatusResponse describes what the browser should render for an attempt.
type StatusResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	WidgetOpen  bool   `json:"widgetOpen"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Message     string `json:"message,omitempty"`
}

// AttemptResponse is a journal row for support lookups.
type AttemptResponse struct {
	OrderID     string    `json:"orderId"`
	CourseID    string    `json:"courseId"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	State       string    `json:"state"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrorResponse carries a machine code and a user visible message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
