package model

// OrderStatus mirrors payment order status reported by backend.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "CREATED"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
	OrderStatusUnknown OrderStatus = "UNKNOWN"
)

// ParseOrderStatus normalizes backend status value.
func ParseOrderStatus(s string) OrderStatus {
	switch OrderStatus(s) {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusFailed:
		return OrderStatus(s)
	default:
		return OrderStatusUnknown
	}
}

// DefaultCurrency is used when backend omits currency.
const DefaultCurrency = "INR"

// PaymentOrder describes a pending or completed payment attempt.
// Amounts are always kept in minor currency units.
type PaymentOrder struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	CourseID    string
	CourseName  string
	Status      OrderStatus
}

// IsFree reports whether the order must take the free enrollment path.
func (o *PaymentOrder) IsFree() bool {
	return o.AmountMinor <= 0
}

// PaymentCredentials are issued by the gateway on successful payment.
type PaymentCredentials struct {
	OrderID   string
	PaymentID string
	Signature string
}
