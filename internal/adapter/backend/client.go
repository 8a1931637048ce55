package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/money"
)

// TooManyRequestsError represents rate limiting signal from backend.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// CreateOrderRequest describes POST /payments/create-order payload.
type CreateOrderRequest struct {
	UserID         string
	Email          string
	CourseID       string
	AmountMinor    int64
	Token          string
	IdempotencyKey string
}

// Profile is the buyer profile returned by GET /users/me.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Contact string
}

// HTTPClient talks to the course backend REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates backend client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type courseResponse struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	IsActive *bool       `json:"isActive,omitempty"`
	Price    json.Number `json:"price"`
}

// GetCourse fetches course details from the legacy catalog endpoint.
// That endpoint reports price in major units; it is converted here and nowhere else.
func (c *HTTPClient) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	var data courseResponse
	if err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(courseID), nil, "", nil, &data, domainErrors.ErrCourseNotFound); err != nil {
		return nil, err
	}
	price, err := money.FromLegacyMajor(data.Price.String())
	if err != nil {
		return nil, fmt.Errorf("course %s price: %w", courseID, err)
	}
	active := true
	if data.IsActive != nil {
		active = *data.IsActive
	}
	id := data.ID
	if id == "" {
		id = courseID
	}
	return &model.Course{ID: id, Name: data.Title, Active: active, PriceMinor: price}, nil
}

type createOrderPayload struct {
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	CourseID string `json:"courseId"`
	Amount   *int64 `json:"amount,omitempty"`
}

type orderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder registers a payment order. Amounts are minor units both ways.
func (c *HTTPClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.PaymentOrder, error) {
	payload := createOrderPayload{UserID: req.UserID, Email: req.Email, CourseID: req.CourseID}
	if req.AmountMinor > 0 {
		amount := req.AmountMinor
		payload.Amount = &amount
	}
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["X-Idempotency-Key"] = req.IdempotencyKey
	}

	var data orderResponse
	if err := c.do(ctx, http.MethodPost, "/payments/create-order", payload, req.Token, headers, &data, domainErrors.ErrCourseNotFound); err != nil {
		return nil, err
	}
	if data.OrderID == "" {
		return nil, fmt.Errorf("%w: create order returned empty order id", domainErrors.ErrBackendUnavailable)
	}
	if data.Amount < 0 {
		return nil, fmt.Errorf("%w: negative order amount %d", domainErrors.ErrInvalidAmount, data.Amount)
	}
	currency := data.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	status := model.ParseOrderStatus(data.Status)
	if data.Status == "" {
		status = model.OrderStatusCreated
	}
	return &model.PaymentOrder{
		OrderID:     data.OrderID,
		AmountMinor: data.Amount,
		Currency:    currency,
		CourseID:    req.CourseID,
		Status:      status,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// OrderStatus queries current order status.
func (c *HTTPClient) OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error) {
	var data statusResponse
	if err := c.do(ctx, http.MethodGet, "/payments/order/"+url.PathEscape(orderID), nil, "", nil, &data, domainErrors.ErrOrderNotFound); err != nil {
		return model.OrderStatusUnknown, err
	}
	return model.ParseOrderStatus(data.Status), nil
}

type verifyPayload struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// Verify asks backend to validate gateway credentials. Only PAID is a success.
func (c *HTTPClient) Verify(ctx context.Context, creds model.PaymentCredentials) error {
	payload := verifyPayload{OrderID: creds.OrderID, PaymentID: creds.PaymentID, Signature: creds.Signature}
	var data statusResponse
	if err := c.do(ctx, http.MethodPost, "/payments/verify", payload, "", nil, &data, domainErrors.ErrOrderNotFound); err != nil {
		return err
	}
	if model.ParseOrderStatus(data.Status) != model.OrderStatusPaid {
		return fmt.Errorf("%w: status %q", domainErrors.ErrVerificationRejected, data.Status)
	}
	return nil
}

type profileResponse struct {
	ID      string `json:"id"`
	AltID   string `json:"_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Contact string `json:"phone"`
}

// Profile looks up the authenticated user's profile.
func (c *HTTPClient) Profile(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, domainErrors.ErrUnauthenticated
	}
	var data profileResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, token, nil, &data, domainErrors.ErrNotFound); err != nil {
		return nil, err
	}
	id := data.ID
	if id == "" {
		id = data.AltID
	}
	return &Profile{ID: id, Email: data.Email, Name: data.Name, Contact: data.Contact}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, p string, body any, token string, headers map[string]string, out any, notFound error) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, p)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read body: %v", domainErrors.ErrBackendUnavailable, err)
		}
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", domainErrors.ErrBackendUnavailable, p, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domainErrors.ErrUnauthenticated
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("backend request failed",
			slog.String("method", method),
			slog.String("path", p),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return fmt.Errorf("%w: %s %s: %s", domainErrors.ErrBackendUnavailable, method, p, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
