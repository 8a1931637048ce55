package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

const (
	MessageVerifying      = "Verifying your payment."
	MessageCompleted      = "Payment successful. Taking you to your orders."
	MessageAbandoned      = "Payment cancelled. You have not been charged."
	MessagePaidUnverified = "We received your payment but could not confirm it. Please contact support with your order id."
	MessageTimedOut       = "We could not confirm your payment. If you were charged, please contact support with your order id."
)

const widgetCallTimeout = 2 * time.Second

// SessionConfig tunes the reconciliation of one checkout attempt.
type SessionConfig struct {
	RedirectURL    string
	PollInterval   time.Duration
	PollTimeout    time.Duration
	VerifyTimeout  time.Duration
	TeardownDelays []time.Duration
}

// Session reconciles the three completion signals of one checkout attempt
// (widget success, widget dismiss, background status poll) so that exactly
// one of them settles the attempt. The state field is the only arbiter:
// a signal acts only if it moves the state out of AWAITING_PAYMENT itself.
type Session struct {
	order    model.PaymentOrder
	buyer    model.Buyer
	widget   Widget
	status   StatusChecker
	verifier Verifier
	observer Observer
	cfg      SessionConfig
	logger   *slog.Logger

	widgetConfig WidgetConfig
	createdAt    time.Time

	state      atomic.Int32
	dismissing atomic.Bool

	mu         sync.Mutex
	outcome    model.Outcome
	settledAt  time.Time
	cancelPoll context.CancelFunc
	stopped    bool

	teardownOnce sync.Once
	settleOnce   sync.Once
	stopOnce     sync.Once
	done         chan struct{}
	halt         chan struct{}
	wg           sync.WaitGroup
}

func newSession(order model.PaymentOrder, buyer model.Buyer, widget Widget, status StatusChecker, verifier Verifier, observer Observer, cfg SessionConfig, logger *slog.Logger) *Session {
	if observer == nil {
		observer = noopObserver{}
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 15 * time.Second
	}
	s := &Session{
		order:     order,
		buyer:     buyer,
		widget:    widget,
		status:    status,
		verifier:  verifier,
		observer:  observer,
		cfg:       cfg,
		logger:    logger.With(slog.String("order", order.OrderID)),
		createdAt: time.Now(),
		done:      make(chan struct{}),
		halt:      make(chan struct{}),
	}
	s.state.Store(int32(model.StateAwaitingPayment))
	s.outcome = model.Outcome{State: model.StateAwaitingPayment}
	return s
}

func (s *Session) OrderID() string {
	return s.order.OrderID
}

func (s *Session) Order() model.PaymentOrder {
	return s.order
}

func (s *Session) WidgetConfig() WidgetConfig {
	return s.widgetConfig
}

func (s *Session) State() model.SessionState {
	return model.SessionState(s.state.Load())
}

// Outcome returns the recorded terminal outcome. Until one is recorded a
// session past AWAITING_PAYMENT reports VERIFYING, never a bare terminal state.
func (s *Session) Outcome() model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome.State.Terminal() {
		return s.outcome
	}
	if s.State() == model.StateAwaitingPayment {
		return model.Outcome{State: model.StateAwaitingPayment}
	}
	return model.Outcome{State: model.StateVerifying, Message: MessageVerifying}
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SettledAt is zero until the session is terminal.
func (s *Session) SettledAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settledAt
}

// Attempt renders the session as a journal record.
func (s *Session) Attempt() model.Attempt {
	out := s.Outcome()
	updated := s.SettledAt()
	if updated.IsZero() {
		updated = time.Now()
	}
	return model.Attempt{
		OrderID:     s.order.OrderID,
		CourseID:    s.order.CourseID,
		BuyerID:     buyerRef(s.buyer),
		AmountMinor: s.order.AmountMinor,
		Currency:    s.order.Currency,
		State:       out.State,
		Message:     out.Message,
		CreatedAt:   s.createdAt,
		UpdatedAt:   updated,
	}
}

// start launches the background status poll. It outlives the launching request.
func (s *Session) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.State().Terminal() {
		return
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelPoll = cancel
	s.wg.Add(1)
	go s.poll(pollCtx)
}

// HandleSuccess settles the attempt from the widget's success handler.
// It verifies the credentials exactly once; a failed verification yields
// *PaidUnverifiedError and no redirect.
func (s *Session) HandleSuccess(ctx context.Context, creds model.PaymentCredentials) error {
	if creds.OrderID == "" {
		creds.OrderID = s.order.OrderID
	}
	if creds.OrderID != s.order.OrderID || creds.PaymentID == "" || creds.Signature == "" {
		s.observer.Triggered(s.order.OrderID, model.TriggerSuccess, false)
		return domainErrors.ErrInvalidCredentials
	}
	if !s.advance(model.StateAwaitingPayment, model.StateVerifying) {
		s.observer.Triggered(s.order.OrderID, model.TriggerSuccess, false)
		s.logger.Debug("success ignored", slog.String("state", s.State().String()))
		return nil
	}
	s.observer.Triggered(s.order.OrderID, model.TriggerSuccess, true)
	s.teardown()

	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.VerifyTimeout)
	started := time.Now()
	err := s.verifier.Verify(verifyCtx, creds)
	cancel()
	s.observer.Verified(s.order.OrderID, time.Since(started), err)

	if err != nil {
		perr := &domainErrors.PaidUnverifiedError{OrderID: s.order.OrderID, Err: err}
		s.logger.Error("payment verification failed",
			slog.String("payment", creds.PaymentID),
			slog.String("error", err.Error()),
		)
		s.advance(model.StateVerifying, model.StateUnverified)
		s.settle(model.TriggerSuccess, model.Outcome{State: model.StateUnverified, Message: MessagePaidUnverified, Err: perr})
		return perr
	}

	s.complete(model.TriggerSuccess)
	return nil
}

// HandleDismiss runs one final status check when the buyer closes the widget.
// A paid order still completes; otherwise the attempt is abandoned without a redirect.
// When the check itself fails the attempt stays open and the poll keeps watching.
func (s *Session) HandleDismiss(ctx context.Context) error {
	if s.State() != model.StateAwaitingPayment || !s.dismissing.CompareAndSwap(false, true) {
		s.observer.Triggered(s.order.OrderID, model.TriggerDismiss, false)
		return nil
	}

	status, err := s.status.OrderStatus(ctx, s.order.OrderID)
	if err != nil {
		s.dismissing.Store(false)
		s.logger.Warn("final status check failed on dismiss", slog.String("error", err.Error()))
		s.observer.Triggered(s.order.OrderID, model.TriggerDismiss, false)
		s.closeWidget()
		return nil
	}

	if status == model.OrderStatusPaid {
		s.completeFromStatus(model.TriggerDismiss)
		return nil
	}

	if !s.advance(model.StateAwaitingPayment, model.StateAbandoned) {
		s.observer.Triggered(s.order.OrderID, model.TriggerDismiss, false)
		return nil
	}
	s.observer.Triggered(s.order.OrderID, model.TriggerDismiss, true)
	out := model.Outcome{State: model.StateAbandoned, Message: MessageAbandoned}
	s.record(out)
	s.teardown()
	s.settle(model.TriggerDismiss, out)
	return nil
}

func (s *Session) poll(ctx context.Context) {
	defer s.wg.Done()

	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if s.cfg.PollTimeout > 0 {
		timer := time.NewTimer(s.cfg.PollTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			s.expire()
			return
		case <-ticker.C:
			s.pollTick(ctx)
		}
	}
}

func (s *Session) pollTick(ctx context.Context) {
	if s.State() != model.StateAwaitingPayment {
		return
	}
	status, err := s.status.OrderStatus(ctx, s.order.OrderID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Debug("status poll failed", slog.String("error", err.Error()))
		}
		return
	}
	if status == model.OrderStatusPaid {
		s.completeFromStatus(model.TriggerPoll)
	}
}

func (s *Session) expire() {
	if !s.advance(model.StateAwaitingPayment, model.StateTimedOut) {
		return
	}
	s.observer.Triggered(s.order.OrderID, model.TriggerTimeout, true)
	s.logger.Warn("payment not confirmed before poll deadline", slog.Duration("timeout", s.cfg.PollTimeout))
	out := model.Outcome{
		State:   model.StateTimedOut,
		Message: MessageTimedOut,
		Err:     domainErrors.ErrPaymentNotConfirmed,
	}
	s.record(out)
	s.teardown()
	s.settle(model.TriggerTimeout, out)
}

// completeFromStatus settles a paid order seen through the status endpoint.
// That status is already the backend's verdict, so no verify call follows.
func (s *Session) completeFromStatus(trigger model.Trigger) {
	if !s.advance(model.StateAwaitingPayment, model.StateVerifying) {
		s.observer.Triggered(s.order.OrderID, trigger, false)
		return
	}
	s.observer.Triggered(s.order.OrderID, trigger, true)
	s.teardown()
	s.complete(trigger)
}

func (s *Session) complete(trigger model.Trigger) {
	s.advance(model.StateVerifying, model.StateCompleted)
	s.logger.Info("payment completed", slog.String("trigger", string(trigger)))
	s.settle(trigger, model.Outcome{State: model.StateCompleted, RedirectURL: s.cfg.RedirectURL, Message: MessageCompleted})
}

func (s *Session) advance(from, to model.SessionState) bool {
	if !model.CanTransition(from, to) {
		return false
	}
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// record stores the terminal outcome right after the state transition so
// readers never see a terminal state without its message and redirect.
func (s *Session) record(out model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.outcome.State.Terminal() {
		s.outcome = out
	}
}

func (s *Session) settle(trigger model.Trigger, out model.Outcome) {
	s.record(out)
	s.settleOnce.Do(func() {
		s.mu.Lock()
		s.settledAt = time.Now()
		s.mu.Unlock()

		s.observer.Settled(s.Attempt(), trigger)
		close(s.done)
	})
}

// teardown disposes of the widget once per session: the poll is cancelled,
// the overlay is closed and its residue removed right away and again after
// each configured delay.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		if s.cancelPoll != nil {
			s.cancelPoll()
		}
		s.mu.Unlock()

		s.dispose()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped || len(s.cfg.TeardownDelays) == 0 {
			return
		}
		s.wg.Add(1)
		go s.disposeLater(time.Now())
	})
}

func (s *Session) disposeLater(from time.Time) {
	defer s.wg.Done()
	for _, delay := range s.cfg.TeardownDelays {
		wait := delay - time.Since(from)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.dispose()
		case <-s.halt:
			timer.Stop()
			s.dispose()
			return
		}
	}
}

func (s *Session) dispose() {
	ctx, cancel := context.WithTimeout(context.Background(), widgetCallTimeout)
	defer cancel()
	if err := s.widget.Close(ctx); err != nil {
		s.logger.Debug("widget close failed", slog.String("error", err.Error()))
	}
	if err := s.widget.RemoveResidue(ctx); err != nil {
		s.logger.Debug("widget residue removal failed", slog.String("error", err.Error()))
	}
}

func (s *Session) closeWidget() {
	ctx, cancel := context.WithTimeout(context.Background(), widgetCallTimeout)
	defer cancel()
	if err := s.widget.Close(ctx); err != nil {
		s.logger.Debug("widget close failed", slog.String("error", err.Error()))
	}
}

// Stop halts background work without settling the attempt. Used on shutdown.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		if s.cancelPoll != nil {
			s.cancelPoll()
		}
		s.mu.Unlock()
		close(s.halt)
	})
	s.wg.Wait()
}

func buyerRef(b model.Buyer) string {
	if b.UserID != "" {
		return b.UserID
	}
	return b.Email
}
