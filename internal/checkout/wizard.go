// Package checkout implements the shipping, review and payment wizard that
// turns a cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type Step string

const (
	StepShipping  Step = "shipping"
	StepReview    Step = "review"
	StepPayment   Step = "payment"
	StepCompleted Step = "completed"
	StepCancelled Step = "cancelled"
)

func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepCancelled
}

// submitKey names the single in-flight confirmation per wizard.
const submitKey = "checkout-submit"

// DefaultSubmitTimeout bounds one confirmation, payment included.
const DefaultSubmitTimeout = 30 * time.Second

// Cart is the session cart as the wizard sees it. After an order is placed
// only the ordered quantities are deducted.
type Cart interface {
	Items(ctx context.Context) ([]cart.LineItem, error)
	Deduct(ctx context.Context, items []cart.LineItem) error
}

type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, o order.Order) error
}

type Deps struct {
	Cart      Cart
	History   order.History
	Payments  PaymentProcessor
	Publisher OrderPublisher
	LoginPath string
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string

	// SubmitTimeout caps a confirmation. It runs detached from the request
	// that started it, so a client going away does not abort a payment.
	SubmitTimeout time.Duration
}

// State is a read-only view of a wizard.
type State struct {
	SessionID        string              `json:"sessionId"`
	Step             Step                `json:"step"`
	Shipping         order.Shipping      `json:"shipping"`
	PaymentMethod    order.PaymentMethod `json:"paymentMethod"`
	Errors           map[string]string   `json:"errors,omitempty"`
	ResumeAfterLogin bool                `json:"resumeAfterLogin"`
	Submitting       bool                `json:"submitting"`
	Items            []cart.LineItem     `json:"items"`
	Total            decimal.Decimal     `json:"total"`
	Order            *order.Order        `json:"order,omitempty"`
}

type Wizard struct {
	sessionID string
	deps      Deps
	submit    singleflight.Group

	mu               sync.Mutex
	step             Step
	shipping         order.Shipping
	method           order.PaymentMethod
	fieldErrors      map[string]string
	resumeAfterLogin bool
	submitting       bool
	placed           *order.Order
}

func New(sessionID string, deps Deps) *Wizard {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.SubmitTimeout <= 0 {
		deps.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Wizard{
		sessionID: sessionID,
		deps:      deps,
		step:      StepShipping,
		method:    order.DefaultPaymentMethod,
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) State(ctx context.Context) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var items []cart.LineItem
	if w.placed == nil {
		var err error
		if items, err = w.deps.Cart.Items(ctx); err != nil {
			return State{}, err
		}
	}
	st := State{
		SessionID:        w.sessionID,
		Step:             w.step,
		Shipping:         w.shipping,
		PaymentMethod:    w.method,
		ResumeAfterLogin: w.resumeAfterLogin,
		Submitting:       w.submitting,
		Items:            items,
		Total:            cart.Total(items),
	}
	if len(w.fieldErrors) > 0 {
		st.Errors = make(map[string]string, len(w.fieldErrors))
		for k, v := range w.fieldErrors {
			st.Errors[k] = v
		}
	}
	if w.placed != nil {
		o := *w.placed
		st.Order = &o
		st.Items = o.Items
		st.Total = o.Total
	}
	return st, nil
}

// UpdateShipping replaces the shipping draft. Only allowed on the shipping
// step.
func (w *Wizard) UpdateShipping(s order.Shipping) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepShipping {
		return fmt.Errorf("%w: cannot edit shipping on %s", ErrInvalidTransition, w.step)
	}
	w.shipping = normalizeShipping(s)
	w.fieldErrors = nil
	return nil
}

func (w *Wizard) SetPaymentMethod(m order.PaymentMethod) error {
	if _, err := order.ParsePaymentMethod(string(m)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step.Terminal() || w.submitting {
		return fmt.Errorf("%w: cannot change payment method on %s", ErrInvalidTransition, w.step)
	}
	w.method = m
	return nil
}

// Advance moves shipping to review and review to payment. Leaving shipping
// needs an authenticated user, a valid draft and a non-empty cart.
func (w *Wizard) Advance(ctx context.Context, userID string) (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepShipping:
		if userID == "" {
			w.resumeAfterLogin = true
			return w.step, newLoginRedirect(w.deps.LoginPath)
		}
		w.resumeAfterLogin = false
		if err := ValidateShipping(w.shipping); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				w.fieldErrors = ve.Fields
			}
			return w.step, err
		}
		w.fieldErrors = nil
		items, err := w.deps.Cart.Items(ctx)
		if err != nil {
			return w.step, err
		}
		if len(items) == 0 {
			return w.step, ErrEmptyCart
		}
		w.step = StepReview
	case StepReview:
		w.step = StepPayment
	default:
		return w.step, fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, w.step)
	}
	w.deps.Logger.DebugContext(ctx, "checkout advanced", "session_id", w.sessionID, "step", w.step)
	return w.step, nil
}

// Back returns to the previous step. The shipping draft is kept.
func (w *Wizard) Back() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.submitting:
		return w.step, ErrBusy
	case w.step == StepReview:
		w.step = StepShipping
	case w.step == StepPayment:
		w.step = StepReview
	default:
		return w.step, fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, w.step)
	}
	return w.step, nil
}

// Cancel discards the draft. The cart is not touched.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.submitting:
		return ErrBusy
	case w.step == StepCompleted:
		return fmt.Errorf("%w: order already placed", ErrInvalidTransition)
	}
	w.step = StepCancelled
	w.shipping = order.Shipping{}
	w.method = order.DefaultPaymentMethod
	w.fieldErrors = nil
	w.resumeAfterLogin = false
	return nil
}

// Confirm pays for the cart and records the order. Concurrent calls share a
// single execution; once completed every call returns the same order. A
// failed payment leaves the wizard on the payment step with the cart intact.
// A caller whose ctx ends stops waiting, but the submission carries on.
func (w *Wizard) Confirm(ctx context.Context, userID string) (order.Order, error) {
	w.mu.Lock()
	if w.placed != nil {
		o := *w.placed
		w.mu.Unlock()
		return o, nil
	}
	if w.step != StepPayment {
		step := w.step
		w.mu.Unlock()
		return order.Order{}, fmt.Errorf("%w: cannot confirm from %s", ErrInvalidTransition, step)
	}
	if userID == "" {
		w.resumeAfterLogin = true
		w.mu.Unlock()
		return order.Order{}, newLoginRedirect(w.deps.LoginPath)
	}
	w.mu.Unlock()

	ch := w.submit.DoChan(submitKey, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.deps.SubmitTimeout)
		defer cancel()
		return w.place(sctx, userID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		w.deps.Logger.DebugContext(ctx, "checkout confirm caller gone, submission continues", "session_id", w.sessionID)
		return order.Order{}, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		w.deps.Logger.DebugContext(ctx, "checkout confirm joined in-flight submission", "session_id", w.sessionID)
	}
	if res.Err != nil {
		return order.Order{}, res.Err
	}
	return res.Val.(order.Order), nil
}

func (w *Wizard) place(ctx context.Context, userID string) (order.Order, error) {
	w.mu.Lock()
	if w.placed != nil {
		o := *w.placed
		w.mu.Unlock()
		return o, nil
	}
	items, err := w.deps.Cart.Items(ctx)
	if err != nil {
		w.mu.Unlock()
		return order.Order{}, err
	}
	if len(items) == 0 {
		w.mu.Unlock()
		return order.Order{}, ErrEmptyCart
	}
	w.submitting = true
	shipping := w.shipping
	method := w.method
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	o := order.Order{
		ID:            w.deps.NewID(),
		Owner:         w.sessionID,
		UserID:        userID,
		Items:         items,
		Shipping:      shipping,
		PaymentMethod: method,
		Total:         cart.Total(items),
		Status:        order.StatusConfirmed,
	}

	receipt, err := w.deps.Payments.Process(ctx, PaymentRequest{
		OrderID: o.ID,
		Method:  method,
		Amount:  o.Total,
		Phone:   shipping.Phone,
	})
	if err != nil {
		w.deps.Logger.WarnContext(ctx, "checkout payment failed", "session_id", w.sessionID, "order_id", o.ID, "error", err)
		return order.Order{}, fmt.Errorf("payment: %w", err)
	}
	o.Reference = receipt.Reference
	o.CreatedAt = w.deps.Now().UTC()

	if err := w.deps.History.Append(ctx, o); err != nil {
		return order.Order{}, fmt.Errorf("record order: %w", err)
	}

	w.mu.Lock()
	w.placed = &o
	w.step = StepCompleted
	w.resumeAfterLogin = false
	w.mu.Unlock()

	if err := w.deps.Cart.Deduct(ctx, items); err != nil {
		w.deps.Logger.ErrorContext(ctx, "deduct ordered items from cart", "session_id", w.sessionID, "order_id", o.ID, "error", err)
	}
	if w.deps.Publisher != nil {
		if err := w.deps.Publisher.PublishOrderPlaced(ctx, o); err != nil {
			w.deps.Logger.WarnContext(ctx, "publish order placed", "order_id", o.ID, "error", err)
		}
	}

	w.deps.Logger.InfoContext(ctx, "order placed",
		"session_id", w.sessionID,
		"order_id", o.ID,
		"total", o.Total.String(),
		"payment_method", string(o.PaymentMethod),
	)
	return o, nil
}
