// Package checkout drives the remote side of the reservation wizard:
// coupons, saving, quoting, confirming and cancelling the draft held by a
// draft.Store.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/wizard"
)

// Lifecycle is the booking API.  *gateway.Lifecycle satisfies it.
type Lifecycle interface {
	HasSavedDraft(ctx context.Context) (bool, error)
	Save(ctx context.Context, d model.ReservationDraft) (string, error)
	Update(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error)
	Finalize(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error)
	RequestQuote(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error)
	Cancel(ctx context.Context, id string) error
	Discard(ctx context.Context, id string) error
	Load(ctx context.Context, id string) (model.ReservationDraft, error)
}

// Discounts is the coupon API.  *gateway.DiscountResolver satisfies it.
type Discounts interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (model.Coupon, error)
	RecordUsage(ctx context.Context, couponID uint64) error
}

// ErrIncomplete is returned when the draft cannot be confirmed yet.
var ErrIncomplete = errors.New("reservation is incomplete")

// Service binds a store to the remote APIs.
type Service struct {
	store     *draft.Store
	lifecycle Lifecycle
	discounts Discounts
	logger    *zap.Logger

	usageTimeout time.Duration
	wg           sync.WaitGroup
}

// NewService wires the checkout flow.
func NewService(store *draft.Store, lifecycle Lifecycle, discounts Discounts, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		lifecycle:    lifecycle,
		discounts:    discounts,
		logger:       logger,
		usageTimeout: 10 * time.Second,
	}
}

// HasSavedDraft asks the server whether a saved draft exists.
func (s *Service) HasSavedDraft(ctx context.Context) (bool, error) {
	return s.lifecycle.HasSavedDraft(ctx)
}

// ApplyCoupon validates code against the pre-discount subtotal and applies
// the returned amount.  Usage is recorded in the background; if that call
// fails the discount stays applied.
func (s *Service) ApplyCoupon(ctx context.Context, code string) (model.Coupon, error) {
	subtotal := pricing.Subtotal(s.store.Current())
	coupon, err := s.discounts.Validate(ctx, code, subtotal)
	if err != nil {
		return model.Coupon{}, err
	}
	s.store.ApplyDiscount(model.Discount{Code: coupon.Code, Amount: coupon.Amount})
	s.logger.Info("coupon applied",
		zap.String("code", coupon.Code),
		zap.String("amount", coupon.Amount.String()),
		zap.String("subtotal", subtotal.String()))

	s.wg.Add(1)
	go func(id uint64, code string) {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.usageTimeout)
		defer cancel()
		if err := s.discounts.RecordUsage(ctx, id); err != nil {
			s.logger.Warn("coupon usage not recorded", zap.String("code", code), zap.Uint64("coupon_id", id), zap.Error(err))
		}
	}(coupon.ID, coupon.Code)
	return coupon, nil
}

// RemoveCoupon drops the applied discount.  Usage already recorded is not
// given back.
func (s *Service) RemoveCoupon() { s.store.RemoveDiscount() }

// SaveDraft persists the draft as the user's saved draft.  A draft that
// already has an ID is updated in place.
func (s *Service) SaveDraft(ctx context.Context) (model.ReservationDraft, error) {
	d := s.store.Current()
	if d.ID != "" {
		updated, err := s.lifecycle.Update(ctx, d)
		if err != nil {
			return model.ReservationDraft{}, err
		}
		status := updated.Status
		if status == model.StatusDraft || status == "" {
			status = model.StatusSaved
		}
		s.store.MarkPersisted(updated.ID, status, updated.CreatedAt, updated.UpdatedAt)
		return s.store.Current(), nil
	}
	id, err := s.lifecycle.Save(ctx, d)
	if err != nil {
		return model.ReservationDraft{}, err
	}
	s.store.MarkPersisted(id, model.StatusSaved, nil, nil)
	s.logger.Info("draft saved", zap.String("id", id))
	return s.store.Current(), nil
}

// RequestQuote moves the draft to Quoted on the server.
func (s *Service) RequestQuote(ctx context.Context) (model.ReservationDraft, error) {
	q, err := s.lifecycle.RequestQuote(ctx, s.store.Current())
	if err != nil {
		return model.ReservationDraft{}, err
	}
	s.store.MarkPersisted(q.ID, q.Status, q.CreatedAt, q.UpdatedAt)
	return s.store.Current(), nil
}

// Finalize confirms the reservation and clears the local draft.  On
// failure the draft is left as it was.
func (s *Service) Finalize(ctx context.Context) (model.ReservationDraft, error) {
	d := s.store.Current()
	if step, ok := wizard.Guard(wizard.StepCheckout, d); !ok {
		return model.ReservationDraft{}, fmt.Errorf("%w: complete step %q first", ErrIncomplete, step)
	}
	confirmed, err := s.lifecycle.Finalize(ctx, d)
	if err != nil {
		return model.ReservationDraft{}, err
	}
	s.store.Reset()
	s.logger.Info("reservation confirmed", zap.String("id", confirmed.ID), zap.String("total", confirmed.TotalPrice.String()))
	return confirmed, nil
}

// Cancel cancels the persisted reservation, if any, and clears the draft.
func (s *Service) Cancel(ctx context.Context) error {
	d := s.store.Current()
	if d.ID != "" {
		if err := s.lifecycle.Cancel(ctx, d.ID); err != nil {
			return err
		}
	}
	s.store.Reset()
	return nil
}

// Discard deletes the persisted draft, if any, and clears the local one.
func (s *Service) Discard(ctx context.Context) error {
	d := s.store.Current()
	if d.ID != "" {
		if err := s.lifecycle.Discard(ctx, d.ID); err != nil {
			return err
		}
	}
	s.store.Reset()
	return nil
}

// Resume replaces the local draft with the booking id from the server.
func (s *Service) Resume(ctx context.Context, id string) (model.ReservationDraft, error) {
	loaded, err := s.lifecycle.Load(ctx, id)
	if err != nil {
		return model.ReservationDraft{}, err
	}
	if loaded.Status == model.StatusDraft {
		loaded.Status = model.StatusSaved
	}
	s.store.Restore(loaded)
	return s.store.Current(), nil
}

// Wait blocks until background usage records have finished.
func (s *Service) Wait() { s.wg.Wait() }
