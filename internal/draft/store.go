// Package draft holds the single in-progress reservation of a client
// session.  The Store is the only writer of the draft: every mutation
// recomputes the price, writes the result to a durable Slot and fans the
// new value out to subscribers.
package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
)

const defaultPersistTimeout = 2 * time.Second

// Store owns the current draft.  State changes are serialized under mu;
// slot writes and subscriber callbacks happen afterwards under ioMu, in
// mutation order.  A draft superseded before its turn on ioMu is neither
// written nor published.  A callback must not mutate the store
// synchronously.
type Store struct {
	mu      sync.Mutex
	current model.ReservationDraft
	seq     uint64
	slot    Slot
	logger  *zap.Logger
	timeout time.Duration

	ioMu    sync.Mutex
	written uint64

	subMu    sync.Mutex
	subs     []subscription
	nextSub  uint64
}

type subscription struct {
	id uint64
	fn func(model.ReservationDraft)
}

// Option customises a Store.
type Option func(*Store)

// WithPersistTimeout bounds every slot call.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStore builds a store over slot and restores the draft saved in it.
// A slot that cannot be parsed is discarded; a slot that cannot be read
// is left alone.  Neither case is an error for the caller.
func NewStore(slot Slot, logger *zap.Logger, opts ...Option) *Store {
	if slot == nil {
		slot = NewMemorySlot()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		current: model.NewDraft(),
		slot:    slot,
		logger:  logger,
		timeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			s.logger.Warn("draft slot unavailable, starting empty", zap.Error(err))
		}
		return
	}
	d, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable draft slot", zap.Error(err))
		if clearErr := s.slot.Clear(ctx); clearErr != nil {
			s.logger.Warn("draft slot clear failed", zap.Error(clearErr))
		}
		return
	}
	s.current = d
	s.logger.Debug("draft restored", zap.String("id", d.ID), zap.String("total", d.TotalPrice.String()))
}

// Current returns a copy of the latest draft.  It never waits for a slot
// write.
func (s *Store) Current() model.ReservationDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// SelectCar sets the rented vehicle.
func (s *Store) SelectCar(car model.Vehicle) {
	s.update("select_car", func(d *model.ReservationDraft) {
		d.Car = &car
	})
}

// SetLocations sets both pickup and return branches.
func (s *Store) SetLocations(pickup, ret model.Location) {
	s.update("set_locations", func(d *model.ReservationDraft) {
		d.PickupLocation = &pickup
		d.ReturnLocation = &ret
	})
}

// SetDates sets both dates.  The order of the two is not checked here.
func (s *Store) SetDates(pickup, ret time.Time) {
	s.update("set_dates", func(d *model.ReservationDraft) {
		d.PickupDate = &pickup
		d.ReturnDate = &ret
	})
}

// AddExtraService replaces the extra with the same ID in place, or
// appends it.
func (s *Store) AddExtraService(svc model.ExtraService) {
	s.update("add_extra", func(d *model.ReservationDraft) {
		for i := range d.ExtraServices {
			if d.ExtraServices[i].ID == svc.ID {
				d.ExtraServices[i] = svc
				return
			}
		}
		d.ExtraServices = append(d.ExtraServices, svc)
	})
}

// RemoveExtraService drops the extra with the given ID.  Unknown IDs are
// ignored.
func (s *Store) RemoveExtraService(id string) {
	s.update("remove_extra", func(d *model.ReservationDraft) {
		kept := d.ExtraServices[:0]
		for _, svc := range d.ExtraServices {
			if svc.ID != id {
				kept = append(kept, svc)
			}
		}
		d.ExtraServices = kept
	})
}

// SetCustomerDetails stores the driver's contact data.
func (s *Store) SetCustomerDetails(details model.CustomerDetails) {
	s.update("set_customer", func(d *model.ReservationDraft) {
		d.CustomerDetails = &details
	})
}

// ApplyDiscount sets the discount, overwriting any previous one.
func (s *Store) ApplyDiscount(discount model.Discount) {
	s.update("apply_discount", func(d *model.ReservationDraft) {
		d.AppliedDiscount = &discount
	})
}

// RemoveDiscount clears the applied discount.
func (s *Store) RemoveDiscount() {
	s.update("remove_discount", func(d *model.ReservationDraft) {
		d.AppliedDiscount = nil
	})
}

// Restore replaces the whole draft, e.g. with one loaded from the server
// when the user resumes a saved reservation.
func (s *Store) Restore(d model.ReservationDraft) {
	s.update("restore", func(cur *model.ReservationDraft) {
		*cur = d.Clone()
		if cur.ExtraServices == nil {
			cur.ExtraServices = []model.ExtraService{}
		}
	})
}

// MarkPersisted stamps the identity fields returned by the server.
func (s *Store) MarkPersisted(id string, status model.Status, createdAt, updatedAt *time.Time) {
	s.update("mark_persisted", func(d *model.ReservationDraft) {
		d.ID = id
		d.Status = status
		if createdAt != nil {
			d.CreatedAt = createdAt
		}
		if updatedAt != nil {
			d.UpdatedAt = updatedAt
		}
	})
}

// Reset drops the draft and clears the slot.
func (s *Store) Reset() {
	s.mu.Lock()
	s.current = model.NewDraft()
	s.seq++
	seq, next := s.seq, s.current.Clone()
	s.mu.Unlock()

	s.flush(seq, next, func(ctx context.Context) {
		if err := s.slot.Clear(ctx); err != nil {
			s.logger.Warn("draft slot clear failed", zap.Error(err))
		}
	})
}

func (s *Store) update(op string, fn func(d *model.ReservationDraft)) {
	s.mu.Lock()
	next := s.current.Clone()
	fn(&next)
	next.TotalPrice = pricing.ComputeTotal(next)
	s.current = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.flush(seq, next, func(ctx context.Context) { s.persist(ctx, op, next) })
}

// flush runs write and then notifies subscribers, unless a newer draft
// has already been flushed.
func (s *Store) flush(seq uint64, d model.ReservationDraft, write func(ctx context.Context)) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if seq <= s.written {
		return
	}
	s.written = seq

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	write(ctx)
	cancel()

	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(d.Clone())
	}
}

// persist writes d to the slot.  Failures leave the in-memory draft
// authoritative.
func (s *Store) persist(ctx context.Context, op string, d model.ReservationDraft) {
	data, err := Encode(d)
	if err != nil {
		s.logger.Error("draft encode failed", zap.String("op", op), zap.Error(err))
		return
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.logger.Warn("draft slot write failed", zap.String("op", op), zap.Error(err))
	}
}

// Subscribe registers fn to receive every new draft, skipping only those
// superseded by a concurrent mutation before they were written.  The returned func
// removes the registration.
func (s *Store) Subscribe(fn func(model.ReservationDraft)) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Updates returns a channel fed with every new draft.  When the buffer is
// full the oldest pending value is dropped, so readers always catch up to
// the latest draft and mutations never block on a slow reader.
func (s *Store) Updates(buffer int) (<-chan model.ReservationDraft, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.ReservationDraft, buffer)
	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)
	unsubscribe := s.Subscribe(func(d model.ReservationDraft) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		for {
			select {
			case ch <- d:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	})
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel
}
