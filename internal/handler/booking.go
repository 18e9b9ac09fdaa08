package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/queue"
	"github.com/iliyamo/car-rental-reservation/internal/repository"
)

// ConfirmationPublisher announces confirmed bookings.
// *service.Publisher satisfies it.
type ConfirmationPublisher interface {
	PublishReservationConfirmed(ctx context.Context, event queue.ReservationConfirmedEvent) error
}

// BookingStore persists bookings.  *repository.BookingRepo satisfies it;
// Create must refuse a second Draft per user with ErrDraftExists.
type BookingStore interface {
	CurrentDraft(ctx context.Context, userID uint64) (string, bool, error)
	Create(ctx context.Context, userID uint64, d model.ReservationDraft) (repository.BookingRecord, error)
	Get(ctx context.Context, id string) (repository.BookingRecord, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDraft, error)
	Update(ctx context.Context, userID uint64, admin bool, d model.ReservationDraft) (repository.BookingRecord, error)
	Cancel(ctx context.Context, id string, userID uint64, admin bool) (repository.BookingRecord, error)
	Delete(ctx context.Context, id string, userID uint64, admin bool) error
}

// BookingHandler serves the reservation lifecycle API.
type BookingHandler struct {
	Bookings  BookingStore
	Resolver  *Resolver
	Publisher ConfirmationPublisher
	Log       *zap.Logger
}

// NewBookingHandler wires the booking endpoints.  pub may be nil, in which
// case confirmations are not announced.
func NewBookingHandler(b BookingStore, res *Resolver, pub ConfirmationPublisher, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Resolver: res, Publisher: pub, Log: nopIfNil(logger)}
}

// rejected writes the response for a Resolve or checkComplete error and
// reports whether err was one of them.
func rejected(c echo.Context, err error) (bool, error) {
	var r *rejection
	if !errors.As(err, &r) {
		return false, nil
	}
	return true, fail(c, http.StatusBadRequest, r.code, r.msg)
}

// prepare binds and re-prices the request body.
func (h *BookingHandler) prepare(c echo.Context) (model.ReservationDraft, error) {
	var in model.ReservationDraft
	if err := c.Bind(&in); err != nil {
		return in, reject(CodeValidation, "invalid payload")
	}
	if in.Status == "" {
		in.Status = model.StatusDraft
	} else if st, ok := model.ParseStatus(string(in.Status)); ok {
		in.Status = st
	} else {
		return in, reject(CodeValidation, "unknown status %q", in.Status)
	}
	if in.ExtraServices == nil {
		in.ExtraServices = []model.ExtraService{}
	}
	d, err := h.Resolver.Resolve(c.Request().Context(), in)
	if err != nil {
		return d, err
	}
	return d, checkComplete(d)
}

// announce publishes the confirmation in the background.  Failures are
// only logged; the booking is already committed.
func (h *BookingHandler) announce(userID uint64, d model.ReservationDraft) {
	if h.Publisher == nil || d.Status != model.StatusConfirmed {
		return
	}
	ev := queue.NewReservationConfirmedEvent(userID, d, time.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Publisher.PublishReservationConfirmed(ctx, ev); err != nil {
			h.Log.Warn("confirmation not published", zap.String("reservation_id", ev.ReservationID), zap.Error(err))
		}
	}()
}

// HasDraft handles GET /v1/drafts.
func (h *BookingHandler) HasDraft(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	id, ok, err := h.Bookings.CurrentDraft(c.Request().Context(), uid)
	if err != nil {
		return repoError(c, h.Log, "draft lookup", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hasDraft": ok, "id": id})
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	d, err := h.prepare(c)
	if err != nil {
		if ok, resp := rejected(c, err); ok {
			return resp
		}
		return repoError(c, h.Log, "resolve booking", err)
	}
	rec, err := h.Bookings.Create(c.Request().Context(), uid, d)
	if err != nil {
		return repoError(c, h.Log, "create booking", err)
	}
	h.Log.Info("booking created", zap.String("id", rec.Draft.ID), zap.Uint64("user_id", uid), zap.String("status", string(rec.Draft.Status)))
	h.announce(uid, rec.Draft)
	return c.JSON(http.StatusCreated, rec.Draft)
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return repoError(c, h.Log, "list bookings", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// load fetches booking :id for its owner or an admin.
func (h *BookingHandler) load(c echo.Context) (repository.BookingRecord, error) {
	uid, err := getUserID(c)
	if err != nil {
		return repository.BookingRecord{}, repository.ErrForbidden
	}
	rec, err := h.Bookings.Get(c.Request().Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		return rec, err
	}
	if rec.UserID != uid && !isAdmin(c) {
		return rec, repository.ErrNotFound
	}
	return rec, nil
}

// Get handles GET /v1/bookings/:id.  Bookings of other users look
// missing.
func (h *BookingHandler) Get(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return repoError(c, h.Log, "get booking", err)
	}
	return c.JSON(http.StatusOK, rec.Draft)
}

// Update handles PUT /v1/bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	d, err := h.prepare(c)
	if err != nil {
		if ok, resp := rejected(c, err); ok {
			return resp
		}
		return repoError(c, h.Log, "resolve booking", err)
	}
	d.ID = strings.TrimSpace(c.Param("id"))
	rec, err := h.Bookings.Update(c.Request().Context(), uid, isAdmin(c), d)
	if err != nil {
		return repoError(c, h.Log, "update booking", err)
	}
	h.Log.Info("booking updated", zap.String("id", rec.Draft.ID), zap.String("status", string(rec.Draft.Status)))
	h.announce(rec.UserID, rec.Draft)
	return c.JSON(http.StatusOK, rec.Draft)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	rec, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), uid, isAdmin(c))
	if err != nil {
		return repoError(c, h.Log, "cancel booking", err)
	}
	h.Log.Info("booking cancelled", zap.String("id", rec.Draft.ID))
	return c.JSON(http.StatusOK, rec.Draft)
}

// Delete handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	if err := h.Bookings.Delete(c.Request().Context(), c.Param("id"), uid, isAdmin(c)); err != nil {
		return repoError(c, h.Log, "delete booking", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Invoice handles GET /v1/bookings/:id/invoice.
func (h *BookingHandler) Invoice(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return repoError(c, h.Log, "invoice", err)
	}
	return c.JSON(http.StatusOK, pricing.BuildInvoice(rec.Draft))
}
