package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
)

// Lifecycle persists drafts as bookings on the server.
type Lifecycle struct {
	c *Client
}

// NewLifecycle returns the booking lifecycle API over c.
func NewLifecycle(c *Client) *Lifecycle { return &Lifecycle{c: c} }

// DraftSummary is the body of GET /v1/drafts.
type DraftSummary struct {
	HasDraft bool   `json:"hasDraft"`
	ID       string `json:"id,omitempty"`
}

// HasSavedDraft reports whether the user already has a saved draft.
func (l *Lifecycle) HasSavedDraft(ctx context.Context) (bool, error) {
	var out DraftSummary
	if err := l.c.do(ctx, http.MethodGet, "/v1/drafts", nil, nil, &out); err != nil {
		return false, err
	}
	return out.HasDraft, nil
}

// Save creates a server-side Draft booking and returns its ID.  A second
// save while one exists fails with ErrDraftExists.
func (l *Lifecycle) Save(ctx context.Context, d model.ReservationDraft) (string, error) {
	d.ID = ""
	saved, err := l.send(ctx, d, model.StatusDraft)
	if err != nil {
		return "", err
	}
	if saved.ID == "" {
		return "", &RemoteError{Status: http.StatusBadGateway, Message: "booking created without id"}
	}
	return saved.ID, nil
}

// Update overwrites an existing booking with the draft's contents.
func (l *Lifecycle) Update(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error) {
	if d.ID == "" {
		return model.ReservationDraft{}, errors.New("update: draft has no id")
	}
	status := d.Status
	if status == "" || status == model.StatusSaved {
		status = model.StatusDraft
	}
	return l.send(ctx, d, status)
}

// Finalize confirms the reservation.
func (l *Lifecycle) Finalize(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error) {
	return l.send(ctx, d, model.StatusConfirmed)
}

// RequestQuote moves the reservation to Quoted.
func (l *Lifecycle) RequestQuote(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error) {
	return l.send(ctx, d, model.StatusQuoted)
}

// Cancel cancels a persisted reservation.
func (l *Lifecycle) Cancel(ctx context.Context, id string) error {
	return l.c.do(ctx, http.MethodPost, "/v1/bookings/"+url.PathEscape(id)+"/cancel", nil, nil, nil)
}

// Discard deletes a Draft or Quoted booking.
func (l *Lifecycle) Discard(ctx context.Context, id string) error {
	return l.c.do(ctx, http.MethodDelete, "/v1/bookings/"+url.PathEscape(id), nil, nil, nil)
}

// Load fetches a booking by ID.
func (l *Lifecycle) Load(ctx context.Context, id string) (model.ReservationDraft, error) {
	var out model.ReservationDraft
	if err := l.c.do(ctx, http.MethodGet, "/v1/bookings/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return model.ReservationDraft{}, err
	}
	if out.ExtraServices == nil {
		out.ExtraServices = []model.ExtraService{}
	}
	return out, nil
}

// Invoice fetches the server-side invoice of a booking.
func (l *Lifecycle) Invoice(ctx context.Context, id string) (pricing.Invoice, error) {
	var out pricing.Invoice
	err := l.c.do(ctx, http.MethodGet, "/v1/bookings/"+url.PathEscape(id)+"/invoice", nil, nil, &out)
	return out, err
}

// send writes d with the given status: PUT when the draft already has an
// ID, POST otherwise.
func (l *Lifecycle) send(ctx context.Context, d model.ReservationDraft, status model.Status) (model.ReservationDraft, error) {
	d.Status = status
	if d.ExtraServices == nil {
		d.ExtraServices = []model.ExtraService{}
	}
	method, path := http.MethodPost, "/v1/bookings"
	if d.ID != "" {
		method, path = http.MethodPut, "/v1/bookings/"+url.PathEscape(d.ID)
	}
	var out model.ReservationDraft
	if err := l.c.do(ctx, method, path, nil, d, &out); err != nil {
		return model.ReservationDraft{}, err
	}
	if out.ExtraServices == nil {
		out.ExtraServices = []model.ExtraService{}
	}
	return out, nil
}
