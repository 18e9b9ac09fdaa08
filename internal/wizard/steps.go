// Package wizard decides which reservation step a user may enter given
// the current draft.
package wizard

import (
	"errors"
	"strings"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// Step is one stage of the linear reservation wizard.
type Step string

const (
	StepLocations       Step = "locations"
	StepDates           Step = "dates"
	StepVehicles        Step = "vehicles"
	StepExtras          Step = "extras"
	StepReview          Step = "review"
	StepCustomerDetails Step = "customer-details"
	StepCheckout        Step = "checkout"
)

// ErrUnknownStep is returned by ParseStep for names outside the wizard.
var ErrUnknownStep = errors.New("unknown wizard step")

var order = []Step{
	StepLocations,
	StepDates,
	StepVehicles,
	StepExtras,
	StepReview,
	StepCustomerDetails,
	StepCheckout,
}

// Steps returns the wizard steps in order.
func Steps() []Step {
	out := make([]Step, len(order))
	copy(out, order)
	return out
}

// ParseStep maps a route parameter onto a step.
func ParseStep(name string) (Step, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range order {
		if string(s) == name {
			return s, nil
		}
	}
	return "", ErrUnknownStep
}

func index(s Step) int {
	for i, o := range order {
		if o == s {
			return i
		}
	}
	return -1
}

// Complete reports whether the draft satisfies step s on its own.
// Checkout is terminal and never complete.
func Complete(s Step, d model.ReservationDraft) bool {
	switch s {
	case StepLocations, StepExtras, StepReview:
		return true
	case StepDates:
		return d.PickupDate != nil && d.ReturnDate != nil
	case StepVehicles:
		return d.Car != nil
	case StepCustomerDetails:
		c := d.CustomerDetails
		return c != nil && strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Email) != ""
	default:
		return false
	}
}

// Guard decides whether target may be entered.  When it may not, the
// earliest incomplete predecessor is returned as the redirect target.
// Unknown targets are sent back to the first step.
func Guard(target Step, d model.ReservationDraft) (Step, bool) {
	i := index(target)
	if i < 0 {
		return order[0], false
	}
	for _, prev := range order[:i] {
		if !Complete(prev, d) {
			return prev, false
		}
	}
	return target, true
}

// Source yields the latest draft.  *draft.Store satisfies it.
type Source interface {
	Current() model.ReservationDraft
}

// Policy evaluates Guard against a live draft source.
type Policy struct {
	src Source
}

// NewPolicy returns a policy reading drafts from src.
func NewPolicy(src Source) *Policy { return &Policy{src: src} }

// CanEnter is Guard applied to the source's current draft.
func (p *Policy) CanEnter(target Step) (Step, bool) {
	return Guard(target, p.src.Current())
}

// Progress lists the steps the current draft already satisfies, in
// order, stopping at the first gap.
func (p *Policy) Progress() []Step {
	d := p.src.Current()
	var done []Step
	for _, s := range order {
		if !Complete(s, d) {
			break
		}
		done = append(done, s)
	}
	return done
}
