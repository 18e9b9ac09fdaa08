package draft

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
)

// Encode serializes a draft for the slot.  Dates are written as RFC 3339
// strings by encoding/json.
func Encode(d model.ReservationDraft) ([]byte, error) {
	if d.ExtraServices == nil {
		d.ExtraServices = []model.ExtraService{}
	}
	return json.Marshal(d)
}

// Decode parses slot contents back into a draft.  The total is
// recomputed from the inputs instead of trusting the stored value.
func Decode(data []byte) (model.ReservationDraft, error) {
	d := model.NewDraft()
	if err := json.Unmarshal(data, &d); err != nil {
		return model.NewDraft(), fmt.Errorf("decode draft: %w", err)
	}
	if d.ExtraServices == nil {
		d.ExtraServices = []model.ExtraService{}
	}
	d.TotalPrice = pricing.ComputeTotal(d)
	return d, nil
}
