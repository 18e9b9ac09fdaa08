package draft

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

type draftTestContext struct {
	slot  *MemorySlot
	store *Store
}

func (c *draftTestContext) reset() {
	c.slot = NewMemorySlot()
	c.store = NewStore(c.slot, nil)
}

func (c *draftTestContext) anEmptyReservationDraft() error {
	if c.store.Current().Car != nil {
		return fmt.Errorf("draft is not empty")
	}
	return nil
}

func (c *draftTestContext) iSelectACarPricedAtPerDay(price int) error {
	c.store.SelectCar(corolla(int64(price)))
	return nil
}

func (c *draftTestContext) iSetTheRentalDatesFromDayToDay(from, to int) error {
	c.store.SetDates(day0.AddDate(0, 0, from), day0.AddDate(0, 0, to))
	return nil
}

func (c *draftTestContext) iAddTheSelectedExtraPricedAt(id string, price int) error {
	c.store.AddExtraService(model.ExtraService{ID: id, Name: id, Price: dec(int64(price)), Selected: true})
	return nil
}

func (c *draftTestContext) iAddTheUnselectedExtraPricedAt(id string, price int) error {
	c.store.AddExtraService(model.ExtraService{ID: id, Name: id, Price: dec(int64(price))})
	return nil
}

func (c *draftTestContext) iRemoveTheExtra(id string) error {
	c.store.RemoveExtraService(id)
	return nil
}

func (c *draftTestContext) iApplyTheDiscountWorth(code string, amount int) error {
	c.store.ApplyDiscount(model.Discount{Code: code, Amount: dec(int64(amount))})
	return nil
}

func (c *draftTestContext) iRemoveTheDiscount() error {
	c.store.RemoveDiscount()
	return nil
}

func (c *draftTestContext) theClientRestarts() error {
	c.store = NewStore(c.slot, nil)
	return nil
}

func (c *draftTestContext) theTotalPriceIs(total int) error {
	got := c.store.Current().TotalPrice
	if !got.Equal(dec(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, got)
	}
	return nil
}

func (c *draftTestContext) theDraftHasExtras(n int) error {
	if got := len(c.store.Current().ExtraServices); got != n {
		return fmt.Errorf("expected %d extras, got %d", n, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &draftTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty reservation draft$`, tc.anEmptyReservationDraft)

	// When steps
	ctx.Step(`^I select a car priced at (\d+) per day$`, tc.iSelectACarPricedAtPerDay)
	ctx.Step(`^I set the rental dates from day (\d+) to day (\d+)$`, tc.iSetTheRentalDatesFromDayToDay)
	ctx.Step(`^I add the selected extra "([^"]*)" priced at (\d+)$`, tc.iAddTheSelectedExtraPricedAt)
	ctx.Step(`^I add the unselected extra "([^"]*)" priced at (\d+)$`, tc.iAddTheUnselectedExtraPricedAt)
	ctx.Step(`^I remove the extra "([^"]*)"$`, tc.iRemoveTheExtra)
	ctx.Step(`^I apply the discount "([^"]*)" worth (\d+)$`, tc.iApplyTheDiscountWorth)
	ctx.Step(`^I remove the discount$`, tc.iRemoveTheDiscount)
	ctx.Step(`^the client restarts$`, tc.theClientRestarts)

	// Then steps
	ctx.Step(`^the total price is (\d+)$`, tc.theTotalPriceIs)
	ctx.Step(`^the draft has (\d+) extras$`, tc.theDraftHasExtras)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
