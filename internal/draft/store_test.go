package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

var day0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func corolla(price int64) model.Vehicle {
	return model.Vehicle{ID: 7, Brand: "Toyota", Model: "Corolla", PricePerDay: dec(price)}
}

type failingSlot struct {
	saves int
}

func (f *failingSlot) Load(context.Context) ([]byte, error) { return nil, errors.New("disk gone") }
func (f *failingSlot) Save(context.Context, []byte) error {
	f.saves++
	return errors.New("quota exceeded")
}
func (f *failingSlot) Clear(context.Context) error { return errors.New("disk gone") }

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	d := s.Current()
	if d.Car != nil || d.PickupDate != nil || len(d.ExtraServices) != 0 {
		t.Fatalf("new store draft not empty: %+v", d)
	}
	if !d.TotalPrice.IsZero() {
		t.Errorf("TotalPrice = %s, want 0", d.TotalPrice)
	}
}

func TestStore_RemoveUnknownExtraIsNoop(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.SelectCar(corolla(40))
	s.SetDates(day0, day0.AddDate(0, 0, 2))
	s.AddExtraService(model.ExtraService{ID: "gps", Name: "GPS", Price: dec(10), Selected: true})
	before := s.Current()

	s.RemoveExtraService("child-seat")

	after := s.Current()
	if len(after.ExtraServices) != len(before.ExtraServices) {
		t.Fatalf("extras changed: %v -> %v", before.ExtraServices, after.ExtraServices)
	}
	if !after.TotalPrice.Equal(before.TotalPrice) {
		t.Errorf("TotalPrice = %s, want %s", after.TotalPrice, before.TotalPrice)
	}
}

func TestStore_AddExtraReplacesSameID(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.AddExtraService(model.ExtraService{ID: "gps", Price: dec(10), Selected: true})
	s.AddExtraService(model.ExtraService{ID: "seat", Price: dec(5), Selected: true})
	s.AddExtraService(model.ExtraService{ID: "gps", Price: dec(12), Selected: true})

	d := s.Current()
	if len(d.ExtraServices) != 2 {
		t.Fatalf("len(extras) = %d, want 2", len(d.ExtraServices))
	}
	if d.ExtraServices[0].ID != "gps" || !d.ExtraServices[0].Price.Equal(dec(12)) {
		t.Errorf("extras[0] = %+v, want gps replaced in place at 12", d.ExtraServices[0])
	}
	if !d.TotalPrice.Equal(dec(17)) {
		t.Errorf("TotalPrice = %s, want 17", d.TotalPrice)
	}
}

func TestStore_PriceMonotonicInExtras(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.SelectCar(corolla(30))
	s.SetDates(day0, day0.AddDate(0, 0, 1))
	s.ApplyDiscount(model.Discount{Code: "BIG", Amount: dec(1000)})

	prices := []int64{0, 15, 3, 40}
	last := s.Current().TotalPrice
	for i, p := range prices {
		s.AddExtraService(model.ExtraService{ID: string(rune('a' + i)), Price: dec(p), Selected: true})
		cur := s.Current().TotalPrice
		if cur.LessThan(last) {
			t.Fatalf("adding extra %d decreased total: %s -> %s", i, last, cur)
		}
		last = cur
	}
	s.RemoveDiscount()
	last = s.Current().TotalPrice
	for i := range prices {
		s.RemoveExtraService(string(rune('a' + i)))
		cur := s.Current().TotalPrice
		if cur.GreaterThan(last) {
			t.Fatalf("removing extra %d increased total: %s -> %s", i, last, cur)
		}
		last = cur
	}
	if !last.Equal(dec(30)) {
		t.Errorf("final total = %s, want 30", last)
	}
}

func TestStore_DiscountNeverMakesTotalNegative(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.SelectCar(corolla(20))
	s.SetDates(day0, day0)
	s.ApplyDiscount(model.Discount{Code: "HUGE", Amount: dec(500)})
	if got := s.Current().TotalPrice; !got.IsZero() {
		t.Errorf("TotalPrice = %s, want 0", got)
	}
}

func TestStore_RoundTripThroughSlot(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, nil)
	s.SelectCar(corolla(55))
	s.SetLocations(
		model.Location{ID: 1, Name: "Airport", City: "Lisbon"},
		model.Location{ID: 2, Name: "Downtown", City: "Lisbon"},
	)
	s.SetDates(day0, day0.Add(49*time.Hour))
	s.AddExtraService(model.ExtraService{ID: "gps", Name: "GPS", Price: dec(9), Selected: true})
	s.AddExtraService(model.ExtraService{ID: "wifi", Name: "Wi-Fi", Price: dec(4), Selected: false})
	s.SetCustomerDetails(model.CustomerDetails{Name: "Ana", Age: 31, Email: "ana@example.com"})
	s.ApplyDiscount(model.Discount{Code: "SPRING", Amount: dec(20)})
	want := s.Current()

	got := NewStore(slot, nil).Current()

	if got.Car == nil || got.Car.ID != want.Car.ID || !got.Car.PricePerDay.Equal(want.Car.PricePerDay) {
		t.Errorf("car = %+v, want %+v", got.Car, want.Car)
	}
	if got.PickupLocation == nil || *got.PickupLocation != *want.PickupLocation {
		t.Errorf("pickup location = %+v, want %+v", got.PickupLocation, want.PickupLocation)
	}
	if got.ReturnLocation == nil || *got.ReturnLocation != *want.ReturnLocation {
		t.Errorf("return location = %+v, want %+v", got.ReturnLocation, want.ReturnLocation)
	}
	if got.PickupDate == nil || !got.PickupDate.Equal(*want.PickupDate) {
		t.Errorf("pickup date = %v, want %v", got.PickupDate, want.PickupDate)
	}
	if got.ReturnDate == nil || !got.ReturnDate.Equal(*want.ReturnDate) {
		t.Errorf("return date = %v, want %v", got.ReturnDate, want.ReturnDate)
	}
	if len(got.ExtraServices) != 2 || got.ExtraServices[1].Selected {
		t.Errorf("extras = %+v", got.ExtraServices)
	}
	if got.CustomerDetails == nil || *got.CustomerDetails != *want.CustomerDetails {
		t.Errorf("customer = %+v, want %+v", got.CustomerDetails, want.CustomerDetails)
	}
	if got.AppliedDiscount == nil || got.AppliedDiscount.Code != "SPRING" || !got.AppliedDiscount.Amount.Equal(dec(20)) {
		t.Errorf("discount = %+v", got.AppliedDiscount)
	}
	if !got.TotalPrice.Equal(want.TotalPrice) {
		t.Errorf("TotalPrice = %s, want %s", got.TotalPrice, want.TotalPrice)
	}
}

func TestStore_DiscardsUnreadableSlot(t *testing.T) {
	slot := NewMemorySlot()
	_ = slot.Save(context.Background(), []byte("{not json"))

	s := NewStore(slot, nil)

	if s.Current().Car != nil {
		t.Fatal("expected empty draft")
	}
	if _, err := slot.Load(context.Background()); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("slot.Load() err = %v, want ErrSlotEmpty", err)
	}
}

func TestStore_ResetClearsSlot(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, nil)
	s.SelectCar(corolla(10))
	s.Reset()

	if s.Current().Car != nil {
		t.Error("draft not empty after Reset")
	}
	if _, err := slot.Load(context.Background()); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("slot.Load() err = %v, want ErrSlotEmpty", err)
	}
}

func TestStore_SlotFailureKeepsMemoryState(t *testing.T) {
	slot := &failingSlot{}
	s := NewStore(slot, nil, WithPersistTimeout(50*time.Millisecond))
	s.SelectCar(corolla(70))
	s.SetDates(day0, day0.AddDate(0, 0, 2))

	if got := s.Current().TotalPrice; !got.Equal(dec(140)) {
		t.Errorf("TotalPrice = %s, want 140", got)
	}
	if slot.saves != 2 {
		t.Errorf("saves = %d, want 2", slot.saves)
	}
}

func TestStore_CurrentIsACopy(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.AddExtraService(model.ExtraService{ID: "gps", Price: dec(10), Selected: true})
	d := s.Current()
	d.ExtraServices[0].Price = dec(999)

	if got := s.Current().ExtraServices[0].Price; !got.Equal(dec(10)) {
		t.Errorf("store mutated through copy: price = %s", got)
	}
}

func TestStore_MarkPersisted(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.SelectCar(corolla(10))
	created := day0.Add(-time.Hour)
	s.MarkPersisted("b-1", model.StatusSaved, &created, &created)

	d := s.Current()
	if d.ID != "b-1" || d.Status != model.StatusSaved {
		t.Errorf("identity = %q/%q", d.ID, d.Status)
	}
	if d.CreatedAt == nil || !d.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", d.CreatedAt)
	}
	if d.Car == nil {
		t.Error("MarkPersisted dropped the car")
	}
}

func TestStore_SubscribersSeeEveryMutationInOrder(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	var totals []string
	unsubscribe := s.Subscribe(func(d model.ReservationDraft) {
		totals = append(totals, d.TotalPrice.String())
	})

	s.SelectCar(corolla(100))
	s.SetDates(day0, day0.AddDate(0, 0, 3))
	s.AddExtraService(model.ExtraService{ID: "gps", Price: dec(10), Selected: true})
	unsubscribe()
	s.RemoveExtraService("gps")

	want := []string{"0", "300", "310"}
	if len(totals) != len(want) {
		t.Fatalf("totals = %v, want %v", totals, want)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("totals[%d] = %s, want %s", i, totals[i], want[i])
		}
	}
}

func TestStore_UpdatesKeepsLatestForSlowReader(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	ch, cancel := s.Updates(1)
	defer cancel()

	s.SelectCar(corolla(10))
	s.SetDates(day0, day0.AddDate(0, 0, 1))
	s.SetDates(day0, day0.AddDate(0, 0, 4))

	select {
	case d := <-ch:
		if !d.TotalPrice.Equal(dec(40)) {
			t.Errorf("TotalPrice = %s, want latest 40", d.TotalPrice)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestStore_UpdatesCancelClosesChannel(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	ch, cancel := s.Updates(4)
	cancel()
	cancel()
	s.SelectCar(corolla(10))

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	s.SelectCar(corolla(10))
	s.SetDates(day0, day0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddExtraService(model.ExtraService{ID: string(rune('A' + i)), Price: dec(1), Selected: true})
		}(i)
	}
	wg.Wait()

	if got := s.Current().TotalPrice; !got.Equal(dec(30)) {
		t.Errorf("TotalPrice = %s, want 30", got)
	}
}

func TestStore_WizardScenarioTotals(t *testing.T) {
	s := NewStore(NewMemorySlot(), nil)
	check := func(step string, want int64) {
		t.Helper()
		if got := s.Current().TotalPrice; !got.Equal(dec(want)) {
			t.Fatalf("%s: TotalPrice = %s, want %d", step, got, want)
		}
	}

	s.SelectCar(corolla(100))
	s.SetDates(day0, day0.AddDate(0, 0, 3))
	check("dates", 300)
	s.AddExtraService(model.ExtraService{ID: "gps", Price: dec(10), Selected: true})
	check("extra", 310)
	s.ApplyDiscount(model.Discount{Code: "X", Amount: dec(50)})
	check("discount", 260)
	s.RemoveDiscount()
	check("discount removed", 310)
}

type slowSlot struct {
	MemorySlot
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowSlot) Save(ctx context.Context, data []byte) error {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	return s.MemorySlot.Save(ctx, data)
}

func TestStore_CurrentDoesNotWaitForSlotWrite(t *testing.T) {
	slot := &slowSlot{delay: 400 * time.Millisecond, started: make(chan struct{})}
	s := NewStore(slot, nil)

	done := make(chan struct{})
	go func() {
		s.SelectCar(corolla(10))
		close(done)
	}()
	<-slot.started

	start := time.Now()
	d := s.Current()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Current took %s during a slot write", elapsed)
	}
	if d.Car == nil {
		t.Error("Current does not show the car being written")
	}
	<-done
}

func TestStore_SlotEndsWithLatestDraft(t *testing.T) {
	slot := &slowSlot{delay: 5 * time.Millisecond, started: make(chan struct{})}
	s := NewStore(slot, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddExtraService(model.ExtraService{ID: string(rune('a' + i)), Price: dec(1), Selected: true})
		}(i)
	}
	wg.Wait()

	data, err := slot.Load(context.Background())
	if err != nil {
		t.Fatalf("slot.Load: %v", err)
	}
	saved, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(saved.ExtraServices) != 10 || !saved.TotalPrice.Equal(s.Current().TotalPrice) {
		t.Errorf("slot holds %d extras, total %s; want 10, %s", len(saved.ExtraServices), saved.TotalPrice, s.Current().TotalPrice)
	}
}
