package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// stubAPI is a minimal in-memory reservation API enforcing one saved
// draft per client.
type stubAPI struct {
	mu       sync.Mutex
	bookings map[string]model.ReservationDraft
	draftID  string
	nextID   int
	lastAuth string
	lastURL  string
}

func newStubAPI() *stubAPI { return &stubAPI{bookings: map[string]model.ReservationDraft{}} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAuth = r.Header.Get("Authorization")
	s.lastURL = r.URL.String()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/drafts":
		writeJSON(w, http.StatusOK, DraftSummary{HasDraft: s.draftID != "", ID: s.draftID})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/bookings":
		var d model.ReservationDraft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body", "code": CodeValidation})
			return
		}
		if d.Status == model.StatusDraft && s.draftID != "" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a draft already exists", "code": CodeDraftExists})
			return
		}
		s.nextID++
		d.ID = "bk-" + string(rune('0'+s.nextID))
		s.bookings[d.ID] = d
		if d.Status == model.StatusDraft {
			s.draftID = d.ID
		}
		writeJSON(w, http.StatusCreated, d)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/bookings/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/bookings/")
		if _, ok := s.bookings[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found", "code": CodeNotFound})
			return
		}
		var d model.ReservationDraft
		_ = json.NewDecoder(r.Body).Decode(&d)
		d.ID = id
		s.bookings[id] = d
		if d.Status != model.StatusDraft && s.draftID == id {
			s.draftID = ""
		}
		writeJSON(w, http.StatusOK, d)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/bookings/"), "/cancel")
		d, ok := s.bookings[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found", "code": CodeNotFound})
			return
		}
		d.Status = model.StatusCancelled
		s.bookings[id] = d
		if s.draftID == id {
			s.draftID = ""
		}
		writeJSON(w, http.StatusOK, d)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/bookings/"):
		d, ok := s.bookings[strings.TrimPrefix(r.URL.Path, "/v1/bookings/")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found", "code": CodeNotFound})
			return
		}
		writeJSON(w, http.StatusOK, d)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/discountCoupons/validate/"):
		code := strings.TrimPrefix(r.URL.Path, "/v1/discountCoupons/validate/")
		amount, _ := decimal.NewFromString(r.URL.Query().Get("orderAmount"))
		switch {
		case code == "OLD":
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coupon expired", "code": CodeCouponExpired})
		case code != "SPRING":
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "coupon not found", "code": CodeInvalidCoupon})
		case amount.LessThan(decimal.NewFromInt(100)):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order must be at least 100", "code": CodeMinimumOrder})
		default:
			writeJSON(w, http.StatusOK, model.Coupon{ID: 4, Code: code, Amount: decimal.NewFromInt(25)})
		}
	case r.Method == http.MethodPut && r.URL.Path == "/v1/discountCoupons/4/apply":
		writeJSON(w, http.StatusOK, map[string]string{"message": "applied"})
	case r.URL.Path == "/v1/boom":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database down"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route"})
	}
}

func newTestClient(t *testing.T) (*stubAPI, *Client) {
	t.Helper()
	api := newStubAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, NewClient(srv.URL+"/", "tok", 2*time.Second, nil)
}

func sampleDraft() model.ReservationDraft {
	d := model.NewDraft()
	p := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	r := p.AddDate(0, 0, 2)
	d.Car = &model.Vehicle{ID: 1, Brand: "VW", Model: "Golf", PricePerDay: decimal.NewFromInt(60)}
	d.PickupDate, d.ReturnDate = &p, &r
	return d
}

func TestLifecycle_SecondSaveIsRejected(t *testing.T) {
	api, c := newTestClient(t)
	lc := NewLifecycle(c)
	ctx := context.Background()

	id, err := lc.Save(ctx, sampleDraft())
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if id == "" {
		t.Fatal("first Save returned empty id")
	}
	if api.lastAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", api.lastAuth)
	}

	_, err = lc.Save(ctx, sampleDraft())
	if !errors.Is(err, ErrDraftExists) {
		t.Fatalf("second Save err = %v, want ErrDraftExists", err)
	}
	var re *RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusConflict || re.Class() != ClassValidation {
		t.Errorf("second Save error = %#v", err)
	}

	has, err := lc.HasSavedDraft(ctx)
	if err != nil || !has {
		t.Errorf("HasSavedDraft() = %v, %v", has, err)
	}
}

func TestLifecycle_SaveAllowedAgainAfterFinalize(t *testing.T) {
	_, c := newTestClient(t)
	lc := NewLifecycle(c)
	ctx := context.Background()

	id, err := lc.Save(ctx, sampleDraft())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	d := sampleDraft()
	d.ID = id
	confirmed, err := lc.Finalize(ctx, d)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed || confirmed.ID != id {
		t.Errorf("Finalize() = %s/%s", confirmed.ID, confirmed.Status)
	}
	if _, err := lc.Save(ctx, sampleDraft()); err != nil {
		t.Errorf("Save after Finalize: %v", err)
	}
}

func TestLifecycle_QuoteCancelLoad(t *testing.T) {
	_, c := newTestClient(t)
	lc := NewLifecycle(c)
	ctx := context.Background()

	quoted, err := lc.RequestQuote(ctx, sampleDraft())
	if err != nil {
		t.Fatalf("RequestQuote: %v", err)
	}
	if quoted.Status != model.StatusQuoted || quoted.ID == "" {
		t.Fatalf("RequestQuote() = %+v", quoted)
	}
	if err := lc.Cancel(ctx, quoted.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	loaded, err := lc.Load(ctx, quoted.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != model.StatusCancelled {
		t.Errorf("status = %s, want Cancelled", loaded.Status)
	}
	if loaded.PickupDate == nil || !loaded.PickupDate.Equal(*sampleDraft().PickupDate) {
		t.Errorf("pickup date = %v", loaded.PickupDate)
	}

	_, err = lc.Load(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) err = %v, want ErrNotFound", err)
	}
}

func TestDiscountResolver_Validate(t *testing.T) {
	api, c := newTestClient(t)
	dr := NewDiscountResolver(c)
	ctx := context.Background()

	coupon, err := dr.Validate(ctx, "SPRING", decimal.NewFromInt(120))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if coupon.ID != 4 || !coupon.Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("coupon = %+v", coupon)
	}
	if !strings.Contains(api.lastURL, "orderAmount=120.00") {
		t.Errorf("url = %s, want orderAmount query", api.lastURL)
	}

	tests := []struct {
		code   string
		amount int64
		want   error
	}{
		{"NOPE", 500, ErrInvalidCoupon},
		{"OLD", 500, ErrCouponExpired},
		{"SPRING", 50, ErrMinimumOrderNotMet},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := dr.Validate(ctx, tt.code, decimal.NewFromInt(tt.amount))
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate(%s) err = %v, want %v", tt.code, err, tt.want)
			}
		})
	}

	if err := dr.RecordUsage(ctx, 4); err != nil {
		t.Errorf("RecordUsage: %v", err)
	}
}

func TestRemoteErrorClasses(t *testing.T) {
	_, c := newTestClient(t)
	err := c.do(context.Background(), http.MethodGet, "/v1/boom", nil, nil, nil)
	var re *RemoteError
	if !errors.As(err, &re) || re.Class() != ClassServer {
		t.Fatalf("err = %v, want server class", err)
	}
	if re.Message != "database down" {
		t.Errorf("Message = %q", re.Message)
	}

	unreachable := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond, nil)
	err = unreachable.do(context.Background(), http.MethodGet, "/v1/drafts", nil, nil, nil)
	if !errors.As(err, &re) || re.Class() != ClassNetwork {
		t.Fatalf("err = %v, want network class", err)
	}

	unauth := &RemoteError{Status: http.StatusUnauthorized}
	if !errors.Is(unauth, ErrUnauthenticated) {
		t.Error("401 does not match ErrUnauthenticated")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation uses server text", &RemoteError{Status: 400, Message: "order must be at least 100"}, "order must be at least 100"},
		{"unauthenticated", &RemoteError{Status: 401, Message: "token expired"}, "Your session has expired. Please sign in again."},
		{"server", &RemoteError{Status: 503, Message: "db"}, "The rental service is having trouble. Please try again later."},
		{"network", &RemoteError{Err: errors.New("dial")}, "Could not reach the rental service. Check your connection and try again."},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
