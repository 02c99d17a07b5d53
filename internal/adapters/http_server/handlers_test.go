package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	httpserver "travel_companion/internal/adapters/http_server"
	"travel_companion/internal/app"
	"travel_companion/internal/domain"
	"travel_companion/internal/storage/memory"
)

func newTestServer(t *testing.T, rooms int) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	if err := store.UpsertHotel(context.Background(), domain.Hotel{
		ID: 1, Name: "Harbour View", Location: "Lisbon, PT", PricePerNight: 120, Rating: 4.4,
		TotalRooms: rooms, AvailableRooms: rooms, LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}
	q := app.NewQueryService(store, nil, time.Minute)
	b := app.NewBookingService(store, nil, nil, 0)

	srv := httpserver.New(zerolog.Nop())
	srv.MountHandlers(httpserver.NewHandlers(q, b))
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

const stay = `{"check_in":"2025-05-01","check_out":"2025-05-03"}`

func TestBookHotel_CreatedThenConflict(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp := do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "7", stay)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	b := decode[domain.Booking](t, resp)
	if b.RoomNumber == nil || *b.RoomNumber != 1 || b.Status != domain.StatusConfirmed || b.UserID != 7 {
		t.Fatalf("booking = %+v", b)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "8", `{"check_in":"2025-05-02","check_out":"2025-05-04"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overlap status = %d, want 409", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q", ct)
	}

	// Back-to-back stay shares no night.
	resp = do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "8", `{"check_in":"2025-05-03","check_out":"2025-05-05"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("adjacent status = %d, want 201", resp.StatusCode)
	}
}

func TestBookHotel_Validation(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	cases := map[string]struct {
		user, body string
		want       int
	}{
		"no user":          {"", stay, http.StatusUnauthorized},
		"bad user":         {"abc", stay, http.StatusUnauthorized},
		"missing check_in": {"1", `{"check_out":"2025-05-03"}`, http.StatusBadRequest},
		"bad date":         {"1", `{"check_in":"05/01/2025","check_out":"2025-05-03"}`, http.StatusBadRequest},
		"inverted":         {"1", `{"check_in":"2025-05-03","check_out":"2025-05-01"}`, http.StatusBadRequest},
		"zero nights":      {"1", `{"check_in":"2025-05-03","check_out":"2025-05-03"}`, http.StatusBadRequest},
		"unknown field":    {"1", `{"check_in":"2025-05-01","check_out":"2025-05-03","guests":2}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", tc.user, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestBookHotel_UnknownHotelWithRecommendation(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp := do(t, http.MethodPost, ts.URL+"/v1/hotels/99/bookings", "1", stay)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown hotel status = %d, want 404", resp.StatusCode)
	}

	body := `{"check_in":"2025-05-01","check_out":"2025-05-03",
	  "recommendation":{"id":99,"name":"Dune Camp","location":"Merzouga, MA","price":80,"rating":4.1}}`
	resp = do(t, http.MethodPost, ts.URL+"/v1/hotels/99/bookings", "1", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("materialized status = %d, want 201", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/hotels/99", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get materialized hotel = %d", resp.StatusCode)
	}
	h := decode[domain.Hotel](t, resp)
	if h.Name != "Dune Camp" || h.TotalRooms != domain.DefaultTotalRooms || h.AvailableRooms != domain.DefaultTotalRooms-1 {
		t.Fatalf("hotel = %+v", h)
	}

	mismatch := strings.Replace(body, `"id":99`, `"id":98`, 1)
	resp = do(t, http.MethodPost, ts.URL+"/v1/hotels/99/bookings", "1", mismatch)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatched recommendation = %d, want 400", resp.StatusCode)
	}
}

func TestCancelBooking_OwnershipAndRepeat(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	b := decode[domain.Booking](t, do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "7", stay))
	url := ts.URL + "/v1/bookings/" + jsonID(b.ID) + "/cancel"

	if resp := do(t, http.MethodPost, url, "8", ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign cancel = %d, want 403", resp.StatusCode)
	}

	resp := do(t, http.MethodPost, url, "7", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel = %d, want 200", resp.StatusCode)
	}
	out := decode[struct {
		Cancelled bool           `json:"cancelled"`
		Booking   domain.Booking `json:"booking"`
	}](t, resp)
	if !out.Cancelled || out.Booking.Status != domain.StatusCancelled {
		t.Fatalf("cancel response = %+v", out)
	}

	if resp := do(t, http.MethodPost, url, "7", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("repeat cancel = %d, want 409", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/v1/bookings/999/cancel", "7", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown booking cancel = %d, want 404", resp.StatusCode)
	}

	// The freed room is bookable again.
	if resp := do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "8", stay); resp.StatusCode != http.StatusCreated {
		t.Fatalf("rebook = %d, want 201", resp.StatusCode)
	}
}

func TestAvailabilityAndGrid(t *testing.T) {
	ts, _ := newTestServer(t, 2)
	do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "7", stay)

	resp := do(t, http.MethodGet, ts.URL+"/v1/hotels/1/availability?check_in=2025-05-01&check_out=2025-05-03", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability = %d", resp.StatusCode)
	}
	av := decode[map[string]any](t, resp)
	if av["available"] != true || av["nights"] != float64(2) {
		t.Fatalf("availability = %v", av)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/hotels/1/availability?check_in=2025-05-03&check_out=2025-05-01", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted availability = %d, want 400", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/hotels/1/grid?start_date=2025-05-01", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grid = %d", resp.StatusCode)
	}
	g := decode[domain.Grid](t, resp)
	if len(g.Dates) != 7 || g.TotalRooms != 2 {
		t.Fatalf("grid shape = %d dates, %d rooms", len(g.Dates), g.TotalRooms)
	}
	if cells := g.Cells["2025-05-01"]; cells[0] || !cells[1] {
		t.Fatalf("2025-05-01 = %v, want [false true]", cells)
	}
	if cells := g.Cells["2025-05-03"]; !cells[0] || !cells[1] {
		t.Fatalf("checkout day = %v, want all free", cells)
	}
}

func TestGetHotel_ETag(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	resp := do(t, http.MethodGet, ts.URL+"/v1/hotels/1", "", "")
	etag := resp.Header.Get("ETag")
	if resp.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("status = %d etag = %q", resp.StatusCode, etag)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/hotels/1", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional get = %d, want 304", resp2.StatusCode)
	}

	if resp := do(t, http.MethodGet, ts.URL+"/v1/hotels/abc", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", resp.StatusCode)
	}
}

func TestCarRentalAndListBookings(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp := do(t, http.MethodPost, ts.URL+"/v1/car-rentals", "5",
		`{"location":"Lisbon","car_type":"suv","pickup_date":"2025-05-01","return_date":"2025-05-01"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("car rental = %d, want 201", resp.StatusCode)
	}
	car := decode[domain.Booking](t, resp)
	if car.Type != domain.BookingCar || car.CarRentalID == nil {
		t.Fatalf("car booking = %+v", car)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/car-rentals", "5",
		`{"location":"Lisbon","car_type":"tank","pickup_date":"2025-05-01","return_date":"2025-05-02"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad car type = %d, want 400", resp.StatusCode)
	}

	do(t, http.MethodPost, ts.URL+"/v1/hotels/1/bookings", "5", stay)

	resp = do(t, http.MethodGet, ts.URL+"/v1/bookings", "5", "")
	list := decode[struct {
		Items []domain.Booking `json:"items"`
	}](t, resp)
	if len(list.Items) != 2 || list.Items[0].Type != domain.BookingHotel {
		t.Fatalf("bookings = %+v", list.Items)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/bookings", "6", "")
	other := decode[struct {
		Items []domain.Booking `json:"items"`
	}](t, resp)
	if len(other.Items) != 0 {
		t.Fatalf("other user sees %d bookings", len(other.Items))
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestHealthzAndListHotels(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	if resp := do(t, http.MethodGet, ts.URL+"/healthz", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	type page struct {
		Items []domain.Hotel `json:"items"`
	}
	got := decode[page](t, do(t, http.MethodGet, ts.URL+"/v1/hotels?location=lisbon", "", ""))
	if len(got.Items) != 1 || got.Items[0].ID != 1 {
		t.Fatalf("lisbon = %+v", got.Items)
	}
	got = decode[page](t, do(t, http.MethodGet, ts.URL+"/v1/hotels?location=Porto", "", ""))
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("porto = %+v", got.Items)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/v1/hotels?limit=0", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("limit=0 = %d, want 400", resp.StatusCode)
	}
}
