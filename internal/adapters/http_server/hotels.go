package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"travel_companion/internal/domain"
)

type availabilityResponse struct {
	HotelID   int64  `json:"hotel_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Nights    int    `json:"nights"`
	Available bool   `json:"available"`
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := domain.HotelsQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	if loc := strings.TrimSpace(r.URL.Query().Get("location")); loc != "" {
		q.Location = &loc
	}

	out, err := h.Q.ListHotels(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.Hotel{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, resp)
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stay, err := domain.ParseStay(r.URL.Query().Get("check_in"), r.URL.Query().Get("check_out"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	avail, err := h.B.IsAvailable(r.Context(), id, stay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		HotelID:   id,
		CheckIn:   stay.CheckIn.Format(domain.DateLayout),
		CheckOut:  stay.CheckOut.Format(domain.DateLayout),
		Nights:    stay.NightCount(),
		Available: avail,
	})
}

func (h *Handlers) grid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	start, err := domain.ParseDay(r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := h.B.Grid(r.Context(), id, start, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, g)
}
