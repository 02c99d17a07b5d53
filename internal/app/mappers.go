package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"travel_companion/internal/domain"
)

/********** alias registries (single source of truth) **********/

var hotelAliases = map[string][]string{
	"name":        {"name", "hotel_name", "property_name", "translations.name"},
	"city":        {"address.city", "city", "location.city"},
	"country":     {"address.country", "country", "country_code", "location.country"},
	"description": {"description", "markdown_description", "description_long"},
	"price":       {"price_per_night", "price", "rates.nightly", "min_price"},
	"rating":      {"rating", "review_score", "rating.value", "stars"},
	"rooms":       {"total_rooms", "rooms_count", "room_count", "number_of_rooms"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func firstStr(m map[string]any, key string) string {
	for _, p := range hotelAliases[key] {
		if s, ok := lookupAny(m, p).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNum accepts JSON numbers and numeric strings.
func firstNum(m map[string]any, key string) (float64, bool) {
	for _, p := range hotelAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

/********** mapper **********/

// mapHotel turns a catalog payload into a Hotel. ok=false when the payload has
// no usable name.
func mapHotel(id int64, p map[string]any, defaultRooms int) (domain.Hotel, bool) {
	name := firstStr(p, "name")
	if name == "" {
		log.Warn().Int64("id", id).Msg("catalog payload without name")
		return domain.Hotel{}, false
	}

	var parts []string
	for _, k := range []string{"city", "country"} {
		if s := firstStr(p, k); s != "" {
			parts = append(parts, s)
		}
	}

	h := domain.Hotel{
		ID:          id,
		Name:        name,
		Location:    strings.Join(parts, ", "),
		TotalRooms:  defaultRooms,
		LastUpdated: time.Now().UTC(),
	}
	if d := firstStr(p, "description"); d != "" {
		h.Description = &d
	}
	if f, ok := firstNum(p, "price"); ok && f >= 0 {
		h.PricePerNight = f
	}
	if f, ok := firstNum(p, "rating"); ok && f >= 0 {
		h.Rating = f
	}
	if f, ok := firstNum(p, "rooms"); ok && f >= 1 {
		h.TotalRooms = int(f)
	}
	h.AvailableRooms = h.TotalRooms
	return h, true
}
