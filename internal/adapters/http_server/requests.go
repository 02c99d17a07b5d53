package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"travel_companion/internal/domain"
)

const maxBodyBytes = 1 << 20

type recommendationRequest struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=255"`
	Location    string  `json:"location" validate:"max=255"`
	Price       float64 `json:"price" validate:"gte=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Description *string `json:"description,omitempty"`
}

type bookHotelRequest struct {
	CheckIn        string                 `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut       string                 `json:"check_out" validate:"required,datetime=2006-01-02"`
	Recommendation *recommendationRequest `json:"recommendation,omitempty" validate:"omitempty"`
}

func (b bookHotelRequest) recommendation() *domain.Recommendation {
	if b.Recommendation == nil {
		return nil
	}
	r := b.Recommendation
	return &domain.Recommendation{
		ID:          r.ID,
		Name:        r.Name,
		Location:    r.Location,
		Price:       r.Price,
		Rating:      r.Rating,
		Description: r.Description,
	}
}

type carRentalRequest struct {
	Location   string `json:"location" validate:"required,max=255"`
	CarType    string `json:"car_type" validate:"required,oneof=economy compact midsize suv luxury"`
	PickupDate string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	ReturnDate string `json:"return_date" validate:"required,datetime=2006-01-02"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type fieldErrors []fieldError

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, e := range f {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func translate(errs validator.ValidationErrors) fieldErrors {
	out := make(fieldErrors, 0, len(errs))
	for _, e := range errs {
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "datetime":
			msg = "must be a date formatted YYYY-MM-DD"
		case "oneof":
			msg = "must be one of: " + e.Param()
		case "max":
			msg = "must be at most " + e.Param() + " characters"
		default:
			msg = fmt.Sprintf("failed %s=%s", e.Tag(), e.Param())
		}
		out = append(out, fieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// decode reads a JSON body into dst and validates it. On failure the problem
// response is already written.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeProblem(w, http.StatusBadRequest, "Validation Failed", translate(verrs).Error())
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
