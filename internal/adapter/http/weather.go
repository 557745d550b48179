package http

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

type cityParams struct {
	Name  string `validate:"required"`
	Units string `validate:"omitempty,oneof=metric imperial"`
}

type coordinatesParams struct {
	Lat   *float64 `validate:"required,gte=-90,lte=90"`
	Lon   *float64 `validate:"required,gte=-180,lte=180"`
	Units string   `validate:"omitempty,oneof=metric imperial"`
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	// chi matches against RawPath when the path carries escapes such as %2F,
	// leaving the parameter encoded. Otherwise it is already decoded.
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	params := cityParams{
		Name:  strings.TrimSpace(name),
		Units: strings.ToLower(r.URL.Query().Get("units")),
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	snap, err := s.weather.ByCity(r.Context(), params.Name, unitsOrDefault(params.Units))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := coordinatesParams{Units: strings.ToLower(q.Get("units"))}

	var ok bool
	if params.Lat, ok = parseOptionalFloat(q.Get("lat")); !ok {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	if params.Lon, ok = parseOptionalFloat(q.Get("lon")); !ok {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	snap, err := s.weather.ByCoordinates(r.Context(), *params.Lat, *params.Lon, unitsOrDefault(params.Units))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Weather API is running!"))
}

// writeLookupError maps every lookup failure to 404, except queries the
// service itself rejected.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusNotFound, "weather data not found")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

func unitsOrDefault(s string) domain.UnitSystem {
	if s == "" {
		return domain.Metric
	}
	return domain.UnitSystem(s)
}

// parseOptionalFloat returns nil for an empty string and ok=false when the
// value is present but not a finite number.
func parseOptionalFloat(s string) (*float64, bool) {
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil, false
	}
	return &v, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is out of range"
	}
}
