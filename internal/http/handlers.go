package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Clark-Hu/barpulse/internal/domain"
	"github.com/Clark-Hu/barpulse/internal/reports"
	"github.com/Clark-Hu/barpulse/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type reportResponse struct {
	ID                 int64     `json:"id"`
	BarID              int64     `json:"barId"`
	UserID             string    `json:"userId"`
	LineLengthCategory string    `json:"lineLengthCategory"`
	LineLength         *int      `json:"lineLength"`
	WaitTime           *int      `json:"waitTime"`
	CoverCategory      *string   `json:"coverCategory"`
	CoverPrice         *float64  `json:"coverPrice"`
	CreatedAt          time.Time `json:"createdAt"`
	StatsUpdated       *bool     `json:"statsUpdated,omitempty"`
}

type reportListResponse struct {
	Items  []reportResponse `json:"items"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type venueResponse struct {
	ID                        int64     `json:"id"`
	Name                      string    `json:"name"`
	Address                   *string   `json:"address"`
	Phone                     string    `json:"phone"`
	Latitude                  *float64  `json:"latitude"`
	Longitude                 *float64  `json:"longitude"`
	Verified                  bool      `json:"verified"`
	LineLength                float64   `json:"lineLength"`
	LineLengthCategory        string    `json:"lineLengthCategory"`
	LineLengthDistribution    []string  `json:"lineLengthDistribution"`
	CoverCategory             string    `json:"coverCategory"`
	CoverCategoryDistribution []string  `json:"coverCategoryDistribution"`
	CoverPrice                float64   `json:"coverPrice"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req reports.Payload
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	report, err := s.reports.Submit(r.Context(), caller, req)
	var aggErr *reports.AggregationError
	switch {
	case err == nil:
	case errors.As(err, &aggErr):
		// The report is stored; only the venue stats are stale.
	default:
		s.respondServiceError(w, err, "Failed to submit report")
		return
	}

	resp := toReportResponse(report)
	updated := err == nil
	resp.StatsUpdated = &updated
	w.Header().Set("Location", fmt.Sprintf("/bar-report/%d", report.VenueID))
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	limit, offset, err := parsePagination(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	items, err := s.reports.List(r.Context(), venueID, limit, offset)
	if err != nil {
		s.respondServiceError(w, err, "Failed to list reports")
		return
	}

	resp := reportListResponse{
		Items:  make([]reportResponse, 0, len(items)),
		Limit:  effectiveLimit(limit),
		Offset: offset,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toReportResponse(item))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	venue, err := s.reports.GetVenue(r.Context(), venueID)
	if err != nil {
		s.respondServiceError(w, err, "Failed to fetch bar")
		return
	}
	s.respondJSON(w, http.StatusOK, toVenueResponse(venue))
}

func parseVenueID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "barId"))
	if raw == "" {
		return 0, fmt.Errorf("missing barId parameter")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid barId parameter")
	}
	return id, nil
}

// parsePagination reads limit and offset. Zero values mean "use the default".
func parsePagination(query url.Values) (limit, offset int, err error) {
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err = strconv.Atoi(val)
		if err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("invalid limit value")
		}
	}
	if val := strings.TrimSpace(query.Get("offset")); val != "" {
		offset, err = strconv.Atoi(val)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset value")
		}
	}
	return limit, offset, nil
}

func effectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return reports.DefaultListLimit
	case limit > reports.MaxListLimit:
		return reports.MaxListLimit
	default:
		return limit
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: verr.Error(),
			Details: verr.Fields,
		})
	case errors.Is(err, reports.ErrVenueNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Bar not found")
	case errors.Is(err, reports.ErrOwnVenue):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot report line length of your own bar")
	default:
		s.logger.Error(fallback, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toReportResponse(r domain.Report) reportResponse {
	resp := reportResponse{
		ID:                 r.ID,
		BarID:              r.VenueID,
		UserID:             r.UserID.String(),
		LineLengthCategory: string(r.LineLengthCategory),
		LineLength:         r.LineLength,
		WaitTime:           r.WaitTime,
		CoverPrice:         r.CoverPrice,
		CreatedAt:          r.CreatedAt,
	}
	if r.CoverCategory != nil {
		c := string(*r.CoverCategory)
		resp.CoverCategory = &c
	}
	return resp
}

func toVenueResponse(v domain.Venue) venueResponse {
	resp := venueResponse{
		ID:                 v.ID,
		Name:               v.Name,
		Address:            v.Address,
		Phone:              v.Phone,
		Latitude:           v.Latitude,
		Longitude:          v.Longitude,
		Verified:           v.Verified,
		LineLength:         v.Stats.LineLength,
		LineLengthCategory: string(v.Stats.LineLengthCategory),
		CoverCategory:      string(v.Stats.CoverCategory),
		CoverPrice:         v.Stats.CoverPrice,
		UpdatedAt:          v.UpdatedAt,
	}
	resp.LineLengthDistribution = make([]string, 0, len(v.Stats.LineLengthDistribution))
	for _, c := range v.Stats.LineLengthDistribution {
		resp.LineLengthDistribution = append(resp.LineLengthDistribution, string(c))
	}
	resp.CoverCategoryDistribution = make([]string, 0, len(v.Stats.CoverCategoryDistribution))
	for _, c := range v.Stats.CoverCategoryDistribution {
		resp.CoverCategoryDistribution = append(resp.CoverCategoryDistribution, string(c))
	}
	return resp
}
