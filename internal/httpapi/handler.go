package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Fery-Iris/web-simdik-sub001/internal/models"
	"github.com/Fery-Iris/web-simdik-sub001/internal/schedule"
	"github.com/Fery-Iris/web-simdik-sub001/internal/store"

	"github.com/google/uuid"
)

type Handler struct {
	store store.ReservationStore
	clock func() time.Time
}

type Options struct {
	// Clock overrides time.Now, mainly for tests. The location of the
	// returned time decides what "today" means for slot checks.
	Clock func() time.Time
}

func NewHandler(st store.ReservationStore, options Options) *Handler {
	clock := options.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Handler{store: st, clock: clock}
}

type reservationRequest struct {
	Service   string `json:"service"`
	ServiceID int    `json:"serviceId"`
	Date      string `json:"date"`
	TimeSlot  string `json:"timeSlot"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Purpose   string `json:"purpose"`
	NIK       string `json:"nik"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/reservations", h.handleReservations)
	mux.HandleFunc("/reservations/", h.handleReservationByID)
	mux.HandleFunc("/time-slots", h.handleTimeSlots)
	mux.HandleFunc("/queue/status", h.handleQueueStatus)
	mux.HandleFunc("/queue/display", h.handleQueueDisplay)
	mux.HandleFunc("/services", h.handleServices)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateReservation(w, r)
	case http.MethodGet:
		h.handleListReservations(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	trimRequest(&req)

	if req.Service == "" && req.ServiceID != 0 {
		if svc, ok := models.ServiceByID(req.ServiceID); ok {
			req.Service = svc.Code
		}
	}

	if field, ok := missingRequired(req); !ok {
		writeError(w, http.StatusBadRequest, "missing_field", field+" is required")
		return
	}
	if _, err := schedule.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}
	if _, err := schedule.ParseSlot(req.TimeSlot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "timeSlot must be HH:MM")
		return
	}
	if !isValidPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone must be 8-16 digits")
		return
	}

	reservation, err := h.store.CreateReservation(r.Context(), store.CreateReservationInput{
		ServiceCode: req.Service,
		CitizenName: req.Name,
		Phone:       req.Phone,
		NationalID:  req.NIK,
		Purpose:     req.Purpose,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		CreatedAt:   h.clock(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		ServiceCode: strings.TrimSpace(r.URL.Query().Get("service")),
		Date:        strings.TrimSpace(r.URL.Query().Get("date")),
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if filter.Date != "" {
		if _, err := schedule.ParseDate(filter.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
			return
		}
	}
	if filter.Status != "" && !models.IsKnownStatus(filter.Status) {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown status filter")
		return
	}

	reservations, err := h.store.ListReservations(r.Context(), filter)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *Handler) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/reservations/"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !isValidUUID(id) {
		writeError(w, http.StatusBadRequest, "invalid_request", "reservation id must be a UUID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetReservation(w, r, id)
	case http.MethodPut:
		h.handleUpdateReservation(w, r, id)
	case http.MethodDelete:
		h.handleDeleteReservation(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGetReservation(w http.ResponseWriter, r *http.Request, id string) {
	reservation, err := h.store.GetReservation(r.Context(), id)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleUpdateReservation(w http.ResponseWriter, r *http.Request, id string) {
	var req reservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	trimRequest(&req)

	if field, ok := missingRequired(req); !ok {
		writeError(w, http.StatusBadRequest, "missing_field", field+" is required")
		return
	}
	if _, err := schedule.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}
	if _, err := schedule.ParseSlot(req.TimeSlot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "timeSlot must be HH:MM")
		return
	}
	if !isValidPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone must be 8-16 digits")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "missing_field", "status is required")
		return
	}
	if !models.IsKnownStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown status value")
		return
	}
	if _, ok := models.ServiceByCode(req.Service); !ok {
		writeError(w, http.StatusBadRequest, "unknown_service", "unknown service code")
		return
	}

	reservation, err := h.store.UpdateReservation(r.Context(), id, store.UpdateReservationInput{
		ServiceCode: req.Service,
		CitizenName: req.Name,
		Phone:       req.Phone,
		NationalID:  req.NIK,
		Purpose:     req.Purpose,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Status:      req.Status,
		UpdatedAt:   h.clock(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleDeleteReservation(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.DeleteReservation(r.Context(), id); err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "missing_field", "date is required")
		return
	}
	if _, err := schedule.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.store.SlotAvailability(r.Context(), date)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if slots == nil {
		slots = []store.SlotAvailability{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date,
		"open":  schedule.IsOpen(h.clock()),
		"slots": slots,
	})
}

func (h *Handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	statuses, err := h.store.QueueStatus(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handler) handleQueueDisplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	service := strings.TrimSpace(r.URL.Query().Get("service"))
	if service != "" {
		if _, ok := models.ServiceByCode(service); !ok {
			writeError(w, http.StatusBadRequest, "unknown_service", "unknown service code")
			return
		}
	}

	limit := 5
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	var called []models.Reservation
	var err error
	if service != "" {
		called, err = h.store.CurrentlyCalled(r.Context(), service)
	} else {
		for _, svc := range models.Services() {
			var part []models.Reservation
			part, err = h.store.CurrentlyCalled(r.Context(), svc.Code)
			if err != nil {
				break
			}
			called = append(called, part...)
		}
	}
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	completed, err := h.store.RecentlyCompleted(r.Context(), limit)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	if called == nil {
		called = []models.Reservation{}
	}
	if completed == nil {
		completed = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"called":    called,
		"completed": completed,
	})
}

func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, models.Services())
}

func trimRequest(req *reservationRequest) {
	req.Service = strings.ToLower(strings.TrimSpace(req.Service))
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Purpose = strings.TrimSpace(req.Purpose)
	req.NIK = strings.TrimSpace(req.NIK)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
}

func missingRequired(req reservationRequest) (string, bool) {
	switch {
	case req.Service == "":
		return "service", false
	case req.Date == "":
		return "date", false
	case req.TimeSlot == "":
		return "timeSlot", false
	case req.Name == "":
		return "name", false
	case req.Phone == "":
		return "phone", false
	case req.Purpose == "":
		return "purpose", false
	}
	return "", true
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

func isValidPhone(value string) bool {
	if len(value) < 8 || len(value) > 16 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mapError(err error) (int, string, string) {
	var validation *store.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "missing_field", validation.Error()
	case errors.Is(err, store.ErrServiceNotFound):
		return http.StatusBadRequest, "unknown_service", "unknown service code"
	case errors.Is(err, store.ErrPastDate):
		return http.StatusBadRequest, "past_date", "date must not be in the past"
	case errors.Is(err, store.ErrInvalidSlot):
		return http.StatusBadRequest, "invalid_slot", "slot is not available on that day"
	case errors.Is(err, store.ErrSlotPassed):
		return http.StatusBadRequest, "slot_passed", "slot has already passed today, choose a later one"
	case errors.Is(err, store.ErrSlotFull):
		return http.StatusBadRequest, "slot_full", "slot already booked, choose another"
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid_status_transition", "status change is not allowed"
	case errors.Is(err, store.ErrReservationNotFound):
		return http.StatusNotFound, "reservation_not_found", "reservation not found"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
