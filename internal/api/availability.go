package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/logging"
	"github.com/teemow/dealdesk/internal/scheduling"
)

// maxBodyBytes bounds request bodies; inline busy lists are the largest part.
const maxBodyBytes = 1 << 20

type availabilityRequest struct {
	availability.Input
	UserID     string `json:"userId"`
	CalendarID string `json:"calendarId"`
}

func (a *API) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var payload availabilityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		a.errorResponse(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := a.service.CheckAvailability(r.Context(), scheduling.Request{
		Account:    payload.UserID,
		CalendarID: payload.CalendarID,
		Input:      payload.Input,
	})
	if err != nil {
		a.serviceError(w, r, err)
		return
	}

	a.Response(w, http.StatusOK, report)
}

type busyResponse struct {
	CalendarID string                  `json:"calendarId"`
	Start      string                  `json:"start"`
	End        string                  `json:"end"`
	Busy       []availability.BusyView `json:"busy"`
}

func (a *API) busyBlocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		a.errorResponse(w, r, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		a.errorResponse(w, r, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
		return
	}
	if !end.After(start) {
		a.errorResponse(w, r, http.StatusBadRequest, "end must be after start")
		return
	}

	calendarID := q.Get("calendarId")
	if calendarID == "" {
		calendarID = scheduling.DefaultCalendarID
	}

	busy, err := a.service.BusyBlocks(r.Context(), q.Get("userId"), calendarID, start, end)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}

	a.Response(w, http.StatusOK, busyResponse{
		CalendarID: calendarID,
		Start:      start.Format(time.RFC3339),
		End:        end.Format(time.RFC3339),
		Busy:       availability.BusyViews(busy, start.Location()),
	})
}

func (a *API) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, availability.ErrUnknownTimezone):
		a.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrNoBusySource):
		a.errorResponse(w, r, http.StatusUnprocessableEntity, "busyIntervals are required: no calendar source is configured")
	default:
		a.logger.Error("availability request failed",
			logging.RequestID(RequestIDFromContext(r.Context())),
			logging.Err(err))
		a.errorResponse(w, r, http.StatusBadGateway, "failed to read calendar")
	}
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	a.Response(w, http.StatusOK, map[string]string{
		"status": "ok",
		"source": a.service.SourceName(),
	})
}
