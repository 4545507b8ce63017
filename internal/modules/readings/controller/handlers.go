package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"airwatch-server/internal/modules/readings/service"
	"airwatch-server/internal/modules/readings/types"
	"airwatch-server/internal/utils"
)

func (c *readingController) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload types.ReadingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	stored, err := c.service.Ingest(payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Debug("reading accepted", "id", stored.ID)
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (c *readingController) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := c.service.Latest()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, latest)
}

func (c *readingController) handlePage(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)

	result, err := c.service.Page(page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, pageResponse{
		Data: result.Data,
		Pagination: pagination{
			Page:  result.Page,
			Limit: result.Limit,
			Total: result.Total,
			Pages: result.Pages,
		},
	})
}

func (c *readingController) handleRange(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRangeQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := c.service.Range(start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if readings == nil {
		readings = []types.Reading{}
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

type pageResponse struct {
	Data       []types.Reading `json:"data"`
	Pagination pagination      `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		slog.Error("reading store unavailable", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "reading store unavailable")
	default:
		slog.Error("request failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
