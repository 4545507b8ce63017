package controller

import (
	"net/http"
	"time"

	"airwatch-server/internal/modules/readings/types"
)

// ReadingService is what the handlers need from the service layer.
type ReadingService interface {
	Ingest(p types.ReadingPayload) (types.Reading, error)
	Latest() (types.Reading, error)
	Page(page int, limit int) (types.Page, error)
	Range(start time.Time, end time.Time) ([]types.Reading, error)
}

type readingController struct {
	service ReadingService
}

func NewController(service ReadingService) *readingController {
	return &readingController{service: service}
}

func (c *readingController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /readings", c.handleIngest)
	mux.HandleFunc("GET /readings", c.handlePage)
	mux.HandleFunc("GET /readings/latest", c.handleLatest)
	mux.HandleFunc("GET /readings/range", c.handleRange)
}
