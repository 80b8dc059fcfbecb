package export

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/platform/httpx"
	"github.com/emberbank/emberbank/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{ref}/transactions/export", h.Export)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatCSV
	}

	from, err := parseDate(r.URL.Query().Get("fromDate"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "fromDate must be RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("toDate"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "toDate must be RFC3339 or YYYY-MM-DD")
		return
	}

	ref := accounts.ParseRef(chi.URLParam(r, "ref"))
	result, err := h.service.Export(r.Context(), ref, from, to, format)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Blob(w, result.ContentType, result.FileName, result.Bytes)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Account Not Found", err.Error())
	case errors.Is(err, shared.ErrNoData):
		// Empty statement, not a failure.
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, shared.ErrInvalidDateRange), errors.Is(err, ErrUnknownFormat):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error("statement export failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Export Failed", "the statement could not be generated, retry later")
	}
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
