package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/platform/httpx"
	"github.com/emberbank/emberbank/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	ref, req, ok := h.decodeMoveMoney(w, r)
	if !ok {
		return
	}
	record, err := h.service.Deposit(r.Context(), ref, req.Amount, req.Description)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ref, req, ok := h.decodeMoveMoney(w, r)
	if !ok {
		return
	}
	record, err := h.service.Withdraw(r.Context(), ref, req.Amount, req.Description)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", shared.ErrInvalidAmount.Error())
		return
	}
	ref := accounts.ParseRef(chi.URLParam(r, "ref"))
	record, err := h.service.Transfer(r.Context(), ref, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ref := accounts.ParseRef(chi.URLParam(r, "ref"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

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

	result, err := h.service.GetHistory(r.Context(), ref, page, pageSize, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toHistoryResponse(result))
}

func (h *Handler) decodeMoveMoney(w http.ResponseWriter, r *http.Request) (accounts.Ref, MoveMoneyRequest, bool) {
	var req MoveMoneyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return accounts.Ref{}, req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return accounts.Ref{}, req, false
	}
	if !req.Amount.IsPositive() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", shared.ErrInvalidAmount.Error())
		return accounts.Ref{}, req, false
	}
	return accounts.ParseRef(chi.URLParam(r, "ref")), req, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Account Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidAmount), errors.Is(err, shared.ErrAmountTooLarge),
		errors.Is(err, shared.ErrSameAccountTransfer), errors.Is(err, shared.ErrInvalidDateRange):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, shared.ErrInsufficientBalance):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Balance", err.Error())
	default:
		h.logger.Error("ledger operation failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "the operation could not be completed, retry later")
	}
}

// parseDate accepts RFC3339 timestamps or plain dates.
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
