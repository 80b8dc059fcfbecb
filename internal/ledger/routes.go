package ledger

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{ref}/deposit", h.Deposit)
	r.Post("/{ref}/withdraw", h.Withdraw)
	r.Post("/{ref}/transfer", h.Transfer)
	r.Get("/{ref}/transactions", h.History)
}
