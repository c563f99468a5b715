package httpapi

import (
	"net/http"
	"strconv"

	affiliateapp "github.com/fortyseven/affiliate_ledger/src/internal/application/affiliate"
	"github.com/go-chi/chi/v5"
)

type createAccountRequest struct {
	ExternalUserID string `json:"external_user_id"`
	UserRef        string `json:"user_ref"`
}

type pointsRequest struct {
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
	EventRef string `json:"event_ref"`
}

type customCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.CreateAccount.Execute(r.Context(), affiliateapp.CreateAccountCommand{
		ExternalUserID: req.ExternalUserID,
		UserRef:        req.UserRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeSuccess(w, status, res.Account)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.GetStats.Execute(r.Context(), affiliateapp.GetStatsQuery{AccountID: chi.URLParam(r, "accountID")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getStatsByExternal(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.GetStats.Execute(r.Context(), affiliateapp.GetStatsQuery{ExternalUserID: chi.URLParam(r, "externalUserID")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) findByCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.FindByCode.Execute(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	seq, err := h.services.ListTransactions.Execute(r.Context(), affiliateapp.ListTransactionsQuery{
		AccountID: chi.URLParam(r, "accountID"),
		Limit:     limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := affiliateapp.Collect(seq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}

func (h *Handler) earnPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.EarnPoints.Execute(r.Context(), affiliateapp.EarnPointsCommand{
		AccountID: chi.URLParam(r, "accountID"),
		Amount:    req.Amount,
		Category:  req.Category,
		Reason:    req.Reason,
		EventRef:  req.EventRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, ledgerStatus(res), res)
}

func (h *Handler) redeemPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.RedeemPoints.Execute(r.Context(), affiliateapp.RedeemPointsCommand{
		AccountID: chi.URLParam(r, "accountID"),
		Amount:    req.Amount,
		Reason:    req.Reason,
		EventRef:  req.EventRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, ledgerStatus(res), res)
}

// ledgerStatus answers a replayed event reference with 200 instead of 201.
func ledgerStatus(res *affiliateapp.LedgerResult) int {
	if res.Duplicate {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (h *Handler) setCustomCode(w http.ResponseWriter, r *http.Request) {
	var req customCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.SetCustomCode.Execute(r.Context(), affiliateapp.SetCustomCodeCommand{
		AccountID: chi.URLParam(r, "accountID"),
		Code:      req.Code,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) reconcileAccount(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.Reconcile.ReconcileAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
