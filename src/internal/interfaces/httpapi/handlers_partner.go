package httpapi

import (
	"net/http"
	"time"

	partnerapp "github.com/fortyseven/affiliate_ledger/src/internal/application/partner"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createPartnerRequest struct {
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	UserRef          string           `json:"user_ref"`
	PayoutAccountRef string           `json:"payout_account_ref"`
	FirstSaleRate    *decimal.Decimal `json:"first_sale_rate"`
	RecurringRate    *decimal.Decimal `json:"recurring_rate"`
	ShopRate         *decimal.Decimal `json:"shop_commission_rate"`
	CommissionType   string           `json:"commission_type"`
}

type recordCommissionRequest struct {
	Type       string          `json:"type"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	LeadRef    string          `json:"lead_ref"`
	EventRef   string          `json:"event_ref"`
}

type voidCommissionRequest struct {
	Reason string `json:"reason"`
}

type createPayoutRequest struct {
	CommissionIDs []string `json:"commission_ids"`
	AllPending    bool     `json:"all_pending"`
}

type markPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.CreatePartner.Execute(r.Context(), partnerapp.CreatePartnerCommand{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		UserRef:          req.UserRef,
		PayoutAccountRef: req.PayoutAccountRef,
		FirstSaleRate:    req.FirstSaleRate,
		RecurringRate:    req.RecurringRate,
		ShopRate:         req.ShopRate,
		CommissionType:   req.CommissionType,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getPartner(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.GetPartner.Execute(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getEarnings(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.GetEarnings.Execute(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listPendingCommissions(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.ListPending.Execute(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.ListPayouts.Execute(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) recordCommission(w http.ResponseWriter, r *http.Request) {
	var req recordCommissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.RecordCommission.Execute(r.Context(), partnerapp.RecordCommissionCommand{
		PartnerID:  chi.URLParam(r, "partnerID"),
		Type:       req.Type,
		BaseAmount: req.BaseAmount,
		LeadRef:    req.LeadRef,
		EventRef:   req.EventRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeSuccess(w, status, res)
}

func (h *Handler) voidCommission(w http.ResponseWriter, r *http.Request) {
	var req voidCommissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.VoidCommission.Execute(r.Context(), partnerapp.VoidCommissionCommand{
		CommissionID: chi.URLParam(r, "commissionID"),
		Reason:       req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) createPayout(w http.ResponseWriter, r *http.Request) {
	var req createPayoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	res, err := h.services.CreatePayout.Execute(r.Context(), partnerapp.CreatePayoutCommand{
		PartnerID:     chi.URLParam(r, "partnerID"),
		CommissionIDs: req.CommissionIDs,
		AllPending:    req.AllPending,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	cmd := partnerapp.MarkPayoutPaidCommand{PayoutID: chi.URLParam(r, "payoutID")}
	if req.PaidAt != nil {
		cmd.PaidAt = *req.PaidAt
	}
	res, err := h.services.MarkPaid.Execute(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) settlePayout(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.SettlePayout.Execute(r.Context(), partnerapp.SettlePayoutCommand{
		PayoutID: chi.URLParam(r, "payoutID"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
