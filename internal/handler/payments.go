package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mmeshcher/boutique-system/internal/format"
	"github.com/mmeshcher/boutique-system/internal/listview"
	"github.com/mmeshcher/boutique-system/internal/model"
)

type paymentRequest struct {
	OrderID      int64   `json:"orderId"`
	Montant      float64 `json:"montant"`
	TypePaiement string  `json:"typePaiement"`
	DatePaiement string  `json:"datePaiement,omitempty"`
	DateEcheance string  `json:"dateEcheance,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	Banque       string  `json:"banque,omitempty"`
}

// CreatePayment регистрирует платёж по заказу.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment := &model.Payment{
		OrderID:     req.OrderID,
		AmountCents: dhToCents(req.Montant),
		Method:      model.PaymentMethod(req.TypePaiement),
		Reference:   req.Reference,
		Bank:        req.Banque,
	}

	if req.DatePaiement != "" {
		t, err := time.Parse(dateLayout, req.DatePaiement)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid datePaiement")
			return
		}
		payment.PaidAt = t
	}
	if req.DateEcheance != "" {
		t, err := time.Parse(dateLayout, req.DateEcheance)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid dateEcheance")
			return
		}
		payment.DueAt = &t
	}

	created, err := h.svc.AddPayment(r.Context(), payment)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toPaymentResponse(created))
}

// GetPayment возвращает платёж. Не-администратор видит только платежи
// по собственным заказам.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if err := h.checkOrderAccess(r, payment.OrderID); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

// ListPayments возвращает все платежи, при запросе страницы —
// постраничное представление.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.ListPayments(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	params, paged := parseListParams(r)

	if params.sort == "montant" {
		payments = listview.SortStable(payments, func(a, b model.Payment) int {
			return compareInt64(a.AmountCents, b.AmountCents)
		}, params.desc)
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}

	if paged {
		h.writeJSON(w, http.StatusOK, toPageResponse(listview.Paginate(resp, params.page, params.perPage)))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ListPaymentsByOrder возвращает платежи заказа по порядку номеров.
// Не-администратор видит только платежи по собственным заказам.
func (h *Handler) ListPaymentsByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.checkOrderAccess(r, id); err != nil {
		h.handleError(w, err)
		return
	}

	payments, err := h.svc.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ClearPayment помечает ожидающий платёж как проведённый.
func (h *Handler) ClearPayment(w http.ResponseWriter, r *http.Request) {
	h.setPaymentStatus(w, r, h.svc.ClearPayment)
}

// RejectPayment помечает ожидающий платёж как отклонённый.
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.setPaymentStatus(w, r, h.svc.RejectPayment)
}

func (h *Handler) setPaymentStatus(w http.ResponseWriter, r *http.Request,
	update func(ctx context.Context, id int64) (*model.Payment, error)) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := update(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

type statsResponse struct {
	Clients          int     `json:"clients"`
	Products         int     `json:"products"`
	PendingOrders    int     `json:"pendingOrders"`
	ConfirmedOrders  int     `json:"confirmedOrders"`
	CanceledOrders   int     `json:"canceledOrders"`
	Revenue          float64 `json:"revenue"`
	RevenueFormatted string  `json:"revenueFormatted"`
	PendingPayments  int     `json:"pendingPayments"`
}

// GetStats возвращает сводку для панели администратора.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, statsResponse{
		Clients:          stats.Clients,
		Products:         stats.Products,
		PendingOrders:    stats.PendingOrders,
		ConfirmedOrders:  stats.ConfirmedOrders,
		CanceledOrders:   stats.CanceledOrders,
		Revenue:          centsToDH(stats.RevenueCents),
		RevenueFormatted: format.Currency(stats.RevenueCents),
		PendingPayments:  stats.PendingPayments,
	})
}
