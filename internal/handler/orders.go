package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mmeshcher/boutique-system/internal/listview"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/service"
)

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderRequest struct {
	ClientID  int64              `json:"clientId"`
	Items     []orderItemRequest `json:"items"`
	CodePromo string             `json:"codePromo,omitempty"`
}

// CreateOrder оформляет заказ. Не-администратор может оформить заказ
// только на себя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller, err := h.currentClient(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	clientID := req.ClientID
	if caller.Role != model.RoleAdmin {
		clientID = caller.ID
	}
	if clientID == 0 {
		clientID = caller.ID
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.svc.CreateOrder(r.Context(), clientID, items, req.CodePromo)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order, nil))
}

// GetOrder возвращает заказ. Не-администратор видит только свои заказы.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	caller, err := h.currentClient(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if caller.Role != model.RoleAdmin && order.ClientID != caller.ID {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	payments, err := h.svc.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order, payments))
}

// ListOrders возвращает все заказы, новые первыми.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeOrderList(w, r, orders)
}

// ListOrdersByClient возвращает заказы клиента. Не-администратор видит
// только собственные.
func (h *Handler) ListOrdersByClient(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	caller, err := h.currentClient(r)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if caller.Role != model.RoleAdmin && caller.ID != id {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	orders, err := h.svc.ListOrdersByClient(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeOrderList(w, r, orders)
}

// ListOrdersByStatus возвращает заказы в указанном статусе.
func (h *Handler) ListOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(chi.URLParam(r, "status"))

	orders, err := h.svc.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeOrderList(w, r, orders)
}

// writeOrderList отправляет список заказов, при запросе страницы —
// постраничное представление.
func (h *Handler) writeOrderList(w http.ResponseWriter, r *http.Request, orders []model.Order) {
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		payments, err := h.svc.ListPaymentsByOrder(r.Context(), orders[i].ID)
		if err != nil {
			h.handleError(w, err)
			return
		}
		resp = append(resp, toOrderResponse(&orders[i], payments))
	}

	params, paged := parseListParams(r)
	if paged {
		h.writeJSON(w, http.StatusOK, toPageResponse(listview.Paginate(resp, params.page, params.perPage)))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ConfirmOrder подтверждает полностью оплаченный заказ.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.svc.ConfirmOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	payments, err := h.svc.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order, payments))
}

// CancelOrder отменяет заказ и возвращает остатки на склад.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	payments, err := h.svc.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order, payments))
}
