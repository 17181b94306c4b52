package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mmeshcher/boutique-system/internal/listview"
	"github.com/mmeshcher/boutique-system/internal/model"
)

type clientRequest struct {
	Nom      string `json:"nom"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// CreateClient создаёт клиента.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client := &model.Client{
		Name:     req.Nom,
		Email:    req.Email,
		Username: req.Username,
		Role:     model.Role(req.Role),
	}

	if _, err := h.svc.RegisterClient(r.Context(), client, req.Password); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toClientResponse(client))
}

// GetClient возвращает клиента по идентификатору.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toClientResponse(client))
}

// ListClients возвращает клиентов. Параметры q/sort/page дают
// отфильтрованное постраничное представление.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	params, paged := parseListParams(r)

	var nameFilter listview.Predicate[model.Client]
	if params.query != "" {
		q := strings.ToLower(params.query)
		nameFilter = func(c model.Client) bool {
			return strings.Contains(strings.ToLower(c.Name), q)
		}
	}
	clients = listview.Filter(clients, nameFilter)

	switch params.sort {
	case "nom":
		clients = listview.SortStable(clients, func(a, b model.Client) int {
			return listview.CompareNames(a.Name, b.Name)
		}, params.desc)
	case "totalSpent":
		clients = listview.SortStable(clients, func(a, b model.Client) int {
			return compareInt64(a.TotalSpentCents, b.TotalSpentCents)
		}, params.desc)
	}

	resp := make([]clientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, toClientResponse(&clients[i]))
	}

	if paged {
		h.writeJSON(w, http.StatusOK, toPageResponse(listview.Paginate(resp, params.page, params.perPage)))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateClient обновляет учётные данные клиента.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	current.Name = req.Nom
	current.Email = req.Email
	current.Username = req.Username
	if req.Role != "" {
		current.Role = model.Role(req.Role)
	}

	if err := h.svc.UpdateClient(r.Context(), current); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toClientResponse(current))
}

// DeleteClient удаляет клиента без заказов.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
