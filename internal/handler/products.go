package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mmeshcher/boutique-system/internal/listview"
	"github.com/mmeshcher/boutique-system/internal/model"
)

type productRequest struct {
	Nom   string  `json:"nom"`
	Prix  float64 `json:"prix"`
	Stock int     `json:"stock"`
}

// CreateProduct создаёт товар каталога.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &model.Product{
		Name:       req.Nom,
		PriceCents: dhToCents(req.Prix),
		Stock:      req.Stock,
	}

	id, err := h.svc.CreateProduct(r.Context(), product)
	if err != nil {
		h.handleError(w, err)
		return
	}
	product.ID = id

	h.writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toProductResponse(product))
}

// ListProducts возвращает каталог. Параметры q/sort/page дают
// отфильтрованное постраничное представление.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	params, paged := parseListParams(r)

	var nameFilter listview.Predicate[model.Product]
	if params.query != "" {
		q := strings.ToLower(params.query)
		nameFilter = func(p model.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), q)
		}
	}
	products = listview.Filter(products, nameFilter)

	switch params.sort {
	case "nom":
		products = listview.SortStable(products, func(a, b model.Product) int {
			return listview.CompareNames(a.Name, b.Name)
		}, params.desc)
	case "prix":
		products = listview.SortStable(products, func(a, b model.Product) int {
			return compareInt64(a.PriceCents, b.PriceCents)
		}, params.desc)
	case "stock":
		products = listview.SortStable(products, func(a, b model.Product) int {
			return a.Stock - b.Stock
		}, params.desc)
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}

	if paged {
		h.writeJSON(w, http.StatusOK, toPageResponse(listview.Paginate(resp, params.page, params.perPage)))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateProduct обновляет товар каталога.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &model.Product{
		ID:         id,
		Name:       req.Nom,
		PriceCents: dhToCents(req.Prix),
		Stock:      req.Stock,
	}

	if err := h.svc.UpdateProduct(r.Context(), product); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct удаляет товар, не входящий в заказы.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
