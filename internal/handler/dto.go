package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/listview"
	"github.com/mmeshcher/boutique-system/internal/model"
)

// dateLayout — формат дат платежей в JSON.
const dateLayout = "2006-01-02"

type clientResponse struct {
	ID             int64     `json:"id"`
	Nom            string    `json:"nom"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	NiveauFidelite string    `json:"niveauFidelite"`
	TotalOrders    int       `json:"totalOrders"`
	TotalSpent     float64   `json:"totalSpent"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:             c.ID,
		Nom:            c.Name,
		Email:          c.Email,
		Username:       c.Username,
		Role:           string(c.Role),
		NiveauFidelite: string(c.Tier),
		TotalOrders:    c.TotalOrders,
		TotalSpent:     centsToDH(c.TotalSpentCents),
		CreatedAt:      c.CreatedAt,
	}
}

type productResponse struct {
	ID        int64     `json:"id"`
	Nom       string    `json:"nom"`
	Prix      float64   `json:"prix"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Nom:       p.Name,
		Prix:      centsToDH(p.PriceCents),
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type orderItemResponse struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalLine   float64 `json:"totalLine"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	ClientID       int64               `json:"clientId"`
	Status         string              `json:"status"`
	Items          []orderItemResponse `json:"items"`
	SousTotal      float64             `json:"sousTotal"`
	RemiseFidelite float64             `json:"remiseFidelite"`
	RemisePromo    float64             `json:"remisePromo"`
	CodePromo      string              `json:"codePromo,omitempty"`
	MontantHT      float64             `json:"montantHT"`
	TVA            float64             `json:"tva"`
	MontantTTC     float64             `json:"montantTTC"`
	MontantPaye    float64             `json:"montantPaye"`
	MontantRestant float64             `json:"montantRestant"`
	CreatedAt      time.Time           `json:"createdAt"`
	ConfirmedAt    *time.Time          `json:"confirmedAt,omitempty"`
}

// toOrderResponse строит представление заказа. Оплаченная сумма и остаток
// выводятся из книги платежей заказа.
func toOrderResponse(o *model.Order, payments []model.Payment) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   centsToDH(it.UnitPriceCents),
			TotalLine:   centsToDH(it.LineTotalCents),
		})
	}

	return orderResponse{
		ID:             o.ID,
		ClientID:       o.ClientID,
		Status:         string(o.Status),
		Items:          items,
		SousTotal:      centsToDH(o.SubTotalCents),
		RemiseFidelite: centsToDH(o.LoyaltyDiscountCents),
		RemisePromo:    centsToDH(o.PromoDiscountCents),
		CodePromo:      o.PromoCode,
		MontantHT:      centsToDH(o.NetBeforeTaxCents),
		TVA:            centsToDH(o.TaxCents),
		MontantTTC:     centsToDH(o.GrossTotalCents),
		MontantPaye:    centsToDH(ledger.AmountPaid(payments)),
		MontantRestant: centsToDH(ledger.AmountRemaining(o, payments)),
		CreatedAt:      o.CreatedAt,
		ConfirmedAt:    o.ConfirmedAt,
	}
}

type paymentResponse struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"orderId"`
	Numero       int     `json:"numero"`
	Montant      float64 `json:"montant"`
	TypePaiement string  `json:"typePaiement"`
	DatePaiement string  `json:"datePaiement"`
	DateEcheance string  `json:"dateEcheance,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	Banque       string  `json:"banque,omitempty"`
	Status       string  `json:"status"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	resp := paymentResponse{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Numero:       p.Number,
		Montant:      centsToDH(p.AmountCents),
		TypePaiement: string(p.Method),
		DatePaiement: p.PaidAt.Format(dateLayout),
		Reference:    p.Reference,
		Banque:       p.Bank,
		Status:       string(p.Status),
	}
	if p.DueAt != nil {
		resp.DateEcheance = p.DueAt.Format(dateLayout)
	}
	return resp
}

// listParams описывает параметры постраничного представления из строки запроса.
type listParams struct {
	page    int
	perPage int
	sort    string
	desc    bool
	query   string
}

const defaultPerPage = 10

// parseListParams читает page/perPage/sort/order/q. paged истинно, когда
// клиент запросил страничный ответ вместо полного списка.
func parseListParams(r *http.Request) (listParams, bool) {
	q := r.URL.Query()

	p := listParams{
		page:    1,
		perPage: defaultPerPage,
		sort:    q.Get("sort"),
		desc:    q.Get("order") == "desc",
		query:   q.Get("q"),
	}

	paged := false
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.page = n
			paged = true
		}
	}
	if v := q.Get("perPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.perPage = n
			paged = true
		}
	}

	return p, paged
}

type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toPageResponse[T any](pg listview.Page[T]) pageResponse[T] {
	return pageResponse[T]{
		Items:      pg.Items,
		Page:       pg.CurrentPage,
		PerPage:    pg.ItemsPerPage,
		TotalItems: pg.TotalItems,
		TotalPages: pg.TotalPages,
	}
}
