package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/middleware"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/repository"
	"github.com/mmeshcher/boutique-system/internal/service"
	"go.uber.org/zap"
)

// stubService подставляет заранее заданные ответы бизнес-слоя.
type stubService struct {
	clients  map[int64]*model.Client
	products []model.Product
	orders   map[int64]*model.Order
	payments map[int64][]model.Payment

	createdOrderClientID int64
	confirmErr           error
}

func newStubService() *stubService {
	return &stubService{
		clients:  make(map[int64]*model.Client),
		orders:   make(map[int64]*model.Order),
		payments: make(map[int64][]model.Payment),
	}
}

func (s *stubService) RegisterClient(_ context.Context, c *model.Client, _ string) (int64, error) {
	c.ID = int64(len(s.clients) + 1)
	c.Role = model.RoleClient
	c.Tier = model.TierBasic
	s.clients[c.ID] = c
	return c.ID, nil
}

func (s *stubService) Authenticate(_ context.Context, username, password string) (*model.Client, error) {
	for _, c := range s.clients {
		if c.Username == username && password == "secret" {
			return c, nil
		}
	}
	return nil, service.ErrInvalidCredentials
}

func (s *stubService) GetClient(_ context.Context, id int64) (*model.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return c, nil
}

func (s *stubService) ListClients(_ context.Context) ([]model.Client, error) {
	var res []model.Client
	for _, c := range s.clients {
		res = append(res, *c)
	}
	return res, nil
}

func (s *stubService) UpdateClient(_ context.Context, c *model.Client) error {
	if _, ok := s.clients[c.ID]; !ok {
		return repository.ErrClientNotFound
	}
	s.clients[c.ID] = c
	return nil
}

func (s *stubService) DeleteClient(_ context.Context, id int64) error {
	if _, ok := s.clients[id]; !ok {
		return repository.ErrClientNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *stubService) GetProfile(_ context.Context, id int64) (*service.Profile, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return &service.Profile{Client: c, EarnedTier: model.TierBasic}, nil
}

func (s *stubService) CreateProduct(_ context.Context, p *model.Product) (int64, error) {
	p.ID = int64(len(s.products) + 1)
	s.products = append(s.products, *p)
	return p.ID, nil
}

func (s *stubService) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *stubService) ListProducts(_ context.Context) ([]model.Product, error) {
	return s.products, nil
}

func (s *stubService) UpdateProduct(_ context.Context, p *model.Product) error { return nil }
func (s *stubService) DeleteProduct(_ context.Context, id int64) error         { return nil }

func (s *stubService) CreateOrder(_ context.Context, clientID int64, items []service.OrderItemInput, promoCode string) (*model.Order, error) {
	s.createdOrderClientID = clientID
	o := &model.Order{
		ID:       int64(len(s.orders) + 1),
		ClientID: clientID,
		Status:   model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: 1, ProductName: "Produit", Quantity: 2, UnitPriceCents: 10000, LineTotalCents: 20000},
		},
		SubTotalCents:     20000,
		PromoCode:         promoCode,
		PromoEvaluated:    promoCode == "",
		NetBeforeTaxCents: 20000,
		TaxCents:          4000,
		GrossTotalCents:   24000,
		CreatedAt:         time.Now(),
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubService) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubService) ListOrders(_ context.Context) ([]model.Order, error) {
	var res []model.Order
	for _, o := range s.orders {
		res = append(res, *o)
	}
	return res, nil
}

func (s *stubService) ListOrdersByClient(_ context.Context, clientID int64) ([]model.Order, error) {
	var res []model.Order
	for _, o := range s.orders {
		if o.ClientID == clientID {
			res = append(res, *o)
		}
	}
	return res, nil
}

func (s *stubService) ListOrdersByStatus(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	if !status.Valid() {
		return nil, service.ErrUnknownStatus
	}
	return nil, nil
}

func (s *stubService) ConfirmOrder(_ context.Context, id int64) (*model.Order, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = model.OrderStatusConfirmed
	return o, nil
}

func (s *stubService) CancelOrder(_ context.Context, id int64) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = model.OrderStatusCanceled
	return o, nil
}

func (s *stubService) AddPayment(_ context.Context, p *model.Payment) (*model.Payment, error) {
	p.ID = 1
	p.Number = len(s.payments[p.OrderID]) + 1
	p.Status = model.PaymentStatusPending
	s.payments[p.OrderID] = append(s.payments[p.OrderID], *p)
	return p, nil
}

func (s *stubService) GetPayment(_ context.Context, id int64) (*model.Payment, error) {
	for _, list := range s.payments {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (s *stubService) ListPayments(_ context.Context) ([]model.Payment, error) { return nil, nil }

func (s *stubService) ListPaymentsByOrder(_ context.Context, orderID int64) ([]model.Payment, error) {
	return s.payments[orderID], nil
}

func (s *stubService) ClearPayment(_ context.Context, id int64) (*model.Payment, error) {
	return nil, service.ErrPaymentNotPending
}

func (s *stubService) RejectPayment(_ context.Context, id int64) (*model.Payment, error) {
	return nil, service.ErrPaymentNotPending
}

func (s *stubService) GetStats(_ context.Context) (*repository.Stats, error) {
	return &repository.Stats{Clients: 2, Products: 3, RevenueCents: 123456}, nil
}

func newTestRouter(svc *stubService) (http.Handler, *middleware.AuthMiddleware) {
	auth := middleware.NewAuthMiddleware("test-secret")
	h := NewHandler(svc, auth, zap.NewNop())
	return NewRouter(h, zap.NewNop()), auth
}

func authCookie(auth *middleware.AuthMiddleware, userID int64) *http.Cookie {
	rec := httptest.NewRecorder()
	auth.SetAuthCookie(rec, userID)
	return rec.Result().Cookies()[0]
}

func seedStubClient(svc *stubService, id int64, role model.Role) {
	svc.clients[id] = &model.Client{
		ID: id, Name: "Client", Username: "client", Role: role, Tier: model.TierBasic,
	}
}

func TestLogin(t *testing.T) {
	svc := newStubService()
	svc.clients[1] = &model.Client{ID: 1, Name: "Amina", Username: "amina", Role: model.RoleAdmin, Tier: model.TierBasic}
	router, _ := newTestRouter(svc)

	body := bytes.NewBufferString(`{"username":"amina","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("login must set auth_token cookie")
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["nom"] != "Amina" {
		t.Errorf("nom = %v, want Amina", resp["nom"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newStubService()
	svc.clients[1] = &model.Client{ID: 1, Username: "amina", Role: model.RoleClient}
	router, _ := newTestRouter(svc)

	body := bytes.NewBufferString(`{"username":"amina","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if resp.Message == "" {
		t.Error("error envelope must carry a message")
	}
}

func TestAuthRequired(t *testing.T) {
	svc := newStubService()
	router, _ := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleClient)
	router, auth := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.AddCookie(authCookie(auth, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("client on admin route: status = %d, want 403", rec.Code)
	}

	seedStubClient(svc, 2, model.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.AddCookie(authCookie(auth, 2))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("admin on admin route: status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp["revenueFormatted"] != "1 234,56 DH" {
		t.Errorf("revenueFormatted = %v, want 1 234,56 DH", resp["revenueFormatted"])
	}
}

func TestCreateOrderForcesOwnClient(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 7, model.RoleClient)
	router, auth := newTestRouter(svc)

	body := bytes.NewBufferString(`{"clientId":99,"items":[{"productId":1,"quantity":2}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.AddCookie(authCookie(auth, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if svc.createdOrderClientID != 7 {
		t.Errorf("order created for client %d, want caller 7", svc.createdOrderClientID)
	}
}

func TestGetOrderFieldNames(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleAdmin)
	router, auth := newTestRouter(svc)

	order, _ := svc.CreateOrder(context.Background(), 1, nil, "PROMO-AB12")
	svc.payments[order.ID] = []model.Payment{{OrderID: order.ID, AmountCents: 10000}}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.AddCookie(authCookie(auth, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	for _, field := range []string{"sousTotal", "montantHT", "tva", "montantTTC", "montantPaye", "montantRestant", "codePromo"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("order response missing field %q", field)
		}
	}
	if resp["montantPaye"] != 100.0 {
		t.Errorf("montantPaye = %v, want 100", resp["montantPaye"])
	}
	if resp["montantRestant"] != 140.0 {
		t.Errorf("montantRestant = %v, want 140", resp["montantRestant"])
	}
}

func TestGetOrderForbiddenForOtherClient(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleClient)
	router, auth := newTestRouter(svc)

	svc.orders[5] = &model.Order{ID: 5, ClientID: 42, Status: model.OrderStatusPending}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/5", nil)
	req.AddCookie(authCookie(auth, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestConfirmOrderConflict(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleAdmin)
	svc.confirmErr = ledger.ErrUnpaidBalance
	router, auth := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/orders/1/confirm", nil)
	req.AddCookie(authCookie(auth, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestTransitionEndpointsUsePut(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleAdmin)
	router, auth := newTestRouter(svc)

	svc.orders[1] = &model.Order{ID: 1, ClientID: 1, Status: model.OrderStatusPending}
	svc.orders[2] = &model.Order{ID: 2, ClientID: 1, Status: model.OrderStatusPending}
	svc.payments[1] = []model.Payment{{ID: 3, OrderID: 1, AmountCents: 1000, Status: model.PaymentStatusPending}}

	tests := []struct {
		path string
		want int
	}{
		{"/api/orders/1/confirm", http.StatusOK},
		{"/api/orders/2/cancel", http.StatusOK},
		{"/api/payments/3/clear", http.StatusConflict},
		{"/api/payments/3/reject", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.path, nil)
			req.AddCookie(authCookie(auth, 1))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code == http.StatusMethodNotAllowed {
				t.Fatalf("PUT %s answered 405", tt.path)
			}
			if rec.Code != tt.want {
				t.Errorf("PUT %s: status = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestPaymentAccessForOtherClient(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleClient)
	seedStubClient(svc, 2, model.RoleAdmin)
	router, auth := newTestRouter(svc)

	svc.orders[7] = &model.Order{ID: 7, ClientID: 42, Status: model.OrderStatusPending}
	svc.payments[7] = []model.Payment{{ID: 3, OrderID: 7, AmountCents: 5000, Status: model.PaymentStatusPending}}

	paths := []string{"/api/payments/order/7", "/api/payments/3"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(authCookie(auth, 1))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("client GET %s: status = %d, want 403", path, rec.Code)
		}
	}

	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(authCookie(auth, 2))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("admin GET %s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestListProductsPaged(t *testing.T) {
	svc := newStubService()
	seedStubClient(svc, 1, model.RoleClient)
	for i := 1; i <= 23; i++ {
		svc.products = append(svc.products, model.Product{ID: int64(i), Name: "Produit", PriceCents: int64(i) * 100})
	}
	router, auth := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products?page=3&perPage=9", nil)
	req.AddCookie(authCookie(auth, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Items      []productResponse `json:"items"`
		Page       int               `json:"page"`
		TotalPages int               `json:"totalPages"`
		TotalItems int               `json:"totalItems"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if resp.TotalPages != 3 || resp.TotalItems != 23 || resp.Page != 3 {
		t.Errorf("page meta = %d/%d/%d, want page 3 of 3, 23 items", resp.Page, resp.TotalPages, resp.TotalItems)
	}
	if len(resp.Items) != 5 {
		t.Errorf("last page size = %d, want 5", len(resp.Items))
	}
	if resp.Items[0].ID != 19 {
		t.Errorf("first item on page 3 = %d, want 19", resp.Items[0].ID)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	svc := newStubService()
	router, _ := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if resp.Message != "not found" {
		t.Errorf("message = %q, want not found", resp.Message)
	}
}
