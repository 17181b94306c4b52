// Package handler реализует HTTP-слой сервиса boutique.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/middleware"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/repository"
	"github.com/mmeshcher/boutique-system/internal/service"
	"go.uber.org/zap"
)

// Service описывает операции бизнес-слоя, используемые HTTP-обработчиками.
type Service interface {
	RegisterClient(ctx context.Context, c *model.Client, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (*model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeleteClient(ctx context.Context, id int64) error
	GetProfile(ctx context.Context, clientID int64) (*service.Profile, error)

	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, clientID int64, items []service.OrderItemInput, promoCode string) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersByClient(ctx context.Context, clientID int64) ([]model.Order, error)
	ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	ConfirmOrder(ctx context.Context, id int64) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64) (*model.Order, error)

	AddPayment(ctx context.Context, p *model.Payment) (*model.Payment, error)
	GetPayment(ctx context.Context, id int64) (*model.Payment, error)
	ListPayments(ctx context.Context) ([]model.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
	ClearPayment(ctx context.Context, id int64) (*model.Payment, error)
	RejectPayment(ctx context.Context, id int64) (*model.Payment, error)

	GetStats(ctx context.Context) (*repository.Stats, error)
}

// Handler обрабатывает HTTP-запросы сервиса boutique.
type Handler struct {
	svc    Service
	auth   *middleware.AuthMiddleware
	logger *zap.Logger
}

// NewHandler создаёт обработчик HTTP-запросов.
func NewHandler(svc Service, auth *middleware.AuthMiddleware, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		auth:   auth,
		logger: logger,
	}
}

// errAccessDenied возвращается при обращении к чужим данным без роли ADMIN.
var errAccessDenied = errors.New("access denied")

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Message: message})
}

// handleError переводит ошибки нижних слоёв в HTTP-статусы.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errAccessDenied):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ledger.ErrDueDateRequired),
		errors.Is(err, ledger.ErrInvalidMethod):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidPromoCode),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, ledger.ErrExceedsRemaining):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrPaymentNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case ledger.IsTransitionError(err),
		errors.Is(err, service.ErrPaymentNotPending),
		errors.Is(err, repository.ErrUsernameTaken),
		errors.Is(err, repository.ErrClientHasOrders),
		errors.Is(err, repository.ErrProductInUse):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// currentClient возвращает аутентифицированного клиента запроса.
func (h *Handler) currentClient(r *http.Request) (*model.Client, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil, errors.New("no authenticated user in context")
	}
	return h.svc.GetClient(r.Context(), userID)
}

// checkOrderAccess проверяет право текущего пользователя на данные заказа:
// администратору доступны все заказы, клиенту — только собственные.
func (h *Handler) checkOrderAccess(r *http.Request, orderID int64) error {
	caller, err := h.currentClient(r)
	if err != nil {
		return err
	}
	if caller.Role == model.RoleAdmin {
		return nil
	}

	order, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		return err
	}
	if order.ClientID != caller.ID {
		return errAccessDenied
	}
	return nil
}

// centsToDH переводит сантимы в дирхамы для JSON-представления.
func centsToDH(cents int64) float64 {
	return float64(cents) / 100
}

// dhToCents переводит сумму в дирхамах в сантимы.
func dhToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
