package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/middleware"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/pricing"
	"github.com/mmeshcher/boutique-system/internal/validation"
	"go.uber.org/zap"
)

// OrderItemInput описывает позицию создаваемого заказа.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrder оформляет заказ: цены берутся из каталога на момент создания,
// скидка лояльности по сохранённому уровню клиента. Промокод, если задан,
// проверяется синтаксически и ждёт оценки промо-системой со скидкой 0.
func (s *Service) CreateOrder(ctx context.Context, clientID int64, items []OrderItemInput, promoCode string) (*model.Order, error) {
	order, err := s.createOrder(ctx, clientID, items, promoCode)
	middleware.RecordOrderOperation("create", err == nil)
	return order, err
}

func (s *Service) createOrder(ctx context.Context, clientID int64, items []OrderItemInput, promoCode string) (*model.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, pricing.ErrEmptyOrder)
	}
	if promoCode != "" && !validation.IsValidPromoCode(promoCode) {
		return nil, ErrInvalidPromoCode
	}

	client, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(items))
	orderItems := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrValidation, pricing.ErrInvalidQuantity)
		}

		product, err := s.repo.GetProductByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}

		line := pricing.Line{UnitPriceCents: product.PriceCents, Quantity: it.Quantity}
		lines = append(lines, line)
		orderItems = append(orderItems, model.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: pricing.LineTotal(line),
		})
	}

	totals, err := pricing.ComputeTotals(lines, client.Tier, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	order := &model.Order{
		ClientID:             clientID,
		Status:               model.OrderStatusPending,
		Items:                orderItems,
		SubTotalCents:        totals.SubTotalCents,
		LoyaltyDiscountCents: totals.LoyaltyDiscountCents,
		PromoDiscountCents:   totals.PromoDiscountCents,
		PromoCode:            promoCode,
		PromoEvaluated:       promoCode == "",
		NetBeforeTaxCents:    totals.NetBeforeTaxCents,
		TaxCents:             totals.TaxCents,
		GrossTotalCents:      totals.GrossTotalCents,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("client_id", clientID),
		zap.Int64("gross_total", order.GrossTotalCents))

	return order, nil
}

// GetOrder возвращает заказ с позициями.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// ListOrdersByClient возвращает заказы клиента.
func (s *Service) ListOrdersByClient(ctx context.Context, clientID int64) ([]model.Order, error) {
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByClient(ctx, clientID)
}

// ListOrdersByStatus возвращает заказы в указанном статусе.
func (s *Service) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return s.repo.ListOrdersByStatus(ctx, status)
}

// ConfirmOrder подтверждает полностью оплаченный заказ. Проверка условий
// повторяется в транзакции хранилища, здесь она даёт раннюю ошибку
// без захвата блокировок.
func (s *Service) ConfirmOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.confirmOrder(ctx, id)
	middleware.RecordOrderOperation("confirm", err == nil)
	return order, err
}

func (s *Service) confirmOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPaymentsByOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ledger.CanConfirm(order, payments); err != nil {
		return nil, err
	}

	confirmed, err := s.repo.ConfirmOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order confirmed", zap.Int64("order_id", id))
	return confirmed, nil
}

// CancelOrder отменяет заказ и возвращает остатки на склад.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.cancelOrder(ctx, id)
	middleware.RecordOrderOperation("cancel", err == nil)
	return order, err
}

func (s *Service) cancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ledger.CanCancel(order); err != nil {
		return nil, err
	}

	canceled, err := s.repo.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order canceled", zap.Int64("order_id", id))
	return canceled, nil
}

// AddPayment регистрирует платёж по заказу. Условия книги платежей
// проверяются до обращения к хранилищу и повторно в его транзакции.
func (s *Service) AddPayment(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	order, err := s.repo.GetOrderByID(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPaymentsByOrder(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}

	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}

	if err := ledger.CheckPayment(order, payments, p); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("payment added",
		zap.Int64("order_id", p.OrderID),
		zap.Int("number", p.Number),
		zap.Int64("amount", p.AmountCents))

	return p, nil
}

// GetPayment возвращает платёж по идентификатору.
func (s *Service) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	return s.repo.GetPaymentByID(ctx, id)
}

// ListPayments возвращает все платежи.
func (s *Service) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return s.repo.ListPayments(ctx)
}

// ListPaymentsByOrder возвращает платежи заказа по порядку номеров.
func (s *Service) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	if _, err := s.repo.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentsByOrder(ctx, orderID)
}

// ClearPayment помечает ожидающий платёж как проведённый.
func (s *Service) ClearPayment(ctx context.Context, id int64) (*model.Payment, error) {
	return s.setPaymentStatus(ctx, id, model.PaymentStatusCleared)
}

// RejectPayment помечает ожидающий платёж как отклонённый.
// Сумма платежа продолжает учитываться в книге платежей заказа.
func (s *Service) RejectPayment(ctx context.Context, id int64) (*model.Payment, error) {
	return s.setPaymentStatus(ctx, id, model.PaymentStatusRejected)
}

func (s *Service) setPaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Payment, error) {
	p, err := s.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}
	return s.repo.UpdatePaymentStatus(ctx, id, status)
}
