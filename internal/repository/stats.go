package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/boutique-system/internal/model"
)

// Stats агрегирует сводные показатели для панели администратора.
type Stats struct {
	Clients         int
	Products        int
	PendingOrders   int
	ConfirmedOrders int
	CanceledOrders  int
	RevenueCents    int64
	PendingPayments int
}

// GetStats возвращает сводку по клиентам, заказам и платежам.
func (r *PostgresRepository) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders WHERE status = $1),
			(SELECT COUNT(*) FROM orders WHERE status = $2),
			(SELECT COUNT(*) FROM orders WHERE status = $3),
			(SELECT COALESCE(SUM(gross_total), 0) FROM orders WHERE status = $2),
			(SELECT COUNT(*) FROM payments WHERE status = $4)`,
		string(model.OrderStatusPending),
		string(model.OrderStatusConfirmed),
		string(model.OrderStatusCanceled),
		string(model.PaymentStatusPending),
	).Scan(&s.Clients, &s.Products, &s.PendingOrders, &s.ConfirmedOrders,
		&s.CanceledOrders, &s.RevenueCents, &s.PendingPayments)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	return &s, nil
}
