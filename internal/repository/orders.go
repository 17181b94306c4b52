package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/loyalty"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/pricing"
)

const orderColumns = `id, client_id, status, sub_total, loyalty_discount, promo_discount,
	promo_code, promo_evaluated, net_before_tax, tax, gross_total, created_at, confirmed_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.ClientID, &o.Status, &o.SubTotalCents, &o.LoyaltyDiscountCents,
		&o.PromoDiscountCents, &o.PromoCode, &o.PromoEvaluated, &o.NetBeforeTaxCents,
		&o.TaxCents, &o.GrossTotalCents, &o.CreatedAt, &o.ConfirmedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder сохраняет заказ с позициями, списывая остатки товаров
// в той же транзакции. Стоимостная разбивка должна быть посчитана заранее,
// цены позиций — снимок на момент создания.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`INSERT INTO orders (client_id, status, sub_total, loyalty_discount, promo_discount,
			                     promo_code, promo_evaluated, net_before_tax, tax, gross_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id, created_at`,
			o.ClientID, string(o.Status), o.SubTotalCents, o.LoyaltyDiscountCents,
			o.PromoDiscountCents, o.PromoCode, o.PromoEvaluated,
			o.NetBeforeTaxCents, o.TaxCents, o.GrossTotalCents,
		).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range o.Items {
			// списание с проверкой остатка одним запросом
			cmdTag, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2, updated_at = now()
				 WHERE id = $1 AND stock >= $2`,
				item.ProductID, item.Quantity,
			)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				var exists bool
				if err := tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`,
					item.ProductID,
				).Scan(&exists); err != nil {
					return fmt.Errorf("check product: %w", err)
				}
				if !exists {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
				}
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, item.ProductID)
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				o.ID, item.ProductID, item.ProductName, item.Quantity,
				item.UnitPriceCents, item.LineTotalCents,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetOrderByID возвращает заказ с позициями.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *PostgresRepository) orderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, quantity, unit_price, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPriceCents, &it.LineTotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) listOrders(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		items, err := r.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// ListOrders возвращает все заказы, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	return r.listOrders(ctx, ``)
}

// ListOrdersByClient возвращает заказы клиента.
func (r *PostgresRepository) ListOrdersByClient(ctx context.Context, clientID int64) ([]model.Order, error) {
	return r.listOrders(ctx, `WHERE client_id = $1`, clientID)
}

// ListOrdersByStatus возвращает заказы в указанном статусе.
func (r *PostgresRepository) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return r.listOrders(ctx, `WHERE status = $1`, string(status))
}

// ConfirmOrder подтверждает полностью оплаченный заказ. В одной транзакции
// проверяются статус и остаток, выставляется время подтверждения и
// обновляются агрегаты лояльности клиента вместе с его уровнем.
func (r *PostgresRepository) ConfirmOrder(ctx context.Context, id int64) (*model.Order, error) {
	var confirmed *model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		o, err := scanOrder(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if o.Status != model.OrderStatusPending {
			return ledger.ErrNotPending
		}

		var paid int64
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, id,
		).Scan(&paid); err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		if paid < o.GrossTotalCents {
			return ledger.ErrUnpaidBalance
		}

		now := time.Now()
		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2, confirmed_at = $3 WHERE id = $1`,
			id, string(model.OrderStatusConfirmed), now,
		); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		var totalOrders int
		var totalSpent int64
		if err := tx.QueryRow(ctx,
			`UPDATE clients SET total_orders = total_orders + 1, total_spent = total_spent + $2
			 WHERE id = $1
			 RETURNING total_orders, total_spent`,
			o.ClientID, o.GrossTotalCents,
		).Scan(&totalOrders, &totalSpent); err != nil {
			return fmt.Errorf("update client aggregates: %w", err)
		}

		tier := loyalty.TierFromHistory(totalOrders, totalSpent)
		if _, err := tx.Exec(ctx,
			`UPDATE clients SET loyalty_tier = $2 WHERE id = $1`,
			o.ClientID, string(tier),
		); err != nil {
			return fmt.Errorf("update client tier: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		o.Status = model.OrderStatusConfirmed
		o.ConfirmedAt = &now
		confirmed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	items, err := r.orderItems(ctx, confirmed.ID)
	if err != nil {
		return nil, err
	}
	confirmed.Items = items

	return confirmed, nil
}

// CancelOrder отменяет заказ в статусе PENDING и возвращает
// зарезервированные остатки на склад.
func (r *PostgresRepository) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	var canceled *model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		o, err := scanOrder(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if o.Status != model.OrderStatusPending {
			return ledger.ErrNotPending
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products p SET stock = p.stock + oi.quantity, updated_at = now()
			 FROM order_items oi
			 WHERE oi.order_id = $1 AND oi.product_id = p.id`,
			id,
		); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`,
			id, string(model.OrderStatusCanceled),
		); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		o.Status = model.OrderStatusCanceled
		canceled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	items, err := r.orderItems(ctx, canceled.ID)
	if err != nil {
		return nil, err
	}
	canceled.Items = items

	return canceled, nil
}

// OrderForPromo описывает заказ, ожидающий оценки промокода.
type OrderForPromo struct {
	ID            int64
	PromoCode     string
	SubTotalCents int64
}

// GetOrdersForPromo возвращает заказы с непроверенными промокодами.
func (r *PostgresRepository) GetOrdersForPromo(ctx context.Context, limit int) ([]OrderForPromo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, promo_code, sub_total
		 FROM orders
		 WHERE promo_code <> '' AND NOT promo_evaluated AND status = $1
		 ORDER BY created_at
		 LIMIT $2`,
		string(model.OrderStatusPending), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders for promo: %w", err)
	}
	defer rows.Close()

	var res []OrderForPromo
	for rows.Next() {
		var o OrderForPromo
		if err := rows.Scan(&o.ID, &o.PromoCode, &o.SubTotalCents); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateOrderPromo применяет подтверждённую промо-скидку и пересчитывает
// производные суммы заказа.
func (r *PostgresRepository) UpdateOrderPromo(ctx context.Context, id int64, promoDiscountCents int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var subTotal, loyaltyDiscount int64
		var status string
		err = tx.QueryRow(ctx,
			`SELECT sub_total, loyalty_discount, status FROM orders WHERE id = $1 FOR UPDATE`, id,
		).Scan(&subTotal, &loyaltyDiscount, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		// скидка применима только пока заказ не перешёл в конечное состояние
		if model.OrderStatus(status) != model.OrderStatusPending {
			promoDiscountCents = 0
		}

		t := pricing.FromBreakdown(subTotal, loyaltyDiscount, promoDiscountCents)

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET promo_discount = $2, promo_evaluated = TRUE,
			        net_before_tax = $3, tax = $4, gross_total = $5
			 WHERE id = $1`,
			id, t.PromoDiscountCents, t.NetBeforeTaxCents, t.TaxCents, t.GrossTotalCents,
		); err != nil {
			return fmt.Errorf("update order promo: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}
