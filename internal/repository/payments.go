package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/boutique-system/internal/ledger"
	"github.com/mmeshcher/boutique-system/internal/model"
)

const paymentColumns = `id, order_id, number, amount, method, paid_at, due_at, reference, bank, status, created_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Number, &p.AmountCents, &p.Method,
		&p.PaidAt, &p.DueAt, &p.Reference, &p.Bank, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment регистрирует платёж по заказу. Заказ блокируется на время
// транзакции: номер платежа и остаток к оплате проверяются по фактическому
// состоянию книги платежей, а не по данным вызывающего кода.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var status string
		var grossTotal int64
		err = tx.QueryRow(ctx,
			`SELECT status, gross_total FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID,
		).Scan(&status, &grossTotal)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if model.OrderStatus(status) != model.OrderStatusPending {
			return ledger.ErrNotPending
		}
		if p.AmountCents <= 0 {
			return ledger.ErrNonPositiveAmount
		}

		var paid int64
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM payments WHERE order_id = $1`,
			p.OrderID,
		).Scan(&paid, &count); err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}

		if p.AmountCents > grossTotal-paid {
			return ledger.ErrExceedsRemaining
		}

		p.Number = count + 1
		p.Status = model.PaymentStatusPending

		err = tx.QueryRow(ctx,
			`INSERT INTO payments (order_id, number, amount, method, paid_at, due_at, reference, bank, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, created_at`,
			p.OrderID, p.Number, p.AmountCents, string(p.Method), p.PaidAt, p.DueAt,
			p.Reference, p.Bank, string(p.Status),
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetPaymentByID возвращает платёж по идентификатору.
func (r *PostgresRepository) GetPaymentByID(ctx context.Context, id int64) (*model.Payment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// ListPayments возвращает все платежи, новые первыми.
func (r *PostgresRepository) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return r.listPayments(ctx, ``, `created_at DESC`)
}

// ListPaymentsByOrder возвращает платежи заказа по порядку номеров.
func (r *PostgresRepository) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	return r.listPayments(ctx, `WHERE order_id = $1`, `number`, orderID)
}

func (r *PostgresRepository) listPayments(ctx context.Context, where, order string, args ...any) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments `+where+` ORDER BY `+order, args...)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return payments, nil
}

// UpdatePaymentStatus переводит платёж в указанный статус.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Payment, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE payments SET status = $2 WHERE id = $1 RETURNING `+paymentColumns,
		id, string(status),
	)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	return p, nil
}
