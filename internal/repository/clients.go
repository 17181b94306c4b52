package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mmeshcher/boutique-system/internal/model"
)

const clientColumns = `id, name, email, username, password_hash, role, loyalty_tier, total_orders, total_spent, created_at`

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Username, &c.PasswordHash,
		&c.Role, &c.Tier, &c.TotalOrders, &c.TotalSpentCents, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient создаёт нового клиента и возвращает его идентификатор.
func (r *PostgresRepository) CreateClient(ctx context.Context, c *model.Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (name, email, username, password_hash, role, loyalty_tier)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		c.Name, c.Email, c.Username, c.PasswordHash, string(c.Role), string(c.Tier),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUsernameTaken, c.Username)
		}
		return 0, fmt.Errorf("create client: %w", err)
	}
	return id, nil
}

// GetClientByID возвращает клиента по идентификатору.
func (r *PostgresRepository) GetClientByID(ctx context.Context, id int64) (*model.Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// GetClientByUsername возвращает клиента по логину.
func (r *PostgresRepository) GetClientByUsername(ctx context.Context, username string) (*model.Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE username = $1`, username)

	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client by username: %w", err)
	}
	return c, nil
}

// ListClients возвращает всех клиентов в порядке создания.
func (r *PostgresRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return clients, nil
}

// UpdateClient обновляет учётные данные клиента. Агрегаты лояльности
// обновляются только при подтверждении заказов.
func (r *PostgresRepository) UpdateClient(ctx context.Context, c *model.Client) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE clients SET name = $2, email = $3, username = $4, role = $5 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Username, string(c.Role),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, c.Username)
		}
		return fmt.Errorf("update client: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// DeleteClient удаляет клиента без заказов.
func (r *PostgresRepository) DeleteClient(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrClientHasOrders
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
