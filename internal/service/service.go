// Package service реализует бизнес-логику сервиса boutique.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/boutique-system/internal/loyalty"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/mmeshcher/boutique-system/internal/promo"
	"github.com/mmeshcher/boutique-system/internal/repository"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре логин-пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation помечает ошибки валидации входных данных.
	ErrValidation = errors.New("validation error")
	// ErrInvalidPromoCode возвращается для промокода с неверным синтаксисом.
	ErrInvalidPromoCode = errors.New("promo code has invalid format")
	// ErrUnknownStatus возвращается для неизвестного статуса заказа в запросе.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrPaymentNotPending возвращается при смене статуса уже обработанного платежа.
	ErrPaymentNotPending = errors.New("payment is not pending")
)

// Repository описывает хранилище данных, используемое сервисом.
type Repository interface {
	CreateClient(ctx context.Context, c *model.Client) (int64, error)
	GetClientByID(ctx context.Context, id int64) (*model.Client, error)
	GetClientByUsername(ctx context.Context, username string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeleteClient(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersByClient(ctx context.Context, clientID int64) ([]model.Order, error)
	ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	ConfirmOrder(ctx context.Context, id int64) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64) (*model.Order, error)
	GetOrdersForPromo(ctx context.Context, limit int) ([]repository.OrderForPromo, error)
	UpdateOrderPromo(ctx context.Context, id int64, promoDiscountCents int64) error

	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPaymentByID(ctx context.Context, id int64) (*model.Payment, error)
	ListPayments(ctx context.Context) ([]model.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Payment, error)

	GetStats(ctx context.Context) (*repository.Stats, error)
}

// PromoClient описывает клиента промо-системы.
type PromoClient interface {
	GetCodeDiscount(ctx context.Context, code string, subTotal float64) (*promo.CodeDiscount, int, time.Duration, error)
}

// Service реализует операции над клиентами, каталогом, заказами и платежами.
type Service struct {
	repo   Repository
	promo  PromoClient
	logger *zap.Logger
}

// NewService создаёт сервис. promo может быть nil, тогда промокоды
// остаются неоценёнными до перезапуска с настроенной промо-системой.
func NewService(repo Repository, promo PromoClient, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		promo:  promo,
		logger: logger,
	}
}

// hashPassword вычисляет хеш пароля, привязанный к логину.
func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// RegisterClient создаёт клиента с хешированным паролем.
func (s *Service) RegisterClient(ctx context.Context, c *model.Client, password string) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Username = strings.TrimSpace(c.Username)

	if c.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if c.Username == "" {
		return 0, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return 0, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if c.Role == "" {
		c.Role = model.RoleClient
	}
	if c.Tier == "" {
		c.Tier = model.TierBasic
	}
	if !c.Tier.Valid() {
		return 0, fmt.Errorf("%w: unknown loyalty tier %q", ErrValidation, c.Tier)
	}

	c.PasswordHash = hashPassword(c.Username, password)

	id, err := s.repo.CreateClient(ctx, c)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// Authenticate проверяет пару логин-пароль и возвращает клиента.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.Client, error) {
	c, err := s.repo.GetClientByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hmac.Equal(c.PasswordHash, hashPassword(username, password)) {
		return nil, ErrInvalidCredentials
	}

	return c, nil
}

// GetClient возвращает клиента по идентификатору.
func (s *Service) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	return s.repo.GetClientByID(ctx, id)
}

// ListClients возвращает всех клиентов.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.repo.ListClients(ctx)
}

// UpdateClient обновляет учётные данные клиента.
func (s *Service) UpdateClient(ctx context.Context, c *model.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Username = strings.TrimSpace(c.Username)

	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if c.Role != model.RoleAdmin && c.Role != model.RoleClient {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, c.Role)
	}

	return s.repo.UpdateClient(ctx, c)
}

// DeleteClient удаляет клиента без заказов.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.repo.DeleteClient(ctx, id)
}

// Profile описывает профиль клиента со справочным уровнем лояльности,
// рассчитанным по истории покупок.
type Profile struct {
	Client        *model.Client
	EarnedTier    model.LoyaltyTier
	LoyaltyPolicy loyalty.TierPolicy
}

// GetProfile возвращает профиль клиента. Сохранённый уровень остаётся
// авторитетным, рассчитанный по истории показывается справочно.
func (s *Service) GetProfile(ctx context.Context, clientID int64) (*Profile, error) {
	c, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Client:        c,
		EarnedTier:    loyalty.TierFromHistory(c.TotalOrders, c.TotalSpentCents),
		LoyaltyPolicy: loyalty.PolicyFor(c.Tier),
	}, nil
}

// CreateProduct создаёт товар каталога.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	if err := validateProduct(p); err != nil {
		return 0, err
	}
	return s.repo.CreateProduct(ctx, p)
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct обновляет товар каталога.
func (s *Service) UpdateProduct(ctx context.Context, p *model.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар, не входящий в заказы.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: product price must be non-negative", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock must be non-negative", ErrValidation)
	}
	return nil
}

// GetStats возвращает сводные показатели для панели администратора.
func (s *Service) GetStats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.GetStats(ctx)
}
