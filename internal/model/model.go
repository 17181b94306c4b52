// Package model содержит доменные сущности сервиса boutique.
package model

import "time"

// Role определяет роль пользователя системы.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// LoyaltyTier описывает уровень программы лояльности клиента.
type LoyaltyTier string

const (
	TierBasic    LoyaltyTier = "BASIC"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
)

// Valid сообщает, является ли значение известным уровнем лояльности.
func (t LoyaltyTier) Valid() bool {
	switch t {
	case TierBasic, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Client представляет клиента магазина. Денежные агрегаты хранятся в сантимах.
type Client struct {
	ID              int64
	Name            string
	Email           string
	Username        string
	PasswordHash    []byte
	Role            Role
	Tier            LoyaltyTier
	TotalOrders     int
	TotalSpentCents int64
	CreatedAt       time.Time
}

// Product представляет товар каталога. Цена хранится в сантимах.
type Product struct {
	ID         int64
	Name       string
	PriceCents int64
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// Valid сообщает, является ли значение известным статусом заказа.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

// OrderItem описывает позицию заказа со снимком цены на момент создания.
type OrderItem struct {
	ProductID      int64
	ProductName    string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
}

// Order описывает заказ клиента и его стоимостную разбивку в сантимах.
type Order struct {
	ID                   int64
	ClientID             int64
	Status               OrderStatus
	Items                []OrderItem
	SubTotalCents        int64
	LoyaltyDiscountCents int64
	PromoDiscountCents   int64
	PromoCode            string
	PromoEvaluated       bool
	NetBeforeTaxCents    int64
	TaxCents             int64
	GrossTotalCents      int64
	CreatedAt            time.Time
	ConfirmedAt          *time.Time
}

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCheck    PaymentMethod = "CHECK"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// Valid сообщает, является ли значение известным способом оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentTransfer:
		return true
	}
	return false
}

// PaymentStatus описывает статус платежа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCleared  PaymentStatus = "CLEARED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

// Payment описывает платёж по заказу. Сумма хранится в сантимах.
type Payment struct {
	ID          int64
	OrderID     int64
	Number      int
	AmountCents int64
	Method      PaymentMethod
	PaidAt      time.Time
	DueAt       *time.Time
	Reference   string
	Bank        string
	Status      PaymentStatus
	CreatedAt   time.Time
}
