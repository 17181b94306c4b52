// Package ledger содержит производные значения по платежам заказа
// и условия переходов его конечного автомата.
//
// Состояния заказа: PENDING -> CONFIRMED и PENDING -> CANCELED, оба
// конечные. REJECTED — конечное состояние, выставляемое только на
// стороне сервера, обычный поток его не порождает.
package ledger

import (
	"errors"

	"github.com/mmeshcher/boutique-system/internal/model"
)

var (
	// ErrNotPending возвращается при попытке перехода из конечного состояния.
	ErrNotPending = errors.New("order is not pending")
	// ErrUnpaidBalance возвращается при подтверждении заказа с ненулевым остатком.
	ErrUnpaidBalance = errors.New("order has unpaid balance")
	// ErrNonPositiveAmount возвращается для платежа с неположительной суммой.
	ErrNonPositiveAmount = errors.New("payment amount must be positive")
	// ErrExceedsRemaining возвращается для платежа, превышающего остаток по заказу.
	ErrExceedsRemaining = errors.New("payment amount exceeds remaining balance")
	// ErrDueDateRequired возвращается для чека без даты погашения.
	ErrDueDateRequired = errors.New("check payment requires a due date")
	// ErrInvalidMethod возвращается для неизвестного способа оплаты.
	ErrInvalidMethod = errors.New("unknown payment method")
)

// AmountPaid возвращает сумму всех платежей по заказу в сантимах.
// Учитываются платежи во всех статусах, включая REJECTED.
func AmountPaid(payments []model.Payment) int64 {
	var sum int64
	for _, p := range payments {
		sum += p.AmountCents
	}
	return sum
}

// AmountRemaining возвращает остаток к оплате, не опускаясь ниже нуля.
func AmountRemaining(order *model.Order, payments []model.Payment) int64 {
	remaining := order.GrossTotalCents - AmountPaid(payments)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyPaid сообщает, покрыт ли заказ платежами полностью.
func IsFullyPaid(order *model.Order, payments []model.Payment) bool {
	return AmountRemaining(order, payments) == 0
}

// CanConfirm проверяет допустимость подтверждения заказа:
// заказ должен быть в статусе PENDING с нулевым остатком.
func CanConfirm(order *model.Order, payments []model.Payment) error {
	if order.Status != model.OrderStatusPending {
		return ErrNotPending
	}
	if AmountRemaining(order, payments) != 0 {
		return ErrUnpaidBalance
	}
	return nil
}

// CanCancel проверяет допустимость отмены заказа. Условия по остатку нет.
func CanCancel(order *model.Order) error {
	if order.Status != model.OrderStatusPending {
		return ErrNotPending
	}
	return nil
}

// CheckPayment проверяет допустимость добавления платежа к заказу
// до обращения к хранилищу: статус заказа, сумма, остаток и
// обязательные поля способа оплаты.
func CheckPayment(order *model.Order, payments []model.Payment, p *model.Payment) error {
	if order.Status != model.OrderStatusPending {
		return ErrNotPending
	}
	if p.AmountCents <= 0 {
		return ErrNonPositiveAmount
	}
	if p.AmountCents > AmountRemaining(order, payments) {
		return ErrExceedsRemaining
	}
	if !p.Method.Valid() {
		return ErrInvalidMethod
	}
	if p.Method == model.PaymentCheck && p.DueAt == nil {
		return ErrDueDateRequired
	}
	return nil
}

// IsTransitionError сообщает, относится ли ошибка к недопустимому переходу
// конечного автомата (в отличие от ошибок валидации платежа).
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrNotPending) || errors.Is(err, ErrUnpaidBalance)
}
