package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/mmeshcher/boutique-system/internal/model"
)

func pendingOrder(grossCents int64) *model.Order {
	return &model.Order{
		ID:              1,
		Status:          model.OrderStatusPending,
		GrossTotalCents: grossCents,
	}
}

func TestAmountPaid_CountsAllStatuses(t *testing.T) {
	payments := []model.Payment{
		{AmountCents: 10000, Status: model.PaymentStatusCleared},
		{AmountCents: 5000, Status: model.PaymentStatusPending},
		{AmountCents: 2500, Status: model.PaymentStatusRejected},
	}
	if got := AmountPaid(payments); got != 17500 {
		t.Fatalf("AmountPaid = %d, want 17500", got)
	}
}

func TestAmountRemaining_NeverNegative(t *testing.T) {
	order := pendingOrder(10000)
	payments := []model.Payment{{AmountCents: 15000}}
	if got := AmountRemaining(order, payments); got != 0 {
		t.Fatalf("AmountRemaining = %d, want 0", got)
	}
}

func TestExactPaymentEnablesConfirm(t *testing.T) {
	order := pendingOrder(30000)
	var payments []model.Payment

	if err := CanConfirm(order, payments); !errors.Is(err, ErrUnpaidBalance) {
		t.Fatalf("CanConfirm on unpaid order = %v, want ErrUnpaidBalance", err)
	}

	p := &model.Payment{AmountCents: 30000, Method: model.PaymentCash}
	if err := CheckPayment(order, payments, p); err != nil {
		t.Fatalf("CheckPayment error: %v", err)
	}
	payments = append(payments, *p)

	if !IsFullyPaid(order, payments) {
		t.Fatalf("order must be fully paid after exact payment")
	}
	if err := CanConfirm(order, payments); err != nil {
		t.Fatalf("CanConfirm after full payment = %v, want nil", err)
	}
}

func TestCanConfirm_NotPending(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusCanceled,
		model.OrderStatusRejected,
	} {
		order := pendingOrder(0)
		order.Status = status
		if err := CanConfirm(order, nil); !errors.Is(err, ErrNotPending) {
			t.Fatalf("CanConfirm(%s) = %v, want ErrNotPending", status, err)
		}
	}
}

func TestCanCancel(t *testing.T) {
	order := pendingOrder(10000)
	if err := CanCancel(order); err != nil {
		t.Fatalf("CanCancel on pending order = %v, want nil", err)
	}

	order.Status = model.OrderStatusConfirmed
	if err := CanCancel(order); !errors.Is(err, ErrNotPending) {
		t.Fatalf("CanCancel on confirmed order = %v, want ErrNotPending", err)
	}
}

func TestCheckPayment(t *testing.T) {
	due := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name     string
		order    *model.Order
		payments []model.Payment
		payment  *model.Payment
		wantErr  error
	}{
		{
			name:    "valid cash payment",
			order:   pendingOrder(10000),
			payment: &model.Payment{AmountCents: 4000, Method: model.PaymentCash},
		},
		{
			name:    "non-positive amount",
			order:   pendingOrder(10000),
			payment: &model.Payment{AmountCents: 0, Method: model.PaymentCash},
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:     "exceeds remaining",
			order:    pendingOrder(10000),
			payments: []model.Payment{{AmountCents: 8000}},
			payment:  &model.Payment{AmountCents: 3000, Method: model.PaymentCash},
			wantErr:  ErrExceedsRemaining,
		},
		{
			name:    "check without due date",
			order:   pendingOrder(10000),
			payment: &model.Payment{AmountCents: 4000, Method: model.PaymentCheck},
			wantErr: ErrDueDateRequired,
		},
		{
			name:    "check with due date",
			order:   pendingOrder(10000),
			payment: &model.Payment{AmountCents: 4000, Method: model.PaymentCheck, DueAt: &due},
		},
		{
			name:    "unknown method",
			order:   pendingOrder(10000),
			payment: &model.Payment{AmountCents: 4000, Method: model.PaymentMethod("CRYPTO")},
			wantErr: ErrInvalidMethod,
		},
		{
			name: "order not pending",
			order: &model.Order{
				Status:          model.OrderStatusCanceled,
				GrossTotalCents: 10000,
			},
			payment: &model.Payment{AmountCents: 4000, Method: model.PaymentCash},
			wantErr: ErrNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPayment(tt.order, tt.payments, tt.payment)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckPayment = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsTransitionError(t *testing.T) {
	if !IsTransitionError(ErrNotPending) || !IsTransitionError(ErrUnpaidBalance) {
		t.Fatalf("transition errors not recognized")
	}
	if IsTransitionError(ErrExceedsRemaining) {
		t.Fatalf("validation error misclassified as transition error")
	}
}
