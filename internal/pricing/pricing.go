// Package pricing вычисляет стоимостную разбивку заказа.
//
// Все суммы считаются в сантимах. При взятии процентов половина
// сантима округляется вверх.
package pricing

import (
	"errors"

	"github.com/mmeshcher/boutique-system/internal/loyalty"
	"github.com/mmeshcher/boutique-system/internal/model"
)

// TaxRatePercent — ставка НДС, применяемая к сумме после скидок.
const TaxRatePercent = 20

var (
	// ErrEmptyOrder возвращается при расчёте итогов заказа без позиций.
	ErrEmptyOrder = errors.New("order has no lines")
	// ErrInvalidQuantity возвращается для позиции с неположительным количеством.
	ErrInvalidQuantity = errors.New("line quantity must be positive")
	// ErrInvalidPrice возвращается для позиции с отрицательной ценой.
	ErrInvalidPrice = errors.New("line unit price must be non-negative")
)

// Line описывает входную позицию расчёта: цена за единицу и количество.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Totals содержит согласованную стоимостную разбивку заказа.
type Totals struct {
	SubTotalCents        int64
	LoyaltyDiscountCents int64
	PromoDiscountCents   int64
	NetBeforeTaxCents    int64
	TaxCents             int64
	GrossTotalCents      int64
}

// ComputeTotals вычисляет разбивку для передачи заказа на оформление.
// Пустой список позиций — ошибка: черновик можно показывать через Quote,
// но оформить пустой заказ нельзя. Промо-скидка принимается готовой суммой:
// сервис сам её не вычисляет, пока её не подтвердит промо-система.
func ComputeTotals(lines []Line, tier model.LoyaltyTier, promoDiscountCents int64) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrEmptyOrder
	}
	return computeTotals(lines, tier, promoDiscountCents)
}

// Quote вычисляет разбивку черновика: пустой список позиций даёт нулевые итоги.
func Quote(lines []Line, tier model.LoyaltyTier, promoDiscountCents int64) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, nil
	}
	return computeTotals(lines, tier, promoDiscountCents)
}

func computeTotals(lines []Line, tier model.LoyaltyTier, promoDiscountCents int64) (Totals, error) {
	var subTotal int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Totals{}, ErrInvalidQuantity
		}
		if l.UnitPriceCents < 0 {
			return Totals{}, ErrInvalidPrice
		}
		subTotal += l.UnitPriceCents * int64(l.Quantity)
	}

	loyaltyDiscount := loyalty.DiscountFor(tier, subTotal)

	if promoDiscountCents < 0 {
		promoDiscountCents = 0
	}

	net := subTotal - loyaltyDiscount - promoDiscountCents
	if net < 0 {
		net = 0
	}

	tax := (net*TaxRatePercent + 50) / 100

	return Totals{
		SubTotalCents:        subTotal,
		LoyaltyDiscountCents: loyaltyDiscount,
		PromoDiscountCents:   promoDiscountCents,
		NetBeforeTaxCents:    net,
		TaxCents:             tax,
		GrossTotalCents:      net + tax,
	}, nil
}

// LineTotal возвращает стоимость позиции.
func LineTotal(l Line) int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// FromBreakdown пересчитывает производные суммы по уже известным
// промежуточной сумме и скидкам. Используется, когда промо-система
// подтверждает скидку для существующего заказа.
func FromBreakdown(subTotalCents, loyaltyDiscountCents, promoDiscountCents int64) Totals {
	if loyaltyDiscountCents < 0 {
		loyaltyDiscountCents = 0
	}
	if promoDiscountCents < 0 {
		promoDiscountCents = 0
	}

	net := subTotalCents - loyaltyDiscountCents - promoDiscountCents
	if net < 0 {
		net = 0
	}

	tax := (net*TaxRatePercent + 50) / 100

	return Totals{
		SubTotalCents:        subTotalCents,
		LoyaltyDiscountCents: loyaltyDiscountCents,
		PromoDiscountCents:   promoDiscountCents,
		NetBeforeTaxCents:    net,
		TaxCents:             tax,
		GrossTotalCents:      net + tax,
	}
}
