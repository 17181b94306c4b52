// Package loyalty реализует политику уровней программы лояльности.
package loyalty

import "github.com/mmeshcher/boutique-system/internal/model"

// TierPolicy описывает параметры одного уровня лояльности.
// Скидка применяется только к заказам с промежуточной суммой не ниже MinAmountCents.
type TierPolicy struct {
	RatePercent    int64
	MinAmountCents int64
	MinOrders      int
	MinSpentCents  int64
}

var policies = map[model.LoyaltyTier]TierPolicy{
	model.TierBasic:    {RatePercent: 0, MinAmountCents: 0, MinOrders: 0, MinSpentCents: 0},
	model.TierSilver:   {RatePercent: 5, MinAmountCents: 50000, MinOrders: 3, MinSpentCents: 100000},
	model.TierGold:     {RatePercent: 10, MinAmountCents: 80000, MinOrders: 10, MinSpentCents: 500000},
	model.TierPlatinum: {RatePercent: 15, MinAmountCents: 120000, MinOrders: 20, MinSpentCents: 1500000},
}

// порядок от высшего уровня к низшему для выбора по истории
var ranked = []model.LoyaltyTier{
	model.TierPlatinum,
	model.TierGold,
	model.TierSilver,
	model.TierBasic,
}

// PolicyFor возвращает параметры указанного уровня. Неизвестный уровень трактуется как BASIC.
func PolicyFor(tier model.LoyaltyTier) TierPolicy {
	if p, ok := policies[tier]; ok {
		return p
	}
	return policies[model.TierBasic]
}

// DiscountFor возвращает сумму скидки лояльности в сантимах для заказа
// с указанной промежуточной суммой. Половина сантима округляется вверх.
func DiscountFor(tier model.LoyaltyTier, subTotalCents int64) int64 {
	p := PolicyFor(tier)
	if p.RatePercent == 0 || subTotalCents < p.MinAmountCents {
		return 0
	}
	return (subTotalCents*p.RatePercent + 50) / 100
}

// TierFromHistory возвращает высший уровень, для которого выполнены оба порога:
// по числу заказов и по сумме покупок. Значение носит справочный характер,
// сохранённый уровень клиента остаётся авторитетным.
func TierFromHistory(totalOrders int, totalSpentCents int64) model.LoyaltyTier {
	for _, tier := range ranked {
		p := policies[tier]
		if totalOrders >= p.MinOrders && totalSpentCents >= p.MinSpentCents {
			return tier
		}
	}
	return model.TierBasic
}
