// Package validation содержит функции валидации входных данных.
package validation

import "regexp"

var promoCodePattern = regexp.MustCompile(`^PROMO-[A-Z0-9]{4}$`)

// IsValidPromoCode проверяет синтаксис промокода: префикс PROMO- и ровно
// четыре заглавные буквы или цифры. Сама скидка промокодом не определяется,
// её подтверждает промо-система.
func IsValidPromoCode(code string) bool {
	return promoCodePattern.MatchString(code)
}
