// Package format содержит чистые функции форматирования значений для отображения.
// Форматы закреплены за локалью fr-MA: пробел как разделитель тысяч,
// запятая как десятичный разделитель, валюта DH.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var frenchMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// Currency форматирует сумму в сантимах как "1 234,56 DH".
func Currency(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	s := fmt.Sprintf("%s,%02d DH", groupThousands(whole), frac)
	if neg {
		return "-" + s
	}
	return s
}

// Number форматирует целое число с разделителями тысяч: "1 234".
func Number(n int64) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	return groupThousands(n)
}

func groupThousands(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date форматирует дату как "15 janv. 2024". Нулевое время даёт "N/A".
func Date(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// DateTime форматирует дату и время как "15 janv. 2024 à 14:30".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return fmt.Sprintf("%s à %02d:%02d", Date(t), t.Hour(), t.Minute())
}

// DaysBetween возвращает число дней между двумя датами, округляя вверх.
func DaysBetween(a, b time.Time) int {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// IsPast сообщает, находится ли дата в прошлом. Нулевое время — нет.
func IsPast(t time.Time, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.Before(now)
}

// RelativeTime форматирует давность события: "À l'instant", "Il y a 5 min",
// "Il y a 3h", "Il y a 2 jours"; старше недели — обычная дата.
func RelativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	diff := int64(now.Sub(t).Seconds())
	switch {
	case diff < 60:
		return "À l'instant"
	case diff < 3600:
		return fmt.Sprintf("Il y a %d min", diff/60)
	case diff < 86400:
		return fmt.Sprintf("Il y a %dh", diff/3600)
	case diff < 604800:
		days := diff / 86400
		if days > 1 {
			return fmt.Sprintf("Il y a %d jours", days)
		}
		return "Il y a 1 jour"
	}
	return Date(t)
}
