// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел и длительностей,
// работа с серверным временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeCredits возвращает правильную форму слова «кредит» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "кредит" (1, 21, 31, 101, ...)
//   - n%10 в [2,4] И n%100 НЕ в [12,14] → "кредита" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "кредитов" (0, 5-20, 25-30, 100, ...)
func PluralizeCredits(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "кредит"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "кредита"
	}
	return "кредитов"
}

// FormatCredits форматирует сумму в читабельную строку.
// Пример: FormatCredits(150) → "150 кредитов"
func FormatCredits(amount int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeCredits(amount))
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// FormatDuration форматирует длительность в строку вида "2ч 15м" или "4м 30с".
// Используется для кулдаунов и сроков заключения.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%dч %dм", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	}
	return fmt.Sprintf("%dс", seconds)
}

// ServerLocation возвращает часовой пояс сервера (Europe/Moscow).
// Используется для расчёта «серверного дня»: дневные колебания ставок
// и сбросы стриков привязаны к московской полуночи.
func ServerLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить — используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// ServerDay обрезает время до начала серверного дня.
func ServerDay(t time.Time) time.Time {
	t = t.In(ServerLocation())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
func FormatDateTime(t time.Time) string {
	return t.In(ServerLocation()).Format("02.01.2006 15:04")
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	rest := n / 1000
	last := n % 1000
	return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
}
