// Package period вычисляет дату окончания подписки по коду длительности тарифа.
package period

import "time"

const (
	// Week семидневный тариф.
	Week = "7D"
	// Lifetime бессрочный тариф, хранится как подписка на 100 лет.
	Lifetime = "LT"
)

const (
	weekDays     = 7
	lifetimeDays = 365 * 100
	defaultDays  = 30
)

// Days возвращает длительность тарифа в днях.
// Неизвестные коды считаются месячным тарифом.
func Days(code string) int {
	switch code {
	case Week:
		return weekDays
	case Lifetime:
		return lifetimeDays
	default:
		return defaultDays
	}
}

// EndDate возвращает дату окончания подписки, начавшейся в start.
// Смещение фиксированное в сутках, без учета календарных месяцев.
func EndDate(start time.Time, code string) time.Time {
	return start.Add(time.Duration(Days(code)) * 24 * time.Hour)
}
