// Package models содержит доменные структуры тарифов и подписок пользователей,
// а также запросы, приходящие в HTTP-обработчики.
package models

import "time"

// Tier тариф из каталога. Справочные данные, не изменяются сервисом.
type Tier struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`     // цена в валюте Currency
	PriceUSD        float64 `json:"price_usd"` // цена для PayPal
	Currency        string  `json:"currency"`
	Duration        string  `json:"duration"` // код длительности, см. lib/period
	PaymentRequired bool    `json:"payment_required"`
	BookLimit       int     `json:"book_limit"`    // -1 без ограничений
	MaxDownloads    int     `json:"max_downloads"` // -1 без ограничений
	Description     string  `json:"description"`
}

// Subscription один период подписки пользователя.
// Текущей считается подписка с IsActive и EndDate в будущем.
type Subscription struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	TierID    int       `json:"tier"`
	Tier      *Tier     `json:"tier_details,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
}

// IsValid сообщает, действует ли подписка в момент now.
func (s *Subscription) IsValid(now time.Time) bool {
	return s.IsActive && s.EndDate.After(now)
}

// UpgradeRequest запрос на смену тарифа. Клиенты присылают tier_id,
// старые клиенты присылают tier.
type UpgradeRequest struct {
	TierID int `json:"tier_id" validate:"omitempty,gt=0"`
	Tier   int `json:"tier" validate:"omitempty,gt=0"`
}

// RequestedTier возвращает идентификатор тарифа из любого из полей.
func (r UpgradeRequest) RequestedTier() int {
	if r.TierID != 0 {
		return r.TierID
	}
	return r.Tier
}

// SubscriptionActivated событие, публикуемое в брокер после активации подписки.
type SubscriptionActivated struct {
	SubscriptionID int       `json:"subscription_id"`
	UserUID        string    `json:"user_uid"`
	TierID         int       `json:"tier_id"`
	TierName       string    `json:"tier_name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Source         string    `json:"source"` // signup, upgrade, payment
}
