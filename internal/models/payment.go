package models

import "time"

// Статусы платежа.
const (
	PaymentCreated   = "created"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment платеж PayPal, привязанный к пользователю и тарифу.
// PaymentID идентификатор PayPal, уникален и служит ключом идемпотентности.
type Payment struct {
	ID             int       `json:"id"`
	UserUID        string    `json:"user_uid"`
	TierID         int       `json:"tier_id"`
	PaymentID      string    `json:"payment_id"`
	PayerID        *string   `json:"payer_id,omitempty"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	SubscriptionID *int      `json:"subscription_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PaymentRequest запрос на оформление тарифа через оплату.
type PaymentRequest struct {
	TierID int `json:"tier_id" validate:"required,gt=0"`
}

// ExecuteRequest данные, с которыми PayPal возвращает пользователя после подтверждения.
type ExecuteRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	PayerID   string `json:"payer_id" validate:"required"`
}

// PaymentResult результат оформления: либо сразу подписка (бесплатный тариф),
// либо ссылка на подтверждение оплаты.
type PaymentResult struct {
	Subscription *Subscription `json:"subscription,omitempty"`
	ApprovalURL  string        `json:"approval_url,omitempty"`
	PaymentID    string        `json:"payment_id,omitempty"`
}

// PaymentCompletedEvent событие успешной оплаты.
type PaymentCompletedEvent struct {
	PaymentID      string  `json:"payment_id"`
	UserUID        string  `json:"user_uid"`
	TierID         int     `json:"tier_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	SubscriptionID int     `json:"subscription_id"`
}
