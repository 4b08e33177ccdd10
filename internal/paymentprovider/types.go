package paymentprovider

import (
	"fmt"
	"net/http"
)

// Состояния платежа PayPal.
const (
	StateCreated  = "created"
	StateApproved = "approved"
	StateFailed   = "failed"
)

// CreatePaymentRequest параметры платежа за тариф.
type CreatePaymentRequest struct {
	Amount      float64
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

// Payment созданный или выполненный платеж.
type Payment struct {
	ID          string
	State       string
	ApprovalURL string
}

// APIError ответ PayPal со статусом вне 2xx.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status %d: %s: %s", e.StatusCode, e.Name, e.Message)
}

// Declined сообщает, что PayPal отклонил сам платеж. Ошибки авторизации,
// таймауты и ограничение частоты запросов отказом не считаются.
func (e *APIError) Declined() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type transaction struct {
	Amount      amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

type paymentBody struct {
	Intent string `json:"intent"`
	Payer  struct {
		PaymentMethod string `json:"payment_method"`
	} `json:"payer"`
	RedirectURLs struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"redirect_urls"`
	Transactions []transaction `json:"transactions"`
}

type executeBody struct {
	PayerID string `json:"payer_id"`
}

type paymentResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Links []struct {
		Href   string `json:"href"`
		Rel    string `json:"rel"`
		Method string `json:"method"`
	} `json:"links"`
}
