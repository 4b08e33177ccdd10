// Package paymentprovider клиент REST API PayPal: создание платежа
// с ссылкой на подтверждение и выполнение подтвержденного платежа.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/bookflix/internal/config"
)

var (
	// ErrNotConfigured не заданы client id или secret.
	ErrNotConfigured = errors.New("paypal is not configured")
	// ErrAuth не удалось получить токен доступа.
	ErrAuth = errors.New("paypal authentication failed")
)

// Client обращается к PayPal. Токен доступа кешируется до истечения.
type Client struct {
	clientID   string
	secret     string
	apiURL     string
	returnURL  string
	cancelURL  string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient создаёт клиента PayPal.
func NewClient(cfg config.PayPal) *Client {
	return &Client{
		clientID:   cfg.PayPalClientID,
		secret:     cfg.PayPalSecret,
		apiURL:     strings.TrimRight(cfg.PayPalBaseURL, "/"),
		returnURL:  cfg.PayPalReturnURL,
		cancelURL:  cfg.PayPalCancelURL,
		httpClient: &http.Client{Timeout: cfg.PayPalTimeout},
	}
}

// CreatePayment создает платеж и возвращает ссылку на подтверждение.
func (c *Client) CreatePayment(ctx context.Context, reqParams CreatePaymentRequest) (*Payment, error) {
	const op = "paymentprovider.CreatePayment"

	body := paymentBody{Intent: "sale"}
	body.Payer.PaymentMethod = "paypal"
	body.RedirectURLs.ReturnURL = firstNonEmpty(reqParams.ReturnURL, c.returnURL)
	body.RedirectURLs.CancelURL = firstNonEmpty(reqParams.CancelURL, c.cancelURL)
	body.Transactions = []transaction{{
		Amount: amount{
			Total:    strconv.FormatFloat(reqParams.Amount, 'f', 2, 64),
			Currency: firstNonEmpty(reqParams.Currency, "USD"),
		},
		Description: reqParams.Description,
	}}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/payments/payment", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	var resp paymentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &Payment{ID: resp.ID, State: resp.State}
	for _, l := range resp.Links {
		if l.Rel == "approval_url" {
			p.ApprovalURL = l.Href
			break
		}
	}
	if p.ApprovalURL == "" {
		return nil, fmt.Errorf("%s: approval url missing in response", op)
	}
	return p, nil
}

// ExecutePayment выполняет подтвержденный пользователем платеж.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*Payment, error) {
	const op = "paymentprovider.ExecutePayment"

	req, err := c.newRequest(ctx, http.MethodPost,
		"/v1/payments/payment/"+url.PathEscape(paymentID)+"/execute", executeBody{PayerID: payerID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp paymentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Payment{ID: resp.ID, State: resp.State}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.secret == "" {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}
	c.token = tok.AccessToken
	// токен считается истекшим на минуту раньше срока
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
