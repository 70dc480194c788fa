// Package paymentprovider реализует клиент платёжного провайдера PayOS:
// создание платёжной ссылки, запрос состояния платежа и проверку
// подписи уведомлений.
package paymentprovider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrBadSignature подпись уведомления не совпала с контрольной суммой.
var ErrBadSignature = errors.New("webhook signature mismatch")

type Client struct {
	clientID    string
	apiKey      string
	checksumKey string
	apiURL      string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент PayOS.
func NewClient(clientID, apiKey, checksumKey, apiURL string) *Client {
	if apiURL == "" {
		apiURL = "https://api-merchant.payos.vn"
	}
	return &Client{
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		apiURL:      apiURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// signCreateRequest считает подпись запроса: HMAC-SHA256 от полей,
// перечисленных в алфавитном порядке, на ключе контрольной суммы.
func (c *Client) signCreateRequest(req *CreateLinkRequest) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreatePaymentLink отправляет запрос на создание платёжной ссылки.
func (c *Client) CreatePaymentLink(reqParams CreateLinkRequest) (*CreateLinkResponse, error) {
	reqParams.Signature = c.signCreateRequest(&reqParams)

	req, err := c.newRequest("POST", "/v2/payment-requests", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var linkResp CreateLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&linkResp); err != nil {
		return nil, err
	}
	if linkResp.Code != "00" {
		return nil, errors.New("provider error: " + linkResp.Desc)
	}
	return &linkResp, nil
}

// GetPaymentLinkInformation возвращает состояние платёжной ссылки по коду заказа.
func (c *Client) GetPaymentLinkInformation(orderCode int64) (*LinkInformation, error) {
	req, err := c.newRequest("GET", fmt.Sprintf("/v2/payment-requests/%d", orderCode), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var infoResp linkInformationResponse
	if err := json.NewDecoder(resp.Body).Decode(&infoResp); err != nil {
		return nil, err
	}
	if infoResp.Code != "00" {
		return nil, errors.New("provider error: " + infoResp.Desc)
	}
	return &infoResp.Data, nil
}

// VerifyWebhookSignature проверяет подпись уведомления. Подпись
// считается по полям данных в алфавитном порядке на ключе контрольной суммы.
func (c *Client) VerifyWebhookSignature(payload *WebhookPayload) error {
	data := fmt.Sprintf("amount=%d&orderCode=%d&reference=%s&status=%s",
		payload.Data.Amount, payload.Data.OrderCode, payload.Data.Reference, payload.Data.Status)
	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write([]byte(data))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(payload.Signature)) {
		return ErrBadSignature
	}
	return nil
}
