// Package asaas is the REST client for the Asaas payments provider,
// covering the customer search/creation and charge endpoints this system
// consumes.
package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Customer is a customer record as returned by the provider.
type Customer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CpfCnpj     string `json:"cpfCnpj"`
	Email       string `json:"email,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// CustomerInput is the payload for creating a provider customer.
type CustomerInput struct {
	Name        string `json:"name"`
	CpfCnpj     string `json:"cpfCnpj,omitempty"`
	Email       string `json:"email,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// ChargeInput is the payload for creating a charge.
type ChargeInput struct {
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
}

// Charge is a charge as returned by the provider.
type Charge struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	Status            string          `json:"status"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	InvoiceURL        string          `json:"invoiceUrl,omitempty"`
}

// PixQrCode is the PIX payload for a charge.
type PixQrCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// Client talks to the Asaas REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client from viper config and the ASAAS_API_KEY env var.
func NewClient() *Client {
	return &Client{
		baseURL: viper.GetString("asaas.base_url"),
		apiKey:  os.Getenv("ASAAS_API_KEY"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWith creates a client with explicit parameters, used by tests.
func NewClientWith(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("access_token", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("asaas returned %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// SearchCustomersByCpf searches provider customers by tax id.
func (c *Client) SearchCustomersByCpf(
	ctx context.Context,
	cpf string,
	limit int,
) ([]Customer, error) {
	q := url.Values{}
	q.Set("cpfCnpj", cpf)
	q.Set("limit", strconv.Itoa(limit))

	var out listResponse[Customer]
	if err := c.do(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// SearchCustomersByName searches provider customers by name.
func (c *Client) SearchCustomersByName(
	ctx context.Context,
	name string,
	limit int,
) ([]Customer, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("limit", strconv.Itoa(limit))

	var out listResponse[Customer]
	if err := c.do(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// CreateCustomer creates a provider customer.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CreateCharge creates a charge.
func (c *Client) CreateCharge(ctx context.Context, in ChargeInput) (*Charge, error) {
	var out Charge
	if err := c.do(ctx, http.MethodPost, "/payments", in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetPixQrCode fetches the PIX payload for a charge.
func (c *Client) GetPixQrCode(ctx context.Context, chargeID string) (*PixQrCode, error) {
	var out PixQrCode
	if err := c.do(ctx, http.MethodGet, "/payments/"+chargeID+"/pixQrCode", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
