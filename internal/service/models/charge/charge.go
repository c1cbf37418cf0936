package charge

import "github.com/shopspring/decimal"

// BillingType is the payment method requested for a charge.
type BillingType string

const (
	BillingTypePix        BillingType = "PIX"
	BillingTypeBoleto     BillingType = "BOLETO"
	BillingTypeCreditCard BillingType = "CREDIT_CARD"
)

// PixQrCode is the PIX payment payload fetched after charge creation.
type PixQrCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

// Charge represents a charge created with the payments provider. PixQrCode
// is present only for PIX charges whose QR fetch succeeded.
type Charge struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       BillingType     `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	Status            string          `json:"status,omitempty"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	InvoiceURL        string          `json:"invoiceUrl,omitempty"`
	PixQrCode         *PixQrCode      `json:"pixQrCode,omitempty"`
}
