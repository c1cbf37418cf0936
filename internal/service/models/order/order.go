package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/comandaviva/pdv/internal/service/models/orderitem"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPendente  Status = "PENDENTE"
	StatusInPrep    Status = "IN_PREP"
	StatusReady     Status = "READY"
	StatusEntregue  Status = "ENTREGUE"
	StatusCancelado Status = "CANCELADO"
)

// ParseStatus validates a status token.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPendente, StatusInPrep, StatusReady, StatusEntregue, StatusCancelado:
		return Status(s), true
	}

	return "", false
}

// Terminal reports whether the status leaves the kitchen queue.
func (s Status) Terminal() bool {
	return s == StatusEntregue || s == StatusCancelado
}

// ServiceType classifies an order as dine-in or delivery. It is derived from
// the table number once at creation and never recomputed.
type ServiceType string

const (
	ServiceTypeMesa     ServiceType = "MESA"
	ServiceTypeDelivery ServiceType = "DELIVERY"
)

// Order represents a customer order with its line items.
type Order struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	TableNumber   *string               `json:"table_number"`
	CustomerName  *string               `json:"customer_name,omitempty"`
	CustomerPhone *string               `json:"customer_phone,omitempty"`
	Status        Status                `json:"status"`
	Source        string                `json:"source"`
	ServiceType   ServiceType           `json:"service_type"`
	Items         []orderitem.OrderItem `json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// DeriveServiceType normalizes a raw table-number value (JSON may carry it
// as a string, a number or nothing) into a persisted table number and a
// service type. Absent, "0" and numeric zero all mean delivery, and no
// table is persisted in that case.
func DeriveServiceType(raw any) (*string, ServiceType) {
	switch v := raw.(type) {
	case nil:
		return nil, ServiceTypeDelivery
	case string:
		t := strings.TrimSpace(v)
		if t == "" || t == "0" {
			return nil, ServiceTypeDelivery
		}

		return &t, ServiceTypeMesa
	case float64:
		if v == 0 {
			return nil, ServiceTypeDelivery
		}
		t := strconv.FormatFloat(v, 'f', -1, 64)

		return &t, ServiceTypeMesa
	case int:
		if v == 0 {
			return nil, ServiceTypeDelivery
		}
		t := strconv.Itoa(v)

		return &t, ServiceTypeMesa
	case int64:
		if v == 0 {
			return nil, ServiceTypeDelivery
		}
		t := strconv.FormatInt(v, 10)

		return &t, ServiceTypeMesa
	case bool:
		if !v {
			return nil, ServiceTypeDelivery
		}
		t := "true"

		return &t, ServiceTypeMesa
	default:
		// Unexpected but truthy values still pin the order to a table.
		t := strings.TrimSpace(fmt.Sprint(v))
		if t == "" || t == "0" {
			return nil, ServiceTypeDelivery
		}

		return &t, ServiceTypeMesa
	}
}
