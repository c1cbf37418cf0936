package order

// UpdateOrderModel represents a partial update of an order. Nil fields are
// left untouched.
type UpdateOrderModel struct {
	TableNumber   *string `json:"table_number,omitempty"`
	CustomerName  *string `json:"customer_name,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Status        *Status `json:"status,omitempty"`
	Source        *string `json:"source,omitempty"`
}
