package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side is the order direction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType is the canonical order type.
type OrderType string

const (
	Market    OrderType = "market"
	Limit     OrderType = "limit"
	Stop      OrderType = "stop"
	StopLimit OrderType = "stop_limit"
)

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
	IOC TimeInForce = "ioc"
	FOK TimeInForce = "fok"
)

// OrderStatus is the canonical order lifecycle state.
type OrderStatus string

const (
	OrderNew             OrderStatus = "new"
	OrderPending         OrderStatus = "pending"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCanceled        OrderStatus = "canceled"
	OrderRejected        OrderStatus = "rejected"
)

// Open reports whether the order can still fill or be canceled.
func (s OrderStatus) Open() bool {
	switch s {
	case OrderNew, OrderPending, OrderPartiallyFilled:
		return true
	}
	return false
}

// Order is the normalized order shape returned by every trading provider.
type Order struct {
	ID             string      `json:"id"`
	Symbol         string      `json:"symbol"`
	Side           Side        `json:"side"`
	Type           OrderType   `json:"type"`
	TimeInForce    TimeInForce `json:"timeInForce"`
	Quantity       float64     `json:"quantity"`
	FilledQuantity float64     `json:"filledQuantity"`
	LimitPrice     float64     `json:"limitPrice,omitempty"`
	StopPrice      float64     `json:"stopPrice,omitempty"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Provider       string      `json:"provider"`
}

// OrderRequest describes an order to submit. LimitPrice and StopPrice are
// required only for the order types that use them; zero means unset.
type OrderRequest struct {
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Type        OrderType   `json:"type"`
	Quantity    float64     `json:"quantity"`
	TimeInForce TimeInForce `json:"timeInForce,omitempty"`
	LimitPrice  float64     `json:"limitPrice,omitempty"`
	StopPrice   float64     `json:"stopPrice,omitempty"`
	// ClientOrderID lets callers correlate submissions; providers that
	// support idempotent order submission pass it through.
	ClientOrderID string `json:"clientOrderId,omitempty"`
}

// ValidationError reports a malformed request field before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the request against the order-type rules. It never
// performs I/O; a non-nil result means the request must not be submitted.
func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return &ValidationError{Field: "symbol", Message: "symbol is required"}
	}
	switch r.Side {
	case Buy, Sell:
	default:
		return &ValidationError{Field: "side", Message: fmt.Sprintf("unknown side %q", string(r.Side))}
	}
	if r.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "quantity must be greater than zero"}
	}
	switch r.Type {
	case Market:
	case Limit:
		if r.LimitPrice <= 0 {
			return &ValidationError{Field: "limitPrice", Message: "limit orders require a limit price"}
		}
	case Stop:
		if r.StopPrice <= 0 {
			return &ValidationError{Field: "stopPrice", Message: "stop orders require a stop price"}
		}
	case StopLimit:
		if r.LimitPrice <= 0 {
			return &ValidationError{Field: "limitPrice", Message: "stop-limit orders require a limit price"}
		}
		if r.StopPrice <= 0 {
			return &ValidationError{Field: "stopPrice", Message: "stop-limit orders require a stop price"}
		}
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown order type %q", string(r.Type))}
	}
	return nil
}

// Normalize fills in defaults: time in force day, symbols upper-cased.
func (r OrderRequest) Normalize() OrderRequest {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.TimeInForce == "" {
		r.TimeInForce = Day
	}
	return r
}
