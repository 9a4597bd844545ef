package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/output"
	"github.com/skovera/desk/internal/trading"
)

// OrdersState represents the loading state of orders data.
type OrdersState int

const (
	OrdersStateLoading OrdersState = iota
	OrdersStateLoaded
	OrdersStateError
)

// OrdersMode represents the input mode of the orders view.
type OrdersMode int

const (
	OrdersModeNormal OrdersMode = iota
	OrdersModeCanceling
)

// OrdersModel holds the state for the orders view.
type OrdersModel struct {
	State         OrdersState
	Orders        []domain.Order
	Err           error
	LastUpdated   time.Time
	Table         table.Model
	Mode          OrdersMode
	CancelOrderID string
	CancelSymbol  string
}

// NewOrdersModel creates a new orders model.
func NewOrdersModel() *OrdersModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 8},
		{Title: "Side", Width: 5},
		{Title: "Type", Width: 10},
		{Title: "Status", Width: 12},
		{Title: "Qty", Width: 8},
		{Title: "Filled", Width: 8},
		{Title: "Price", Width: 10},
		{Title: "Created", Width: 12},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	return &OrdersModel{
		State:  OrdersStateLoading,
		Orders: []domain.Order{},
		Table:  t,
		Mode:   OrdersModeNormal,
	}
}

// SetHeight sets the table height.
func (m *OrdersModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Update handles messages for the orders view.
// Returns the model, command, and whether the event was handled.
func (m *OrdersModel) Update(msg tea.Msg, svc *trading.Service) (*OrdersModel, tea.Cmd, bool) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case OrdersLoadedMsg:
		m.State = OrdersStateLoaded
		m.Orders = msg.Orders
		m.LastUpdated = time.Now()
		m.Err = nil
		m.updateTable()
		return m, nil, true

	case OrdersErrorMsg:
		m.State = OrdersStateError
		m.Err = msg.Err
		return m, nil, true

	case OrderCanceledMsg:
		newOrders := make([]domain.Order, 0, len(m.Orders))
		for _, o := range m.Orders {
			if o.ID != msg.OrderID {
				newOrders = append(newOrders, o)
			}
		}
		m.Orders = newOrders
		m.updateTable()
		m.Mode = OrdersModeNormal
		m.CancelOrderID = ""
		m.CancelSymbol = ""
		// Refresh to pick up the final status
		return m, FetchOrders(svc), true

	case OrderCancelErrorMsg:
		m.Err = msg.Err
		m.Mode = OrdersModeNormal
		m.CancelOrderID = ""
		m.CancelSymbol = ""
		return m, nil, true

	case tea.KeyMsg:
		switch m.Mode {
		case OrdersModeCanceling:
			switch msg.String() {
			case "y", "Y":
				cmd = CancelOrder(m.CancelOrderID, svc)
				return m, cmd, true
			case "n", "N", "esc":
				m.Mode = OrdersModeNormal
				m.CancelOrderID = ""
				m.CancelSymbol = ""
				return m, nil, true
			}
			return m, nil, true

		case OrdersModeNormal:
			switch msg.String() {
			case "c", "x", "d":
				if len(m.Orders) > 0 {
					idx := m.Table.Cursor()
					if idx >= 0 && idx < len(m.Orders) {
						order := m.Orders[idx]
						if order.Status.Open() {
							m.CancelOrderID = order.ID
							m.CancelSymbol = order.Symbol
							m.Mode = OrdersModeCanceling
						}
					}
				}
				return m, nil, true
			}
		}
	}

	// Pass to table in normal mode
	if m.Mode == OrdersModeNormal {
		m.Table, cmd = m.Table.Update(msg)
		return m, cmd, false
	}

	return m, nil, false
}

// updateTable updates the table rows from orders data.
func (m *OrdersModel) updateTable() {
	rows := make([]table.Row, 0, len(m.Orders))
	for _, order := range m.Orders {
		price := "-"
		if order.LimitPrice > 0 {
			price = output.FormatMoney(order.LimitPrice)
		} else if order.StopPrice > 0 {
			price = output.FormatMoney(order.StopPrice)
		}

		rows = append(rows, table.Row{
			order.Symbol,
			string(order.Side),
			string(order.Type),
			string(order.Status),
			output.FormatQuantity(order.Quantity),
			output.FormatQuantity(order.FilledQuantity),
			price,
			order.CreatedAt.Format("01/02 15:04"),
		})
	}
	m.Table.SetRows(rows)
}

// View renders the orders view.
func (m *OrdersModel) View() string {
	var b strings.Builder

	if m.Mode == OrdersModeCanceling {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Cancel order for %s?", m.CancelSymbol)))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Order ID: "))
		b.WriteString(ValueStyle.Render(shortID(m.CancelOrderID)))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Press Y to confirm, N to cancel"))
		return b.String()
	}

	switch m.State {
	case OrdersStateLoading:
		b.WriteString("Loading orders...")
		return b.String()

	case OrdersStateError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.Err)))
		b.WriteString("\n\nPress 'r' to retry")
		return b.String()

	case OrdersStateLoaded:
		b.WriteString(SummaryStyle.Render("Orders"))
		b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d)", len(m.Orders))))
		b.WriteString("\n\n")

		if len(m.Orders) == 0 {
			b.WriteString(LabelStyle.Render("No orders"))
			b.WriteString("\n\n")
			b.WriteString(LabelStyle.Render("Place orders with: desk order buy SYMBOL QTY"))
		} else {
			b.WriteString(m.Table.View())
			b.WriteString("\n")
			b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
		}
	}

	return b.String()
}

// shortID truncates long order identifiers for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

// FetchOrders returns a command that fetches the order list.
func FetchOrders(svc *trading.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		orders, err := svc.Orders(ctx)
		if err != nil {
			return OrdersErrorMsg{Err: err}
		}
		return OrdersLoadedMsg{Orders: orders}
	}
}

// CancelOrder returns a command that cancels one order.
func CancelOrder(orderID string, svc *trading.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.CancelOrder(ctx, orderID); err != nil {
			return OrderCancelErrorMsg{Err: err}
		}
		return OrderCanceledMsg{OrderID: orderID}
	}
}
