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

// PortfolioState represents the loading state of portfolio data.
type PortfolioState int

const (
	PortfolioStateLoading PortfolioState = iota
	PortfolioStateLoaded
	PortfolioStateError
)

// PortfolioModel holds the state for the portfolio view.
type PortfolioModel struct {
	State       PortfolioState
	Account     domain.Account
	Positions   []domain.Position
	Err         error
	LastUpdated time.Time
	Table       table.Model
}

// NewPortfolioModel creates a new portfolio model.
func NewPortfolioModel() *PortfolioModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Qty", Width: 10},
		{Title: "Avg Entry", Width: 12},
		{Title: "Price", Width: 12},
		{Title: "Value", Width: 14},
		{Title: "P&L", Width: 14},
		{Title: "P&L %", Width: 10},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	return &PortfolioModel{
		State: PortfolioStateLoading,
		Table: t,
	}
}

// SetHeight sets the table height.
func (m *PortfolioModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Update handles messages for the portfolio view.
func (m *PortfolioModel) Update(msg tea.Msg) (*PortfolioModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case PortfolioLoadedMsg:
		m.State = PortfolioStateLoaded
		m.Account = msg.Account
		m.Positions = msg.Positions
		m.LastUpdated = time.Now()
		m.Err = nil
		m.updateTable()
		return m, nil

	case PortfolioErrorMsg:
		m.State = PortfolioStateError
		m.Err = msg.Err
		return m, nil
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// updateTable updates the table rows from position data.
func (m *PortfolioModel) updateTable() {
	rows := make([]table.Row, 0, len(m.Positions))
	for _, p := range m.Positions {
		rows = append(rows, table.Row{
			p.Symbol,
			output.FormatQuantity(p.Quantity),
			output.FormatMoney(p.AvgEntryPrice),
			output.FormatMoney(p.CurrentPrice),
			output.FormatMoney(p.MarketValue),
			output.FormatGainLoss(p.UnrealizedPnl),
			output.FormatPercent(p.UnrealizedPnlPercent),
		})
	}
	m.Table.SetRows(rows)
}

// View renders the portfolio view.
func (m *PortfolioModel) View() string {
	var b strings.Builder

	switch m.State {
	case PortfolioStateLoading:
		b.WriteString("Loading portfolio...")
		return b.String()

	case PortfolioStateError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.Err)))
		b.WriteString("\n\nPress 'r' to retry")
		return b.String()

	case PortfolioStateLoaded:
		b.WriteString(SummaryStyle.Render("Portfolio"))
		b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%s)", m.Account.Provider)))
		b.WriteString("\n\n")

		b.WriteString(LabelStyle.Render("Equity: "))
		b.WriteString(ValueStyle.Render(output.FormatMoney(m.Account.Equity)))
		b.WriteString(LabelStyle.Render("  Cash: "))
		b.WriteString(ValueStyle.Render(output.FormatMoney(m.Account.Cash)))
		b.WriteString(LabelStyle.Render("  Buying power: "))
		b.WriteString(ValueStyle.Render(output.FormatMoney(m.Account.BuyingPower)))

		var totalPnl float64
		for _, p := range m.Positions {
			totalPnl += p.UnrealizedPnl
		}
		b.WriteString(LabelStyle.Render("  P&L: "))
		b.WriteString(gainLossStyle(totalPnl).Render(output.FormatGainLoss(totalPnl)))
		b.WriteString("\n\n")

		if len(m.Positions) == 0 {
			b.WriteString(LabelStyle.Render("No positions"))
		} else {
			b.WriteString(m.Table.View())
			b.WriteString("\n")
			b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
		}
	}

	return b.String()
}

// FetchPortfolio returns a command that loads the account and positions.
func FetchPortfolio(svc *trading.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		account, err := svc.Account(ctx)
		if err != nil {
			return PortfolioErrorMsg{Err: err}
		}
		positions, err := svc.Positions(ctx)
		if err != nil {
			return PortfolioErrorMsg{Err: err}
		}
		return PortfolioLoadedMsg{Account: account, Positions: positions}
	}
}
