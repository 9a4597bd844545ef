// Package tui implements the interactive terminal dashboard: a portfolio
// view, a quote watchlist, and the order book, refreshed on a timer.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skovera/desk/internal/config"
	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/trading"
)

// View represents the current active view in the TUI.
type View int

const (
	ViewPortfolio View = iota
	ViewWatchlist
	ViewOrders
)

// Model is the main bubbletea model for the TUI.
type Model struct {
	currentView View
	width       int
	height      int
	ready       bool

	cfg        *config.Config
	configPath string
	market     *market.Service
	trading    *trading.Service

	// Child view models
	portfolio *PortfolioModel
	watchlist *WatchlistModel
	orders    *OrdersModel

	refreshInterval time.Duration
}

// New creates a new TUI model.
func New(cfg *config.Config, configPath string, marketSvc *market.Service, tradingSvc *trading.Service) Model {
	return Model{
		currentView:     ViewPortfolio,
		cfg:             cfg,
		configPath:      configPath,
		market:          marketSvc,
		trading:         tradingSvc,
		portfolio:       NewPortfolioModel(),
		watchlist:       NewWatchlistModel(cfg.Watchlist),
		orders:          NewOrdersModel(),
		refreshInterval: 30 * time.Second,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		FetchPortfolio(m.trading),
		FetchOrders(m.trading),
		m.tickCmd(),
	}
	if len(m.watchlist.Symbols) > 0 {
		cmds = append(cmds, FetchWatchlistQuotes(m.watchlist.Symbols, m.market))
	}
	return tea.Batch(cmds...)
}

// tickCmd returns a command that sends a tick message after the refresh interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Input and confirmation modes consume all keys
		if m.currentView == ViewWatchlist && m.watchlist.Mode != WatchlistModeNormal {
			m.watchlist, cmd, _ = m.watchlist.Update(msg, m.cfg, m.configPath)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			// After exiting add mode, fetch quotes for anything new
			if m.watchlist.Mode == WatchlistModeNormal && len(m.watchlist.Symbols) > 0 {
				cmds = append(cmds, FetchWatchlistQuotes(m.watchlist.Symbols, m.market))
			}
			return m, tea.Batch(cmds...)
		}
		if m.currentView == ViewOrders && m.orders.Mode != OrdersModeNormal {
			m.orders, cmd, _ = m.orders.Update(msg, m.trading)
			return m, cmd
		}

		// Global keys
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, nil
		case "1":
			m.currentView = ViewPortfolio
		case "2":
			m.currentView = ViewWatchlist
			if m.watchlist.State == WatchlistStateLoading && len(m.watchlist.Symbols) > 0 {
				cmds = append(cmds, FetchWatchlistQuotes(m.watchlist.Symbols, m.market))
			}
		case "3":
			m.currentView = ViewOrders
			if m.orders.State == OrdersStateLoading {
				cmds = append(cmds, FetchOrders(m.trading))
			}
		case "r":
			switch m.currentView {
			case ViewPortfolio:
				m.portfolio.State = PortfolioStateLoading
				cmds = append(cmds, FetchPortfolio(m.trading))
			case ViewWatchlist:
				m.watchlist.State = WatchlistStateLoading
				cmds = append(cmds, FetchWatchlistQuotes(m.watchlist.Symbols, m.market))
			case ViewOrders:
				m.orders.State = OrdersStateLoading
				cmds = append(cmds, FetchOrders(m.trading))
			}
		default:
			// Pass to active view for view-specific keys
			switch m.currentView {
			case ViewWatchlist:
				m.watchlist, cmd, _ = m.watchlist.Update(msg, m.cfg, m.configPath)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			case ViewOrders:
				m.orders, cmd, _ = m.orders.Update(msg, m.trading)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// Resize tables to fit content area
		headerHeight := 1
		footerHeight := 1
		summaryHeight := 5
		tableHeight := m.height - headerHeight - footerHeight - summaryHeight - 4
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.portfolio.SetHeight(tableHeight)
		m.watchlist.SetHeight(tableHeight)
		m.orders.SetHeight(tableHeight)

	case PortfolioLoadedMsg, PortfolioErrorMsg:
		m.portfolio, cmd = m.portfolio.Update(msg)
		cmds = append(cmds, cmd)

	case WatchlistQuotesMsg, WatchlistErrorMsg, WatchlistSavedMsg:
		m.watchlist, cmd, _ = m.watchlist.Update(msg, m.cfg, m.configPath)
		cmds = append(cmds, cmd)

	case OrdersLoadedMsg, OrdersErrorMsg, OrderCanceledMsg, OrderCancelErrorMsg:
		m.orders, cmd, _ = m.orders.Update(msg, m.trading)
		cmds = append(cmds, cmd)

	case TickMsg:
		// Auto-refresh based on current view
		switch {
		case m.currentView == ViewPortfolio && m.portfolio.State != PortfolioStateLoading:
			cmds = append(cmds, FetchPortfolio(m.trading))
		case m.currentView == ViewWatchlist && m.watchlist.State != WatchlistStateLoading && len(m.watchlist.Symbols) > 0:
			cmds = append(cmds, FetchWatchlistQuotes(m.watchlist.Symbols, m.market))
		case m.currentView == ViewOrders && m.orders.State != OrdersStateLoading:
			cmds = append(cmds, FetchOrders(m.trading))
		}
		cmds = append(cmds, m.tickCmd())
	}

	// Update active table for navigation keys
	if m.currentView == ViewPortfolio {
		m.portfolio, cmd = m.portfolio.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	content := m.renderContent()

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight

	// Pad content to fill available space
	contentLines := strings.Split(content, "\n")
	for len(contentLines) < contentHeight {
		contentLines = append(contentLines, "")
	}
	if len(contentLines) > contentHeight {
		contentLines = contentLines[:contentHeight]
	}
	content = strings.Join(contentLines, "\n")

	return header + "\n" + content + "\n" + footer
}

// renderHeader renders the header bar.
func (m Model) renderHeader() string {
	title := HeaderStyle.Render("desk")

	tabs := []struct {
		name   string
		key    string
		active bool
	}{
		{"Portfolio", "1", m.currentView == ViewPortfolio},
		{"Watchlist", "2", m.currentView == ViewWatchlist},
		{"Orders", "3", m.currentView == ViewOrders},
	}

	var tabStrs []string
	for _, tab := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if tab.active {
			style = style.Bold(true).Foreground(ColorPrimary)
		} else {
			style = style.Foreground(ColorMuted)
		}
		tabStrs = append(tabStrs, style.Render(fmt.Sprintf("[%s] %s", tab.key, tab.name)))
	}

	tabBar := strings.Join(tabStrs, " ")
	headerContent := title + "  " + tabBar

	padding := m.width - lipgloss.Width(headerContent)
	if padding > 0 {
		headerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(headerContent)
}

// renderContent renders the main content area.
func (m Model) renderContent() string {
	var content string
	switch m.currentView {
	case ViewPortfolio:
		content = m.portfolio.View()
	case ViewWatchlist:
		content = m.watchlist.View()
	case ViewOrders:
		content = m.orders.View()
	}
	return ContentStyle.Render(content)
}

// renderFooter renders the footer bar with key hints.
func (m Model) renderFooter() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"1-3", "switch view"},
	}

	switch m.currentView {
	case ViewPortfolio:
		keys = append(keys, struct{ key, desc string }{"↑/↓", "navigate"})
		keys = append(keys, struct{ key, desc string }{"r", "refresh"})
	case ViewWatchlist:
		switch m.watchlist.Mode {
		case WatchlistModeNormal:
			keys = append(keys, struct{ key, desc string }{"↑/↓", "navigate"})
			keys = append(keys, struct{ key, desc string }{"a", "add"})
			keys = append(keys, struct{ key, desc string }{"d", "delete"})
			keys = append(keys, struct{ key, desc string }{"r", "refresh"})
		case WatchlistModeAdding:
			keys = []struct{ key, desc string }{
				{"enter", "add"},
				{"esc", "cancel"},
			}
		case WatchlistModeDeleting:
			keys = []struct{ key, desc string }{
				{"y", "confirm"},
				{"n", "cancel"},
			}
		}
	case ViewOrders:
		switch m.orders.Mode {
		case OrdersModeNormal:
			keys = append(keys, struct{ key, desc string }{"↑/↓", "navigate"})
			keys = append(keys, struct{ key, desc string }{"c", "cancel order"})
			keys = append(keys, struct{ key, desc string }{"r", "refresh"})
		case OrdersModeCanceling:
			keys = []struct{ key, desc string }{
				{"y", "confirm"},
				{"n", "cancel"},
			}
		}
	}

	keys = append(keys, struct{ key, desc string }{"q", "quit"})

	var parts []string
	for _, k := range keys {
		parts = append(parts, KeyStyle.Render(k.key)+" "+DescStyle.Render(k.desc))
	}

	footerContent := strings.Join(parts, "  •  ")

	padding := m.width - lipgloss.Width(footerContent)
	if padding > 0 {
		footerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Render(footerContent)
}
