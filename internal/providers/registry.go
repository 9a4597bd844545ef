package providers

import (
	"github.com/rs/zerolog"
)

// Registry holds the registered adapters and applies the selection
// algorithm: force-mock short-circuits to the default adapter; an explicit
// available provider is used as-is; otherwise the preference order is
// walked and the first available adapter wins; when nothing is available
// the default (mock) adapter serves.
type Registry struct {
	log       zerolog.Logger
	forceMock bool

	market      map[ID]MarketData
	marketOrder []ID

	trading      map[ID]Trading
	tradingOrder []ID

	defaultMarket  MarketData
	defaultTrading Trading
}

// NewRegistry returns an empty registry. ForceMock pins every selection to
// the default adapters regardless of configured credentials.
func NewRegistry(forceMock bool, log zerolog.Logger) *Registry {
	return &Registry{
		log:       log.With().Str("component", "registry").Logger(),
		forceMock: forceMock,
		market:    make(map[ID]MarketData),
		trading:   make(map[ID]Trading),
	}
}

// ForceMock reports whether selections are pinned to the default adapters.
func (r *Registry) ForceMock() bool {
	return r.forceMock
}

// RegisterMarket adds a market-data adapter. Registration order is the
// default preference order.
func (r *Registry) RegisterMarket(p MarketData) {
	if _, dup := r.market[p.ID()]; !dup {
		r.marketOrder = append(r.marketOrder, p.ID())
	}
	r.market[p.ID()] = p
}

// RegisterTrading adds a trading adapter.
func (r *Registry) RegisterTrading(p Trading) {
	if _, dup := r.trading[p.ID()]; !dup {
		r.tradingOrder = append(r.tradingOrder, p.ID())
	}
	r.trading[p.ID()] = p
}

// SetDefaults installs the fallback adapters used when force-mock is on or
// no registered provider is available.
func (r *Registry) SetDefaults(m MarketData, t Trading) {
	r.defaultMarket = m
	r.defaultTrading = t
}

// SetMarketPreference reorders the market walk. Unknown names are dropped
// with a warning; registered adapters missing from the list keep their
// registration order after the listed ones.
func (r *Registry) SetMarketPreference(names []string) {
	r.marketOrder = r.reorder(r.marketOrder, names, func(id ID) bool {
		_, ok := r.market[id]
		return ok
	})
}

// SetTradingPreference reorders the trading walk.
func (r *Registry) SetTradingPreference(names []string) {
	r.tradingOrder = r.reorder(r.tradingOrder, names, func(id ID) bool {
		_, ok := r.trading[id]
		return ok
	})
}

func (r *Registry) reorder(current []ID, names []string, registered func(ID) bool) []ID {
	seen := make(map[ID]bool, len(current))
	out := make([]ID, 0, len(current))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil || !registered(id) {
			r.log.Warn().Str("provider", name).Msg("ignoring unknown provider in preference order")
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range current {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// MarketWalk returns the adapters to try for one market-data operation, in
// order. An explicit available preference pins the walk to that single
// adapter; pinning to mock routes to the default adapter. Otherwise the
// preference order is filtered to available adapters, and the default
// serves only when no registered adapter is available — synthetic data
// never shadows a configured provider.
func (r *Registry) MarketWalk(pref ID) []MarketData {
	if r.forceMock || pref == Mock {
		return []MarketData{r.defaultMarket}
	}
	if pref != "" && pref != Auto {
		if p, ok := r.market[pref]; ok && p.Available() {
			return []MarketData{p}
		}
		r.log.Debug().Str("provider", string(pref)).Msg("requested provider unavailable, walking preference order")
	}
	var out []MarketData
	for _, id := range r.marketOrder {
		if p := r.market[id]; p.Available() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []MarketData{r.defaultMarket}
	}
	return out
}

// TradingWalk returns the adapters to try for one trading operation, with
// the same selection rules as MarketWalk.
func (r *Registry) TradingWalk(pref ID) []Trading {
	if r.forceMock || pref == Mock {
		return []Trading{r.defaultTrading}
	}
	if pref != "" && pref != Auto {
		if p, ok := r.trading[pref]; ok && p.Available() {
			return []Trading{p}
		}
		r.log.Debug().Str("provider", string(pref)).Msg("requested provider unavailable, walking preference order")
	}
	var out []Trading
	for _, id := range r.tradingOrder {
		if p := r.trading[id]; p.Available() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []Trading{r.defaultTrading}
	}
	return out
}

// Status describes one registered provider for display.
type Status struct {
	ID        ID
	Market    bool
	Trading   bool
	Available bool
}

// Statuses lists every registered adapter plus the defaults, market order
// first.
func (r *Registry) Statuses() []Status {
	byID := make(map[ID]*Status)
	var order []ID

	record := func(id ID, market, trading, available bool) {
		s, ok := byID[id]
		if !ok {
			s = &Status{ID: id}
			byID[id] = s
			order = append(order, id)
		}
		s.Market = s.Market || market
		s.Trading = s.Trading || trading
		s.Available = s.Available || available
	}

	for _, id := range r.marketOrder {
		record(id, true, false, r.market[id].Available())
	}
	for _, id := range r.tradingOrder {
		record(id, false, true, r.trading[id].Available())
	}
	if r.defaultMarket != nil {
		record(r.defaultMarket.ID(), true, false, r.defaultMarket.Available())
	}
	if r.defaultTrading != nil {
		record(r.defaultTrading.ID(), false, true, r.defaultTrading.Available())
	}

	out := make([]Status, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
