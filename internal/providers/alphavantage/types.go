package alphavantage

import (
	"strconv"
	"strings"
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Alpha Vantage encodes every value as a string under numbered labels, and
// reports free-tier throttling as a 200 response whose body is just a Note
// or Information message. Every response type embeds apiNote so the client
// can detect that case uniformly.

type noteChecker interface {
	note() string
}

type apiNote struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

func (n apiNote) note() string {
	if n.Note != "" {
		return n.Note
	}
	return n.Information
}

type globalQuoteResponse struct {
	apiNote
	GlobalQuote globalQuote `json:"Global Quote"`
}

type globalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestDay     string `json:"07. latest trading day"`
	PreviousClose string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

func (q globalQuote) toDomain() domain.Quote {
	price := parseFloat(q.Price)
	prev := parseFloat(q.PreviousClose)
	pct := parseFloat(strings.TrimSuffix(q.ChangePercent, "%"))
	if q.ChangePercent == "" {
		pct = domain.ChangePercent(price, prev)
	}

	ts := time.Now().UTC()
	if t, err := time.Parse("2006-01-02", q.LatestDay); err == nil {
		ts = t
	}

	return domain.Quote{
		Symbol:        q.Symbol,
		Price:         price,
		Change:        parseFloat(q.Change),
		ChangePercent: pct,
		Volume:        parseInt(q.Volume),
		Open:          parseFloat(q.Open),
		High:          parseFloat(q.High),
		Low:           parseFloat(q.Low),
		PreviousClose: prev,
		Timestamp:     ts,
		Provider:      string(providers.AlphaVantage),
	}
}

// timeSeriesResponse holds whichever "Time Series (...)" object the chosen
// function returns. The key varies per function, so the series are captured
// into a map keyed by the series label.
type timeSeriesResponse struct {
	apiNote
	Daily    map[string]seriesBar `json:"Time Series (Daily)"`
	Weekly   map[string]seriesBar `json:"Weekly Time Series"`
	Min1     map[string]seriesBar `json:"Time Series (1min)"`
	Min5     map[string]seriesBar `json:"Time Series (5min)"`
	Min15    map[string]seriesBar `json:"Time Series (15min)"`
	Min30    map[string]seriesBar `json:"Time Series (30min)"`
	Min60    map[string]seriesBar `json:"Time Series (60min)"`
	Metadata map[string]string    `json:"Meta Data"`
}

func (r timeSeriesResponse) series(key string) map[string]seriesBar {
	switch key {
	case "Time Series (Daily)":
		return r.Daily
	case "Weekly Time Series":
		return r.Weekly
	case "Time Series (1min)":
		return r.Min1
	case "Time Series (5min)":
		return r.Min5
	case "Time Series (15min)":
		return r.Min15
	case "Time Series (30min)":
		return r.Min30
	case "Time Series (60min)":
		return r.Min60
	}
	return nil
}

type seriesBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

func (b seriesBar) toDomain(stamp string) domain.Bar {
	t, err := time.Parse("2006-01-02 15:04:05", stamp)
	if err != nil {
		t, _ = time.Parse("2006-01-02", stamp)
	}
	return domain.Bar{
		Time:   t,
		Open:   parseFloat(b.Open),
		High:   parseFloat(b.High),
		Low:    parseFloat(b.Low),
		Close:  parseFloat(b.Close),
		Volume: parseInt(b.Volume),
	}
}

type symbolSearchResponse struct {
	apiNote
	BestMatches []symbolMatch `json:"bestMatches"`
}

type symbolMatch struct {
	Symbol   string `json:"1. symbol"`
	Name     string `json:"2. name"`
	Type     string `json:"3. type"`
	Region   string `json:"4. region"`
	Currency string `json:"8. currency"`
}

func (m symbolMatch) toDomain() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol:   m.Symbol,
		Name:     m.Name,
		Type:     m.Type,
		Region:   m.Region,
		Currency: m.Currency,
	}
}

type topMoversResponse struct {
	apiNote
	TopGainers         []moverEntry `json:"top_gainers"`
	TopLosers          []moverEntry `json:"top_losers"`
	MostActivelyTraded []moverEntry `json:"most_actively_traded"`
}

type moverEntry struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

func (m moverEntry) toDomain() domain.Mover {
	return domain.Mover{
		Symbol:        m.Ticker,
		Price:         parseFloat(m.Price),
		Change:        parseFloat(m.ChangeAmount),
		ChangePercent: parseFloat(strings.TrimSuffix(m.ChangePercentage, "%")),
		Volume:        parseInt(m.Volume),
	}
}

type newsResponse struct {
	apiNote
	Feed []newsFeedItem `json:"feed"`
}

type newsFeedItem struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	TimePublished string `json:"time_published"`
	Summary       string `json:"summary"`
	Source        string `json:"source"`
	TickerInfo    []struct {
		Ticker string `json:"ticker"`
	} `json:"ticker_sentiment"`
}

func (f newsFeedItem) toDomain() domain.NewsItem {
	published, _ := time.Parse("20060102T150405", f.TimePublished)
	symbols := make([]string, 0, len(f.TickerInfo))
	for _, t := range f.TickerInfo {
		symbols = append(symbols, t.Ticker)
	}
	return domain.NewsItem{
		Headline:    f.Title,
		Source:      f.Source,
		URL:         f.URL,
		Summary:     f.Summary,
		PublishedAt: published,
		Symbols:     symbols,
	}
}

type overviewResponse struct {
	apiNote
	Symbol        string `json:"Symbol"`
	Name          string `json:"Name"`
	Exchange      string `json:"Exchange"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	Description   string `json:"Description"`
	MarketCap     string `json:"MarketCapitalization"`
	PERatio       string `json:"PERatio"`
	EPS           string `json:"EPS"`
	DividendYield string `json:"DividendYield"`
	High52        string `json:"52WeekHigh"`
	Low52         string `json:"52WeekLow"`
}

func (r overviewResponse) toDomain() domain.CompanyOverview {
	return domain.CompanyOverview{
		Symbol:        r.Symbol,
		Name:          r.Name,
		Exchange:      r.Exchange,
		Sector:        r.Sector,
		Industry:      r.Industry,
		Description:   r.Description,
		MarketCap:     parseFloat(r.MarketCap),
		PERatio:       parseFloat(r.PERatio),
		EPS:           parseFloat(r.EPS),
		DividendYield: parseFloat(r.DividendYield),
		High52:        parseFloat(r.High52),
		Low52:         parseFloat(r.Low52),
		Provider:      string(providers.AlphaVantage),
	}
}

// parseFloat tolerates the vendor's "None"/empty placeholders, returning 0.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
