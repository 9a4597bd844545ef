package polygon

import (
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Polygon timestamps arrive as epoch milliseconds in aggregates and epoch
// nanoseconds on trades.

type snapshotResponse struct {
	Status string         `json:"status"`
	Ticker snapshotTicker `json:"ticker"`
}

type snapshotTicker struct {
	Ticker           string       `json:"ticker"`
	TodaysChange     float64      `json:"todaysChange"`
	TodaysChangePerc float64      `json:"todaysChangePerc"`
	Day              snapshotOHLC `json:"day"`
	PrevDay          snapshotOHLC `json:"prevDay"`
	LastTrade        struct {
		Price     float64 `json:"p"`
		Timestamp int64   `json:"t"`
	} `json:"lastTrade"`
}

type snapshotOHLC struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

func (t snapshotTicker) toQuote() domain.Quote {
	price := t.LastTrade.Price
	if price == 0 {
		price = t.Day.Close
	}
	pct := t.TodaysChangePerc
	if pct == 0 && t.TodaysChange != 0 {
		pct = domain.ChangePercent(price, t.PrevDay.Close)
	}

	ts := time.Now().UTC()
	if t.LastTrade.Timestamp > 0 {
		ts = time.Unix(0, t.LastTrade.Timestamp).UTC()
	}

	return domain.Quote{
		Symbol:        t.Ticker,
		Price:         price,
		Change:        t.TodaysChange,
		ChangePercent: pct,
		Volume:        int64(t.Day.Volume),
		Open:          t.Day.Open,
		High:          t.Day.High,
		Low:           t.Day.Low,
		PreviousClose: t.PrevDay.Close,
		Timestamp:     ts,
		Provider:      string(providers.Polygon),
	}
}

func (t snapshotTicker) toMover() domain.Mover {
	price := t.LastTrade.Price
	if price == 0 {
		price = t.Day.Close
	}
	return domain.Mover{
		Symbol:        t.Ticker,
		Price:         price,
		Change:        t.TodaysChange,
		ChangePercent: t.TodaysChangePerc,
		Volume:        int64(t.Day.Volume),
	}
}

type aggsResponse struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []agg  `json:"results"`
}

type agg struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

func (a agg) toBar() domain.Bar {
	return domain.Bar{
		Time:   time.UnixMilli(a.Timestamp).UTC(),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: int64(a.Volume),
	}
}

type moversResponse struct {
	Status  string           `json:"status"`
	Tickers []snapshotTicker `json:"tickers"`
}

type tickersResponse struct {
	Status  string         `json:"status"`
	Results []tickerResult `json:"results"`
}

type tickerResult struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Locale       string `json:"locale"`
	CurrencyName string `json:"currency_name"`
}

func (r tickerResult) toMatch() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol:   r.Ticker,
		Name:     r.Name,
		Type:     r.Type,
		Region:   r.Locale,
		Currency: r.CurrencyName,
	}
}

type newsResponse struct {
	Results []newsArticle `json:"results"`
}

type newsArticle struct {
	Title       string   `json:"title"`
	ArticleURL  string   `json:"article_url"`
	Description string   `json:"description"`
	PublishedAt string   `json:"published_utc"`
	Tickers     []string `json:"tickers"`
	Publisher   struct {
		Name string `json:"name"`
	} `json:"publisher"`
}

func (a newsArticle) toDomain() domain.NewsItem {
	published, _ := time.Parse(time.RFC3339, a.PublishedAt)
	return domain.NewsItem{
		Headline:    a.Title,
		Source:      a.Publisher.Name,
		URL:         a.ArticleURL,
		Summary:     a.Description,
		PublishedAt: published,
		Symbols:     a.Tickers,
	}
}

type tickerDetailsResponse struct {
	Results tickerDetails `json:"results"`
}

type tickerDetails struct {
	Ticker          string  `json:"ticker"`
	Name            string  `json:"name"`
	PrimaryExchange string  `json:"primary_exchange"`
	SICDescription  string  `json:"sic_description"`
	Description     string  `json:"description"`
	MarketCap       float64 `json:"market_cap"`
}

func (d tickerDetails) toOverview() domain.CompanyOverview {
	return domain.CompanyOverview{
		Symbol:      d.Ticker,
		Name:        d.Name,
		Exchange:    d.PrimaryExchange,
		Industry:    d.SICDescription,
		Description: d.Description,
		MarketCap:   d.MarketCap,
		Provider:    string(providers.Polygon),
	}
}
