package iexcloud

import (
	"strings"
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

type quoteResponse struct {
	Symbol        string  `json:"symbol"`
	LatestPrice   float64 `json:"latestPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	LatestVolume  int64   `json:"latestVolume"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previousClose"`
	LatestUpdate  int64   `json:"latestUpdate"`
}

func (q quoteResponse) toDomain() domain.Quote {
	// IEX reports changePercent as a fraction (0.0261 for 2.61%).
	pct := q.ChangePercent * 100
	if q.ChangePercent == 0 {
		pct = domain.ChangePercent(q.LatestPrice, q.PreviousClose)
	}

	ts := time.Now().UTC()
	if q.LatestUpdate > 0 {
		ts = time.UnixMilli(q.LatestUpdate).UTC()
	}

	return domain.Quote{
		Symbol:        q.Symbol,
		Price:         q.LatestPrice,
		Change:        q.Change,
		ChangePercent: pct,
		Volume:        q.LatestVolume,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		PreviousClose: q.PreviousClose,
		Timestamp:     ts,
		Provider:      string(providers.IEXCloud),
	}
}

func (q quoteResponse) toMover() domain.Mover {
	return domain.Mover{
		Symbol:        q.Symbol,
		Price:         q.LatestPrice,
		Change:        q.Change,
		ChangePercent: q.ChangePercent * 100,
		Volume:        q.LatestVolume,
	}
}

type chartBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (b chartBar) toDomain() domain.Bar {
	t, _ := time.Parse("2006-01-02", b.Date)
	return domain.Bar{
		Time:   t,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

type searchResult struct {
	Symbol       string `json:"symbol"`
	SecurityName string `json:"securityName"`
	SecurityType string `json:"securityType"`
	Region       string `json:"region"`
	Currency     string `json:"currency"`
}

func (r searchResult) toDomain() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol:   r.Symbol,
		Name:     r.SecurityName,
		Type:     r.SecurityType,
		Region:   r.Region,
		Currency: r.Currency,
	}
}

type newsArticle struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Related  string `json:"related"`
}

func (a newsArticle) toDomain() domain.NewsItem {
	var symbols []string
	if a.Related != "" {
		symbols = strings.Split(a.Related, ",")
	}
	return domain.NewsItem{
		Headline:    a.Headline,
		Source:      a.Source,
		URL:         a.URL,
		Summary:     a.Summary,
		PublishedAt: time.UnixMilli(a.Datetime).UTC(),
		Symbols:     symbols,
	}
}

type companyResponse struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Exchange    string `json:"exchange"`
	Industry    string `json:"industry"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
}

func (c companyResponse) toDomain() domain.CompanyOverview {
	return domain.CompanyOverview{
		Symbol:      c.Symbol,
		Name:        c.CompanyName,
		Exchange:    c.Exchange,
		Sector:      c.Sector,
		Industry:    c.Industry,
		Description: c.Description,
		Provider:    string(providers.IEXCloud),
	}
}
