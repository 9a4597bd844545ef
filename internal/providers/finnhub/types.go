package finnhub

import (
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Finnhub's quote response uses single-letter keys; timestamps are epoch
// seconds.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

func (q quoteResponse) toDomain(symbol string) domain.Quote {
	pct := q.ChangePercent
	if pct == 0 && q.Change != 0 {
		pct = domain.ChangePercent(q.Current, q.PrevClose)
	}

	ts := time.Now().UTC()
	if q.Timestamp > 0 {
		ts = time.Unix(q.Timestamp, 0).UTC()
	}

	return domain.Quote{
		Symbol:        symbol,
		Price:         q.Current,
		Change:        q.Change,
		ChangePercent: pct,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		PreviousClose: q.PrevClose,
		Timestamp:     ts,
		Provider:      string(providers.Finnhub),
	}
}

// candleResponse is column-oriented: parallel arrays per field.
type candleResponse struct {
	Close  []float64 `json:"c"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Open   []float64 `json:"o"`
	Times  []int64   `json:"t"`
	Volume []float64 `json:"v"`
	Status string    `json:"s"`
}

func (c candleResponse) toDomain() []domain.Bar {
	bars := make([]domain.Bar, 0, len(c.Times))
	for i := range c.Times {
		bar := domain.Bar{Time: time.Unix(c.Times[i], 0).UTC()}
		if i < len(c.Open) {
			bar.Open = c.Open[i]
		}
		if i < len(c.High) {
			bar.High = c.High[i]
		}
		if i < len(c.Low) {
			bar.Low = c.Low[i]
		}
		if i < len(c.Close) {
			bar.Close = c.Close[i]
		}
		if i < len(c.Volume) {
			bar.Volume = int64(c.Volume[i])
		}
		bars = append(bars, bar)
	}
	return bars
}

type searchResponse struct {
	Count  int            `json:"count"`
	Result []searchResult `json:"result"`
}

type searchResult struct {
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	DisplaySymbol string `json:"displaySymbol"`
}

func (r searchResult) toDomain() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol: r.Symbol,
		Name:   r.Description,
		Type:   r.Type,
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
		symbols = []string{a.Related}
	}
	return domain.NewsItem{
		Headline:    a.Headline,
		Source:      a.Source,
		URL:         a.URL,
		Summary:     a.Summary,
		PublishedAt: time.Unix(a.Datetime, 0).UTC(),
		Symbols:     symbols,
	}
}

type profileResponse struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Industry string `json:"finnhubIndustry"`
	// MarketCapitalization is reported in millions.
	MarketCapitalization float64 `json:"marketCapitalization"`
}

func (p profileResponse) toDomain() domain.CompanyOverview {
	return domain.CompanyOverview{
		Symbol:    p.Ticker,
		Name:      p.Name,
		Exchange:  p.Exchange,
		Industry:  p.Industry,
		MarketCap: p.MarketCapitalization * 1e6,
		Provider:  string(providers.Finnhub),
	}
}

// SentimentScores is Finnhub's news-sentiment shape. All scores are on the
// vendor's 0-1 scale.
type SentimentScores struct {
	Symbol    string `json:"symbol"`
	Sentiment struct {
		BearishPercent float64 `json:"bearishPercent"`
		BullishPercent float64 `json:"bullishPercent"`
	} `json:"sentiment"`
	CompanyNewsScore        float64 `json:"companyNewsScore"`
	SectorAverageNewsScore  float64 `json:"sectorAverageNewsScore"`
	SectorAverageBullishPct float64 `json:"sectorAverageBullishPercent"`
	Buzz                    struct {
		ArticlesInLastWeek int     `json:"articlesInLastWeek"`
		WeeklyAverage      float64 `json:"weeklyAverage"`
	} `json:"buzz"`
}
