package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gonum.org/v1/gonum/stat"
)

// goldTicker is the Yahoo Finance gold futures symbol.
const goldTicker = "GC=F"

const (
	goldQuotePage = "https://finance.yahoo.com/quote/GC%3DF"
	historyURL    = "https://query1.finance.yahoo.com/v8/finance/chart/%s?range=%s&interval=1d"
)

// GoldPrice is the spot/futures gold price snapshot.
type GoldPrice struct {
	Price            float64 `json:"price"`
	PreviousClose    float64 `json:"previous_close"`
	DailyChangePct   float64 `json:"daily_change_pct"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	Source           string  `json:"source"`
}

// GetGoldPrice fetches the current gold price, trying the JSON API, then the
// quote page HTML, then the configured fallback. It never fails; valuation
// must proceed even when every feed is down.
func (c *Client) GetGoldPrice(ctx context.Context, fallback float64) GoldPrice {
	cacheKey := "gold_price"
	var g GoldPrice
	if c.cache != nil && c.cache.Get(cacheKey, &g) && g.Price > 0 {
		return g
	}

	g, err := c.goldFromAPI(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("gold price API failed, scraping quote page")
		g, err = c.goldFromHTML(ctx)
	}
	if err != nil || g.Price <= 0 {
		c.log.Warn().Float64("fallback", fallback).Msg("gold price unavailable, using configured fallback")
		return GoldPrice{Price: fallback, Source: "fallback"}
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, g)
	}
	c.log.Info().Float64("price", g.Price).Str("source", g.Source).Msg("gold price fetched")
	return g
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

func (c *Client) goldFromAPI(ctx context.Context) (GoldPrice, error) {
	var resp chartResponse
	if err := c.getJSON(ctx, fmt.Sprintf(chartURL, goldTicker), &resp); err != nil {
		return GoldPrice{}, err
	}
	if len(resp.Chart.Result) == 0 {
		return GoldPrice{}, fmt.Errorf("empty chart result for %s", goldTicker)
	}
	meta := resp.Chart.Result[0].Meta
	g := GoldPrice{
		Price:            meta.RegularMarketPrice,
		PreviousClose:    meta.PreviousClose,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		Source:           "yahoo_api",
	}
	if g.Price <= 0 {
		return GoldPrice{}, fmt.Errorf("chart meta carried no price for %s", goldTicker)
	}
	if g.PreviousClose > 0 {
		g.DailyChangePct = (g.Price - g.PreviousClose) / g.PreviousClose * 100
	}
	return g, nil
}

type chartHistoryResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// closes flattens the first quote series, dropping null and non-positive
// entries Yahoo emits for holidays and halted sessions.
func (r chartHistoryResponse) closes() []float64 {
	if len(r.Chart.Result) == 0 || len(r.Chart.Result[0].Indicators.Quote) == 0 {
		return nil
	}
	raw := r.Chart.Result[0].Indicators.Quote[0].Close
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v != nil && *v > 0 {
			out = append(out, *v)
		}
	}
	return out
}

// GoldStats summarizes a trailing window of daily gold closes.
type GoldStats struct {
	Period        string  `json:"period"`
	Observations  int     `json:"observations"`
	Latest        float64 `json:"latest"`
	Mean          float64 `json:"mean"`
	Median        float64 `json:"median"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Range         float64 `json:"range"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// GetGoldStats fetches daily closes over the period (1mo, 3mo, 6mo, 1y, 2y,
// 5y) and summarizes the distribution. Volatility is the standard deviation
// as a percentage of the mean.
func (c *Client) GetGoldStats(ctx context.Context, period string) (GoldStats, error) {
	if period == "" {
		period = "1y"
	}
	cacheKey := "gold_stats_" + period
	var s GoldStats
	if c.cache != nil && c.cache.Get(cacheKey, &s) && s.Observations > 0 {
		return s, nil
	}

	var resp chartHistoryResponse
	if err := c.getJSON(ctx, fmt.Sprintf(historyURL, goldTicker, period), &resp); err != nil {
		return GoldStats{}, err
	}
	closes := resp.closes()
	if len(closes) == 0 {
		return GoldStats{}, fmt.Errorf("no price history for %s over %s", goldTicker, period)
	}

	sorted := append([]float64(nil), closes...)
	sort.Float64s(sorted)

	s = GoldStats{
		Period:       period,
		Observations: len(closes),
		Latest:       closes[len(closes)-1],
		Mean:         stat.Mean(closes, nil),
		Median:       stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
	}
	if len(closes) > 1 {
		s.StdDev = stat.StdDev(closes, nil)
	}
	s.Range = s.Max - s.Min
	if s.Mean > 0 {
		s.VolatilityPct = s.StdDev / s.Mean * 100
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, s)
	}
	c.log.Debug().Str("period", period).Int("observations", s.Observations).Msg("gold price history summarized")
	return s, nil
}

// goldFromHTML scrapes the streamed price field off the Yahoo quote page.
func (c *Client) goldFromHTML(ctx context.Context) (GoldPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, goldQuotePage, nil)
	if err != nil {
		return GoldPrice{}, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GoldPrice{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GoldPrice{}, fmt.Errorf("quote page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return GoldPrice{}, err
	}

	sel := doc.Find(`fin-streamer[data-symbol="GC=F"][data-field="regularMarketPrice"]`).First()
	raw, ok := sel.Attr("data-value")
	if !ok {
		raw = strings.TrimSpace(sel.Text())
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return GoldPrice{}, fmt.Errorf("could not parse gold price from quote page: %w", err)
	}
	return GoldPrice{Price: price, Source: "yahoo_html"}, nil
}
