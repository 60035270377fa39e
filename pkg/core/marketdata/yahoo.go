package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"goldval/pkg/logging"
)

// UserAgent identifies us to Yahoo; bare Go user agents get rejected.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 goldval/1.0"

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart/%s?range=5d&interval=1d"
	summaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=price,defaultKeyStatistics,financialData,balanceSheetHistoryQuarterly"
)

// Quote is one ticker's market snapshot.
type Quote struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	Exchange          string  `json:"exchange"`
	Currency          string  `json:"currency"`
	CurrentPrice      float64 `json:"current_price"`
	PreviousClose     float64 `json:"previous_close"`
	DailyChangePct    float64 `json:"daily_change_pct"`
	MarketCap         float64 `json:"market_cap"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	FloatShares       float64 `json:"float_shares"`
	FiftyTwoWeekHigh  float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow   float64 `json:"fifty_two_week_low"`
	Volume            float64 `json:"volume"`
	Beta              float64 `json:"beta"`
}

// CashPosition is one ticker's balance-sheet snapshot, most recent quarter
// first in HistoricalCash.
type CashPosition struct {
	CashAndEquivalents   float64   `json:"cash_and_equivalents"`
	ShortTermInvestments float64   `json:"short_term_investments"`
	TotalCash            float64   `json:"total_cash"`
	TotalDebt            float64   `json:"total_debt"`
	NetCash              float64   `json:"net_cash"`
	QuarterlyBurn        float64   `json:"quarterly_burn"`
	RunwayMonths         float64   `json:"runway_months"`
	HistoricalCash       []float64 `json:"historical_cash"`
}

// Client fetches Yahoo Finance data with a TTL cache in front.
type Client struct {
	httpClient *http.Client
	cache      *Cache
	log        zerolog.Logger
}

// NewClient builds a fetcher. cache may be nil to disable caching.
func NewClient(cache *Cache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		log:        logging.ForComponent("marketdata"),
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// yfValue is Yahoo's {raw, fmt} number wrapper.
type yfValue struct {
	Raw float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
				ExchangeName       string  `json:"exchangeName"`
				Currency           string  `json:"currency"`
				RegularMarketPrice yfValue `json:"regularMarketPrice"`
				RegularMarketPrev  yfValue `json:"regularMarketPreviousClose"`
				MarketCap          yfValue `json:"marketCap"`
				Volume             yfValue `json:"regularMarketVolume"`
			} `json:"price"`
			KeyStatistics struct {
				SharesOutstanding yfValue `json:"sharesOutstanding"`
				FloatShares       yfValue `json:"floatShares"`
				Beta              yfValue `json:"beta"`
				High52            yfValue `json:"52WeekHigh"`
				Low52             yfValue `json:"52WeekLow"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				TotalCash yfValue `json:"totalCash"`
				TotalDebt yfValue `json:"totalDebt"`
			} `json:"financialData"`
			BalanceSheet struct {
				Statements []struct {
					Cash                 yfValue `json:"cash"`
					ShortTermInvestments yfValue `json:"shortTermInvestments"`
				} `json:"balanceSheetStatements"`
			} `json:"balanceSheetHistoryQuarterly"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// GetQuote fetches the market snapshot for one ticker.
func (c *Client) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	cacheKey := "quote_" + ticker
	var q Quote
	if c.cache != nil && c.cache.Get(cacheKey, &q) && q.CurrentPrice > 0 {
		return q, nil
	}

	var resp summaryResponse
	if err := c.getJSON(ctx, fmt.Sprintf(summaryURL, ticker), &resp); err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}
	if resp.QuoteSummary.Error != nil {
		return Quote{}, fmt.Errorf("yahoo error for %s: %s", ticker, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return Quote{}, fmt.Errorf("no quote data for %s", ticker)
	}

	r := resp.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	q = Quote{
		Ticker:            ticker,
		Name:              name,
		Exchange:          r.Price.ExchangeName,
		Currency:          r.Price.Currency,
		CurrentPrice:      r.Price.RegularMarketPrice.Raw,
		PreviousClose:     r.Price.RegularMarketPrev.Raw,
		MarketCap:         r.Price.MarketCap.Raw,
		SharesOutstanding: r.KeyStatistics.SharesOutstanding.Raw,
		FloatShares:       r.KeyStatistics.FloatShares.Raw,
		FiftyTwoWeekHigh:  r.KeyStatistics.High52.Raw,
		FiftyTwoWeekLow:   r.KeyStatistics.Low52.Raw,
		Volume:            r.Price.Volume.Raw,
		Beta:              r.KeyStatistics.Beta.Raw,
	}
	if q.MarketCap == 0 && q.SharesOutstanding > 0 && q.CurrentPrice > 0 {
		q.MarketCap = q.SharesOutstanding * q.CurrentPrice
	}
	if q.PreviousClose > 0 {
		q.DailyChangePct = (q.CurrentPrice - q.PreviousClose) / q.PreviousClose * 100
	}

	if c.cache != nil && q.CurrentPrice > 0 {
		c.cache.Set(cacheKey, q)
	}
	c.log.Debug().Str("ticker", ticker).Float64("price", q.CurrentPrice).Msg("quote fetched")
	return q, nil
}

// GetCashPosition fetches the balance-sheet snapshot for one ticker and
// derives burn and runway from the quarterly cash history.
func (c *Client) GetCashPosition(ctx context.Context, ticker string) (CashPosition, error) {
	cacheKey := "cash_" + ticker
	var p CashPosition
	if c.cache != nil && c.cache.Get(cacheKey, &p) && p.TotalCash > 0 {
		return p, nil
	}

	var resp summaryResponse
	if err := c.getJSON(ctx, fmt.Sprintf(summaryURL, ticker), &resp); err != nil {
		return CashPosition{}, fmt.Errorf("failed to fetch cash position for %s: %w", ticker, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return CashPosition{}, fmt.Errorf("no balance sheet data for %s", ticker)
	}

	r := resp.QuoteSummary.Result[0]
	p = CashPosition{
		TotalCash: r.FinancialData.TotalCash.Raw,
		TotalDebt: r.FinancialData.TotalDebt.Raw,
	}
	for i, s := range r.BalanceSheet.Statements {
		quarterCash := s.Cash.Raw + s.ShortTermInvestments.Raw
		p.HistoricalCash = append(p.HistoricalCash, quarterCash)
		if i == 0 {
			p.CashAndEquivalents = s.Cash.Raw
			p.ShortTermInvestments = s.ShortTermInvestments.Raw
			if p.TotalCash == 0 {
				p.TotalCash = quarterCash
			}
		}
	}
	p.NetCash = p.TotalCash - p.TotalDebt
	p.QuarterlyBurn = averageBurn(p.HistoricalCash)
	if p.QuarterlyBurn > 0 {
		p.RunwayMonths = p.TotalCash / p.QuarterlyBurn * 3
	}

	if c.cache != nil && p.TotalCash > 0 {
		c.cache.Set(cacheKey, p)
	}
	return p, nil
}

// averageBurn is the mean quarter-over-quarter cash decline, most recent
// first; zero when cash has been flat or rising.
func averageBurn(historical []float64) float64 {
	if len(historical) < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < len(historical)-1; i++ {
		sum += historical[i+1] - historical[i]
	}
	avg := sum / float64(len(historical)-1)
	if avg < 0 {
		return 0
	}
	return avg
}
