package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ChartAPIError is a structured error returned by the chart API, e.g. for
// a delisted ticker.
type ChartAPIError struct {
	Code        string
	Description string
}

func (e ChartAPIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("chart api error: code=%s", e.Code)
	}
	return fmt.Sprintf("chart api error: code=%s description=%s", e.Code, e.Description)
}

// ChartClient fetches daily adjusted-close series from a Yahoo-compatible
// chart API.
type ChartClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewChartClient(baseURL string, httpClient *http.Client) *ChartClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChartClient{BaseURL: baseURL, HTTPClient: httpClient}
}

// Point is one daily bar. AdjClose is nil when the API reports no close for
// the day (holiday padding, freshly listed ticker).
type Point struct {
	Timestamp int64
	AdjClose  *float64
}

type Series struct {
	Ticker string
	Points []Point
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (c *ChartClient) AdjustedClose(ctx context.Context, ticker string, start, end time.Time) (Series, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Series{}, errors.New("ticker is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		return Series{}, errors.New("chart base_url is required")
	}

	u, err := url.Parse(baseURL + "/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return Series{}, err
	}
	q := u.Query()
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Series{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Series{}, err
	}

	// The API reports ticker-level failures as a JSON error body, also on
	// non-200 responses.
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Series{}, fmt.Errorf("chart http status=%d body=%q", resp.StatusCode, truncate(string(body), 256))
		}
		return Series{}, fmt.Errorf("decode chart response: %w", err)
	}
	if cr.Chart.Error != nil {
		return Series{}, ChartAPIError{Code: cr.Chart.Error.Code, Description: cr.Chart.Error.Description}
	}
	if resp.StatusCode != http.StatusOK {
		return Series{}, fmt.Errorf("chart http status=%d", resp.StatusCode)
	}
	if len(cr.Chart.Result) == 0 {
		return Series{}, fmt.Errorf("chart returned no result for %s", ticker)
	}

	result := cr.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	}

	n := len(result.Timestamp)
	if len(closes) < n {
		n = len(closes)
	}
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, Point{Timestamp: result.Timestamp[i], AdjClose: closes[i]})
	}
	return Series{Ticker: ticker, Points: points}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
