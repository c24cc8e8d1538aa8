package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Market is one row of the CoinGecko /coins/markets response. Market cap and
// volume are pointers because the API reports them as null for thin markets.
type Market struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	CurrentPrice float64  `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	TotalVolume  *float64 `json:"total_volume"`
}

type CoinGeckoClient struct {
	baseURL    string
	vsCurrency string
	perPage    int
	httpClient *http.Client
}

func NewCoinGeckoClient(baseURL, vsCurrency string, perPage int, timeout time.Duration) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    baseURL,
		vsCurrency: vsCurrency,
		perPage:    perPage,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetMarkets fetches the top markets ordered by market cap descending.
func (c *CoinGeckoClient) GetMarkets(ctx context.Context) ([]Market, error) {
	endpoint := fmt.Sprintf(
		"%s/coins/markets?vs_currency=%s&order=market_cap_desc&per_page=%d&page=1&sparkline=false",
		c.baseURL,
		c.vsCurrency,
		c.perPage,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko error: %s", body)
	}

	var markets []Market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return markets, nil
}
