package provider

import (
	"context"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	pkghttp "MarketMood/pkg/http"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo is the last-resort fallback for the volatility indicator, reading the
// ^VIX quote off the chart endpoint.
type Yahoo struct {
	client  *pkghttp.Client
	baseURL string
}

func NewYahoo(client *pkghttp.Client, baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &Yahoo{client: client, baseURL: baseURL}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) Supports(ind models.Indicator) bool {
	return ind == models.IndicatorVolatility
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"` // unix seconds
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) Fetch(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	var doc chartResponse
	err := y.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/%5EVIX",
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		},
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {"1d"},
		},
	}, &doc)
	if err != nil {
		return nil, classifyFetchError(y.Name(), ind, err)
	}
	if doc.Chart.Error != nil {
		return nil, models.NewAdapterError(y.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("chart error %s: %s", doc.Chart.Error.Code, doc.Chart.Error.Description))
	}
	if len(doc.Chart.Result) == 0 || doc.Chart.Result[0].Meta.RegularMarketPrice == 0 {
		return nil, models.NewAdapterError(y.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("empty chart result"))
	}

	meta := doc.Chart.Result[0].Meta
	var observed time.Time
	if meta.RegularMarketTime > 0 {
		observed = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return &models.Reading{
		Indicator:  ind,
		Value:      meta.RegularMarketPrice,
		ObservedAt: observed,
		Source:     y.Name(),
	}, nil
}
