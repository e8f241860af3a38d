package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketMood/internal/domain/models"
	pkghttp "MarketMood/pkg/http"
)

const defaultCNNBaseURL = "https://production.dataviz.cnn.io"

// CNN is the primary adapter. One graphdata document carries every tracked
// indicator, so any Fetch parses the same endpoint.
type CNN struct {
	client  *pkghttp.Client
	baseURL string
}

func NewCNN(client *pkghttp.Client, baseURL string) *CNN {
	if baseURL == "" {
		baseURL = defaultCNNBaseURL
	}
	return &CNN{client: client, baseURL: baseURL}
}

func (c *CNN) Name() string { return "cnn" }

func (c *CNN) Supports(ind models.Indicator) bool { return ind.Valid() }

// cnnGraphData mirrors the slices of the graphdata document we consume.
type cnnGraphData struct {
	FearAndGreed struct {
		Score     float64 `json:"score"`
		Rating    string  `json:"rating"`
		Timestamp string  `json:"timestamp"`
	} `json:"fear_and_greed"`
	MarketMomentum  cnnIndicator `json:"market_momentum_sp500"`
	PutCallOptions  cnnIndicator `json:"put_call_options"`
	Volatility      cnnIndicator `json:"market_volatility_vix"`
	SafeHavenDemand cnnIndicator `json:"safe_haven_demand"`
	JunkBondDemand  cnnIndicator `json:"junk_bond_demand"`
}

type cnnIndicator struct {
	Timestamp float64 `json:"timestamp"`
	Score     float64 `json:"score"`
	Rating    string  `json:"rating"`
}

func (c *CNN) Fetch(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	var doc cnnGraphData
	err := c.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/index/fearandgreed/graphdata",
		// The endpoint rejects non-browser agents.
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Accept":     "application/json",
		},
	}, &doc)
	if err != nil {
		return nil, classifyFetchError(c.Name(), ind, err)
	}

	switch ind {
	case models.IndicatorComposite:
		observed, _ := parseCNNTimestamp(doc.FearAndGreed.Timestamp)
		return &models.Reading{
			Indicator:  ind,
			Value:      doc.FearAndGreed.Score,
			ObservedAt: observed,
			Source:     c.Name(),
		}, nil
	case models.IndicatorVolatility:
		return c.reading(ind, doc.Volatility)
	case models.IndicatorMomentum:
		return c.reading(ind, doc.MarketMomentum)
	case models.IndicatorPutCall:
		return c.reading(ind, doc.PutCallOptions)
	case models.IndicatorSafeHaven:
		return c.reading(ind, doc.SafeHavenDemand)
	case models.IndicatorJunkBond:
		return c.reading(ind, doc.JunkBondDemand)
	default:
		return nil, models.NewAdapterError(c.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("indicator not in graphdata"))
	}
}

func (c *CNN) reading(ind models.Indicator, raw cnnIndicator) (*models.Reading, error) {
	if raw.Score == 0 && raw.Timestamp == 0 {
		return nil, models.NewAdapterError(c.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("missing %s section", ind))
	}
	var observed time.Time
	if raw.Timestamp > 0 {
		// Millisecond epoch.
		observed = time.UnixMilli(int64(raw.Timestamp)).UTC()
	}
	return &models.Reading{
		Indicator:  ind,
		Value:      raw.Score,
		ObservedAt: observed,
		Source:     c.Name(),
	}, nil
}

// parseCNNTimestamp handles both RFC3339 strings and millisecond epochs,
// since the composite section has shipped both over time.
func parseCNNTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}
