package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketMood/internal/domain/models"
	pkghttp "MarketMood/pkg/http"
	"MarketMood/pkg/util"
)

const defaultAlternativeBaseURL = "https://api.alternative.me"

// Alternative is the first fallback for the composite index. It serves only
// the composite; the orchestrator's ladder skips it for everything else.
type Alternative struct {
	client  *pkghttp.Client
	baseURL string
}

func NewAlternative(client *pkghttp.Client, baseURL string) *Alternative {
	if baseURL == "" {
		baseURL = defaultAlternativeBaseURL
	}
	return &Alternative{client: client, baseURL: baseURL}
}

func (a *Alternative) Name() string { return "alternative" }

func (a *Alternative) Supports(ind models.Indicator) bool {
	return ind == models.IndicatorComposite
}

type fngResponse struct {
	Data []struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"` // unix seconds as string
	} `json:"data"`
}

func (a *Alternative) Fetch(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	var doc fngResponse
	err := a.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    a.baseURL + "/fng/",
	}, &doc)
	if err != nil {
		return nil, classifyFetchError(a.Name(), ind, err)
	}
	if len(doc.Data) == 0 {
		return nil, models.NewAdapterError(a.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("empty fng data"))
	}

	entry := doc.Data[0]
	value, err := strconv.ParseFloat(entry.Value, 64)
	if err != nil {
		return nil, models.NewAdapterError(a.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("non-numeric value %q", entry.Value))
	}

	var observed time.Time
	if t, ok := util.ParseTime(entry.Timestamp); ok {
		observed = t.UTC()
	}
	return &models.Reading{
		Indicator:  ind,
		Value:      value,
		ObservedAt: observed,
		Source:     a.Name(),
	}, nil
}
