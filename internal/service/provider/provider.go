package provider

import (
	"context"
	"errors"
	"net"
	"strings"

	"MarketMood/internal/domain/models"
)

// classifyFetchError maps transport failures onto adapter error kinds so the
// orchestrator's retry ladder and logs see a uniform shape.
func classifyFetchError(adapter string, ind models.Indicator, err error) error {
	kind := models.AdapterBadResponse
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.AdapterTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = models.AdapterTimeout
	case strings.Contains(err.Error(), "status 429"):
		kind = models.AdapterRateLimited
	}
	return models.NewAdapterError(adapter, ind, kind, err)
}
