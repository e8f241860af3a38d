package testutil

import applogger "MarketMood/pkg/logger"

// Logger returns an error-level logger so tests stay quiet.
func Logger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		panic(err)
	}
	return l
}
