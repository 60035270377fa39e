package models

import (
	"errors"
	"fmt"
)

// ErrUndefinedRatio marks a ratio whose denominator is zero or negative.
// Callers must treat the value as undefined rather than 0 or NaN.
var ErrUndefinedRatio = errors.New("ratio undefined for non-positive denominator")

// InvalidParameterError reports a structural input violation (non-positive
// production, mine life, share count). These abort the single calculation
// they occur in.
type InvalidParameterError struct {
	Param string
	Value float64
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Value)
}

// MissingDataError reports that a ticker has no configuration or market data.
// Batch operations surface it as a {ticker, error} record and continue.
type MissingDataError struct {
	Ticker string
	Reason string
}

func (e *MissingDataError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no data for ticker %s", e.Ticker)
	}
	return fmt.Sprintf("no data for ticker %s: %s", e.Ticker, e.Reason)
}

// IsMissingData reports whether err wraps a MissingDataError.
func IsMissingData(err error) bool {
	var m *MissingDataError
	return errors.As(err, &m)
}
