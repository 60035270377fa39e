package models

import (
	"encoding/json"
	"math"
)

// Float is a float64 whose JSON form degrades non-finite values to null.
// Engines keep +Inf in process for undefined quantities (payback that never
// arrives, coverage of a zero funding gap); encoding/json refuses to marshal
// those, so the wire carries null instead.
type Float float64

// IsFinite reports whether the value survives JSON encoding as a number.
func (f Float) IsFinite() bool {
	v := float64(f)
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON restores null to +Inf; every engine sentinel carried by this
// type means "undefined, unboundedly large".
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
