package evaluator

import (
	"encoding/json"
	"math"
)

// ValueToJSON marshals a Value to JSON bytes.
// Integral numbers are written without a decimal point; non-finite numbers
// have no JSON form and are written as the strings "+Inf", "-Inf", "NaN".
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Bool:
		return val.Value

	case Number:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return formatNumber(val.Value)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if val.Value == math.Trunc(val.Value) && val.Value >= math.MinInt64 && val.Value < math.MaxInt64 {
			return int64(val.Value)
		}
		return val.Value
	}

	return nil
}
