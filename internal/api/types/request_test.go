// internal/api/types/request_test.go
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountUnmarshal(t *testing.T) {
	accepted := map[string]Amount{
		`5`:     5,
		`"12"`:  12,
		`5.0`:   5,
		`"0"`:   0,
		`-3`:    -3,
		` 42 `:  42,
		`"100"`: 100,
	}
	for in, want := range accepted {
		var a Amount
		if assert.NoError(t, json.Unmarshal([]byte(in), &a), in) {
			assert.Equal(t, want, a, in)
		}
	}

	rejected := []string{`2.5`, `"0.1"`, `1e3`, `"5E1"`, `"abc"`, `null`, `""`, `99999999999999999999`, `true`}
	for _, in := range rejected {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(in), &a), in)
	}
}

func TestRedeemRequestDecoding(t *testing.T) {
	var req RedeemRequest
	err := json.Unmarshal([]byte(`{"amount":"3","description":"Café gratis"}`), &req)

	assert.NoError(t, err)
	assert.Equal(t, Amount(3), req.Amount)
	assert.Equal(t, "Café gratis", req.Description)
}
