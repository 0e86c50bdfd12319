package policy_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

const agePolicy = `{
	"id": "age-over-18",
	"circuit": "age",
	"serviceProvider": "sp-bank",
	"rules": [
		{"key": "minAge", "value": 18},
		{"key": "maxAge", "value": "120"},
		{"key": "countryMask", "value": "0x0a0b"},
		{"key": "bounds", "value": [[1, 2], [3, 4]]}
	],
	"expirationPeriod": 86400,
	"retentionPeriod": 2592000
}`

func TestParse(t *testing.T) {
	p, err := policy.Parse([]byte(agePolicy))
	require.NoError(t, err)
	f := field.BN254()

	assert.Equal(t, "age", p.CircuitRef)
	assert.Equal(t, "sp-bank", p.ServiceProviderRef)
	assert.Equal(t, 24*time.Hour, p.ExpirationPeriod)
	assert.Equal(t, 30*24*time.Hour, p.RetentionPeriod)

	minAge, ok := p.Rule("minAge")
	require.True(t, ok)
	assert.Empty(t, minAge.Value.Shape())
	assert.Equal(t, "18", minAge.Value.Elements(f)[0].String())

	mask, ok := p.Rule("countryMask")
	require.True(t, ok)
	assert.True(t, mask.Value.IsBytes())
	assert.Equal(t, []int{2}, mask.Value.Shape())
	assert.Equal(t, "11", mask.Value.Elements(f)[1].String())

	bounds, ok := p.Rule("bounds")
	require.True(t, ok)
	assert.Equal(t, []int{2, 2}, bounds.Value.Shape())
	assert.Equal(t, "3", bounds.Value.Elements(f)[2].String())

	_, ok = p.Rule("nope")
	assert.False(t, ok)
}

func TestParseRejectsMalformedRules(t *testing.T) {
	tests := map[string]string{
		"float":         `{"rules":[{"key":"a","value":1.5}]}`,
		"ragged":        `{"rules":[{"key":"a","value":[[1,2],[3]]}]}`,
		"empty array":   `{"rules":[{"key":"a","value":[]}]}`,
		"object":        `{"rules":[{"key":"a","value":{"x":1}}]}`,
		"bad hex":       `{"rules":[{"key":"a","value":"0xzz"}]}`,
		"missing key":   `{"rules":[{"value":1}]}`,
		"missing value": `{"rules":[{"key":"a"}]}`,
		"duplicate":     `{"rules":[{"key":"a","value":1},{"key":"a","value":2}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := policy.Parse([]byte(raw))
			assert.True(t, errors.Is(err, reasoncodes.ErrPolicyRuleFormat), "got %v", err)
		})
	}
}

func TestMarshalRoundTripKeepsDigest(t *testing.T) {
	p, err := policy.Parse([]byte(agePolicy))
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	again, err := policy.Parse(raw)
	require.NoError(t, err)

	d1, err := p.Digest()
	require.NoError(t, err)
	d2, err := again.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestNumbersShapeCheck(t *testing.T) {
	_, err := policy.Numbers([]int{2, 2}, 1, 2, 3)
	assert.True(t, errors.Is(err, reasoncodes.ErrPolicyRuleFormat))

	v, err := policy.Numbers([]int{3}, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, v.Shape())
}

func TestExpiresAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := policy.Policy{ExpirationPeriod: time.Hour}
	assert.Equal(t, now.Add(time.Hour), p.ExpiresAt(now))
	assert.True(t, policy.Policy{}.ExpiresAt(now).IsZero())
}
