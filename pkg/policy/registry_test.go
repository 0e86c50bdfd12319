package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
)

func TestRegistry(t *testing.T) {
	r, err := policy.NewRegistry(
		policy.Policy{ID: "over-18", CircuitRef: "age"},
		policy.Policy{ID: "eu-resident", CircuitRef: "residency"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-resident", "over-18"}, r.IDs())

	p, err := r.Policy(context.Background(), "over-18")
	require.NoError(t, err)
	assert.Equal(t, "age", p.CircuitRef)

	_, err = r.Policy(context.Background(), "nope")
	assert.True(t, errors.Is(err, policy.ErrUnknownPolicy))

	assert.Error(t, r.Add(policy.Policy{ID: "over-18"}))
	assert.Error(t, r.Add(policy.Policy{}))
}
