// Package catalog loads the circuits, policies and issuer envelope keys a
// compliance node serves from the configured artifact locations.
package catalog

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/config"
	"github.com/bsc-digital-identity/zk-compliance/pkg/artifacts"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/policy"
	"github.com/bsc-digital-identity/zk-compliance/pkg/signals"
	"github.com/bsc-digital-identity/zk-compliance/pkg/zkp"
)

type Catalog struct {
	Circuits     *signals.Registry
	Policies     *policy.Registry
	EnvelopeKeys jwk.Set

	artifacts map[string]zkp.CircuitArtifacts
}

// Artifacts returns the loaded artifacts of one circuit.
func (c *Catalog) Artifacts(circuitID string) (zkp.CircuitArtifacts, bool) {
	a, ok := c.artifacts[circuitID]
	return a, ok
}

// NewFetcher builds a fetcher with the cloud sources cfg enables. The
// returned close func releases their clients.
func NewFetcher(ctx context.Context, cfg config.ArtifactsConfig, log *logger.Logger) (*artifacts.Fetcher, func() error, error) {
	opts := []artifacts.Option{artifacts.WithMaxBytes(cfg.MaxBytes), artifacts.WithLogger(log)}
	closer := func() error { return nil }

	if cfg.S3 != nil {
		src, err := artifacts.NewS3Source(ctx, *cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, artifacts.WithSource("s3", src))
	}
	if cfg.GCS {
		src, err := artifacts.NewGCSSource(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, artifacts.WithSource("gs", src))
		closer = src.Close
	}
	return artifacts.NewFetcher(opts...), closer, nil
}

// Load fetches everything cfg names. Every policy must target a loaded
// circuit.
func Load(ctx context.Context, f *artifacts.Fetcher, cfg config.ArtifactsConfig, log *logger.Logger) (*Catalog, error) {
	c := &Catalog{artifacts: make(map[string]zkp.CircuitArtifacts, len(cfg.Circuits))}

	circuits := make([]signals.Circuit, 0, len(cfg.Circuits))
	for _, src := range cfg.Circuits {
		a, err := f.LoadCircuit(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("loading circuit %s: %w", src.ID, err)
		}
		c.artifacts[src.ID] = a
		circuits = append(circuits, a.Circuit)
	}
	reg, err := signals.NewRegistry(circuits...)
	if err != nil {
		return nil, err
	}
	c.Circuits = reg

	c.Policies, _ = policy.NewRegistry()
	for _, uri := range cfg.Policies {
		raw, err := f.Fetch(ctx, uri)
		if err != nil {
			return nil, err
		}
		p, err := policy.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", uri, err)
		}
		if _, err := reg.Circuit(p.CircuitRef); err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.ID, err)
		}
		if err := c.Policies.Add(p); err != nil {
			return nil, err
		}
	}

	if cfg.EnvelopeKeys != "" {
		raw, err := f.Fetch(ctx, cfg.EnvelopeKeys)
		if err != nil {
			return nil, err
		}
		if c.EnvelopeKeys, err = jwk.Parse(raw); err != nil {
			return nil, fmt.Errorf("envelope keys: %w", err)
		}
	}

	log.Infof("catalog loaded: %d circuits, %d policies", len(circuits), len(c.Policies.IDs()))
	return c, nil
}
