// Package policy binds a circuit and a service provider to the rule
// parameters a holder has to prove.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

type Rule struct {
	Key   string
	Value RuleValue
}

type Policy struct {
	ID                 string
	CircuitRef         string
	ServiceProviderRef string
	Rules              []Rule
	ExpirationPeriod   time.Duration
	RetentionPeriod    time.Duration
}

func (p Policy) Rule(key string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Key == key {
			return r, true
		}
	}
	return Rule{}, false
}

// ExpiresAt is the expiry of a proof request created at t. A zero period never expires.
func (p Policy) ExpiresAt(t time.Time) time.Time {
	if p.ExpirationPeriod <= 0 {
		return time.Time{}
	}
	return t.Add(p.ExpirationPeriod)
}

// Digest is the hex SHA-256 of the RFC 8785 canonical JSON form.
func (p Policy) Digest() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("policy: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
