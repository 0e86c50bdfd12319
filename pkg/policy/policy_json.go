package policy

import (
	"encoding/json"
	"time"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type RuleJson struct {
	Key   string    `json:"key"`
	Value RuleValue `json:"value"`
}

type PolicyJson struct {
	Id               string     `json:"id"`
	Circuit          string     `json:"circuit"`
	ServiceProvider  string     `json:"serviceProvider"`
	Rules            []RuleJson `json:"rules"`
	ExpirationPeriod int64      `json:"expirationPeriod"`
	RetentionPeriod  int64      `json:"retentionPeriod"`
}

func (pj PolicyJson) ConvertToDomain() Policy {
	rules := make([]Rule, len(pj.Rules))
	for i, r := range pj.Rules {
		rules[i] = Rule{Key: r.Key, Value: r.Value}
	}
	return Policy{
		ID:                 pj.Id,
		CircuitRef:         pj.Circuit,
		ServiceProviderRef: pj.ServiceProvider,
		Rules:              rules,
		ExpirationPeriod:   time.Duration(pj.ExpirationPeriod) * time.Second,
		RetentionPeriod:    time.Duration(pj.RetentionPeriod) * time.Second,
	}
}

func (p Policy) MarshalJSON() ([]byte, error) {
	rules := make([]RuleJson, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = RuleJson{Key: r.Key, Value: r.Value}
	}
	return json.Marshal(PolicyJson{
		Id:               p.ID,
		Circuit:          p.CircuitRef,
		ServiceProvider:  p.ServiceProviderRef,
		Rules:            rules,
		ExpirationPeriod: int64(p.ExpirationPeriod / time.Second),
		RetentionPeriod:  int64(p.RetentionPeriod / time.Second),
	})
}

// Parse decodes and validates a policy document. Rule keys must be present
// and unique.
func Parse(raw []byte) (Policy, error) {
	var pj PolicyJson
	if err := json.Unmarshal(raw, &pj); err != nil {
		if rc := reasoncodes.CodeOf(err); rc != "" {
			return Policy{}, err
		}
		return Policy{}, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "", "%v", err)
	}
	seen := map[string]bool{}
	for _, r := range pj.Rules {
		if r.Key == "" {
			return Policy{}, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, "key", "rule without key")
		}
		if seen[r.Key] {
			return Policy{}, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, r.Key, "duplicate rule")
		}
		if r.Value.empty() {
			return Policy{}, reasoncodes.Newf(reasoncodes.PolicyRuleFormatError, r.Key, "rule without value")
		}
		seen[r.Key] = true
	}
	return pj.ConvertToDomain(), nil
}
