package usage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PricingRule prices models whose name contains Match. An empty Match is the
// catch-all and only applies when no other rule matched.
type PricingRule struct {
	Match       string  `yaml:"match"`
	PerThousand float64 `yaml:"per_1k_tokens"`
}

type Pricing struct {
	Rules []PricingRule `yaml:"rules"`
}

func DefaultPricing() *Pricing {
	return &Pricing{Rules: []PricingRule{
		{Match: "pro", PerThousand: 0.0075},
		{Match: "", PerThousand: 0.0005},
	}}
}

// LoadPricing reads a YAML pricing table. An empty path yields the defaults.
func LoadPricing(path string) (*Pricing, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPricing(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file %s: %w", path, err)
	}
	return ParsePricing(data)
}

func ParsePricing(data []byte) (*Pricing, error) {
	var p Pricing
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pricing: %w", err)
	}
	if len(p.Rules) == 0 {
		return nil, fmt.Errorf("parse pricing: no rules defined")
	}
	for i, rule := range p.Rules {
		if rule.PerThousand < 0 {
			return nil, fmt.Errorf("parse pricing: rule %d has negative price", i)
		}
		p.Rules[i].Match = strings.ToLower(strings.TrimSpace(rule.Match))
	}
	return &p, nil
}

// Cost returns tokens/1000 * rate for the first matching rule.
func (p *Pricing) Cost(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	rate, ok := p.rate(strings.ToLower(model))
	if !ok {
		return 0
	}
	return float64(tokens) / 1000 * rate
}

func (p *Pricing) rate(model string) (float64, bool) {
	fallback, hasFallback := 0.0, false
	for _, rule := range p.Rules {
		if rule.Match == "" {
			if !hasFallback {
				fallback, hasFallback = rule.PerThousand, true
			}
			continue
		}
		if strings.Contains(model, rule.Match) {
			return rule.PerThousand, true
		}
	}
	return fallback, hasFallback
}
