package subscription

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Money is an amount in the smallest currency unit (kobo for NGN).
type Money struct {
	Amount   int64
	Currency string
}

// Major returns the amount in major units.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// Plan is an immutable paid plan definition.
type Plan struct {
	ID           string
	Label        string
	Price        Money
	DurationDays int
	Aliases      []string
}

// MatchRule names the catalog rule that resolved an identifier.
type MatchRule string

const (
	RuleExact     MatchRule = "exact"
	RulePrefix    MatchRule = "gateway_prefix"
	RuleAmount    MatchRule = "amount"
	RuleHeuristic MatchRule = "heuristic"
	RuleFallback  MatchRule = "fallback"
)

// DefaultGatewayPrefixes are stripped from gateway plan codes before matching.
var DefaultGatewayPrefixes = []string{"pln_", "plan_", "vip_"}

// Catalog resolves plan identifiers to plans. Safe for concurrent use.
type Catalog struct {
	plans    []Plan
	byKey    map[string]Plan
	byAmount map[int64]Plan
	prefixes []string
	fallback Plan
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithGatewayPrefixes replaces the gateway prefixes stripped during resolution.
func WithGatewayPrefixes(prefixes ...string) CatalogOption {
	return func(c *Catalog) {
		c.prefixes = c.prefixes[:0]
		for _, p := range prefixes {
			if p = normalizePlanKey(p); p != "" {
				c.prefixes = append(c.prefixes, p)
			}
		}
	}
}

// NewCatalog validates plans and builds the lookup tables.
// The shortest plan becomes the fallback for unrecognised identifiers.
func NewCatalog(plans []Plan, opts ...CatalogOption) (*Catalog, error) {
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	c := &Catalog{
		plans:    slices.Clone(plans),
		byKey:    make(map[string]Plan, len(plans)*2),
		byAmount: make(map[int64]Plan, len(plans)),
		prefixes: slices.Clone(DefaultGatewayPrefixes),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, p := range c.plans {
		c.byKey[normalizePlanKey(p.ID)] = p
		for _, alias := range p.Aliases {
			c.byKey[normalizePlanKey(alias)] = p
		}
		c.byAmount[p.Price.Amount] = p
	}

	c.fallback = slices.MinFunc(c.plans, func(a, b Plan) int {
		return cmp.Compare(a.DurationDays, b.DurationDays)
	})

	return c, nil
}

func validatePlans(plans []Plan) error {
	if len(plans) == 0 {
		return fmt.Errorf("%w: no plans defined", ErrInvalidPlanConfiguration)
	}

	var errs []error
	seenKeys := make(map[string]string)
	seenAmounts := make(map[int64]string)
	for _, p := range plans {
		id := normalizePlanKey(p.ID)
		switch {
		case id == "":
			errs = append(errs, errors.New("plan id is required"))
			continue
		case id != p.ID:
			errs = append(errs, fmt.Errorf("plan %q: id must be lower-case snake_case", p.ID))
		}
		if p.DurationDays <= 0 {
			errs = append(errs, fmt.Errorf("plan %q: duration must be positive", p.ID))
		}
		if p.Price.Amount <= 0 {
			errs = append(errs, fmt.Errorf("plan %q: price must be positive", p.ID))
		} else if other, ok := seenAmounts[p.Price.Amount]; ok {
			errs = append(errs, fmt.Errorf("plan %q: price %d already used by %q", p.ID, p.Price.Amount, other))
		} else {
			seenAmounts[p.Price.Amount] = p.ID
		}
		for _, key := range append([]string{p.ID}, p.Aliases...) {
			key = normalizePlanKey(key)
			if other, ok := seenKeys[key]; ok {
				errs = append(errs, fmt.Errorf("plan %q: identifier %q already used by %q", p.ID, key, other))
				continue
			}
			seenKeys[key] = p.ID
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidPlanConfiguration}, errs...)...)
	}
	return nil
}

// Plans returns all plans in definition order.
func (c *Catalog) Plans() []Plan {
	return slices.Clone(c.plans)
}

// IDs returns the canonical plan ids in definition order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.plans))
	for _, p := range c.plans {
		ids = append(ids, p.ID)
	}
	return ids
}

// Lookup returns the plan with the given canonical id or alias.
func (c *Catalog) Lookup(id string) (Plan, bool) {
	p, ok := c.byKey[normalizePlanKey(id)]
	return p, ok
}

// Fallback returns the plan used for unrecognised identifiers.
func (c *Catalog) Fallback() Plan {
	return c.fallback
}

// Resolve maps any plan identifier to a plan. It never fails.
func (c *Catalog) Resolve(identifier string) Plan {
	p, _ := c.Match(identifier)
	return p
}

// DurationDays returns the duration of the plan the identifier resolves to.
// The same identifier always yields the same duration.
func (c *Catalog) DurationDays(identifier string) int {
	return c.Resolve(identifier).DurationDays
}

// PriceOf returns the price of the plan the identifier resolves to.
func (c *Catalog) PriceOf(identifier string) Money {
	return c.Resolve(identifier).Price
}

// LabelOf returns the display label of the plan the identifier resolves to.
func (c *Catalog) LabelOf(identifier string) string {
	return c.Resolve(identifier).Label
}

// ResolveAmount maps a paid amount in minor units to a plan.
func (c *Catalog) ResolveAmount(minor int64) (Plan, bool) {
	p, ok := c.byAmount[minor]
	return p, ok
}

// Match resolves identifier and reports which rule matched.
//
// Rules are tried in order: exact id or alias, gateway prefix stripped,
// raw amount (minor units, then major units), keyword heuristics, fallback.
func (c *Catalog) Match(identifier string) (Plan, MatchRule) {
	key := normalizePlanKey(identifier)
	if key == "" {
		return c.fallback, RuleFallback
	}

	if p, ok := c.byKey[key]; ok {
		return p, RuleExact
	}

	for _, prefix := range c.prefixes {
		if stripped, ok := strings.CutPrefix(key, prefix); ok && stripped != "" {
			if p, ok := c.byKey[stripped]; ok {
				return p, RulePrefix
			}
		}
	}

	if p, ok := c.matchAmount(key); ok {
		return p, RuleAmount
	}

	if days, ok := heuristicDays(key); ok {
		return c.planForDuration(key, days), RuleHeuristic
	}

	return c.fallback, RuleFallback
}

func (c *Catalog) matchAmount(key string) (Plan, bool) {
	if whole, frac, ok := strings.Cut(key, "."); ok {
		if !isDigits(whole) || !isDigits(frac) {
			return Plan{}, false
		}
		major, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return Plan{}, false
		}
		return c.ResolveAmount(int64(math.Round(major * 100)))
	}

	if !isDigits(key) {
		return Plan{}, false
	}
	amount, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return Plan{}, false
	}
	if p, ok := c.ResolveAmount(amount); ok {
		return p, true
	}
	if amount <= math.MaxInt64/100 {
		return c.ResolveAmount(amount * 100)
	}
	return Plan{}, false
}

// planForDuration returns the first plan lasting days, or an ad-hoc plan
// named after the identifier when none does.
func (c *Catalog) planForDuration(key string, days int) Plan {
	for _, p := range c.plans {
		if p.DurationDays == days {
			return p
		}
	}
	return Plan{ID: key, Label: key, DurationDays: days, Price: Money{Currency: c.fallback.Price.Currency}}
}

func heuristicDays(key string) (int, bool) {
	switch {
	case strings.Contains(key, "week"):
		return 14, true
	case strings.Contains(key, "year"), strings.Contains(key, "annual"),
		strings.Contains(key, "12") && strings.Contains(key, "month"):
		return 365, true
	case strings.Contains(key, "6") && strings.Contains(key, "month"):
		return 180, true
	case strings.Contains(key, "month"):
		return 30, true
	}
	return 0, false
}

func normalizePlanKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
