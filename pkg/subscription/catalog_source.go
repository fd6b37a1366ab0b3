package subscription

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

type plansFile struct {
	Currency string `yaml:"currency"`
	Plans    []struct {
		ID           string   `yaml:"id"`
		Label        string   `yaml:"label"`
		Price        int64    `yaml:"price"`
		Currency     string   `yaml:"currency"`
		DurationDays int      `yaml:"duration_days"`
		Aliases      []string `yaml:"aliases"`
	} `yaml:"plans"`
}

// ParsePlans decodes a YAML plan list. Unknown fields are rejected.
func ParsePlans(data []byte) ([]Plan, error) {
	var file plansFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make([]Plan, 0, len(file.Plans))
	for _, p := range file.Plans {
		currency := p.Currency
		if currency == "" {
			currency = file.Currency
		}
		plans = append(plans, Plan{
			ID:           p.ID,
			Label:        p.Label,
			Price:        Money{Amount: p.Price, Currency: strings.ToUpper(currency)},
			DurationDays: p.DurationDays,
			Aliases:      p.Aliases,
		})
	}
	return plans, nil
}

// LoadCatalog builds a catalog from a YAML file, or from the built-in plans
// when path is empty.
func LoadCatalog(path string, opts ...CatalogOption) (*Catalog, error) {
	data := defaultPlansYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("read %s: %w", path, err))
		}
		data = b
	}

	plans, err := ParsePlans(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(plans, opts...)
}

// DefaultCatalog returns the catalog of built-in plans. Panics if the embedded
// definition is invalid.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog("")
	if err != nil {
		panic(fmt.Sprintf("subscription: invalid built-in plans: %v", err))
	}
	return c
}
