// Package catalog holds the service offerings and the commission reference
// table. Defaults are compiled in; an optional YAML file overrides them.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/pricing"
	"gopkg.in/yaml.v3"
)

// Catalog is the loaded reference data.
type Catalog struct {
	offerings  map[domain.ServiceType]domain.ServiceOffering
	Commission *pricing.CommissionTable
}

type fileConfig struct {
	Services   []domain.ServiceOffering `yaml:"services"`
	Commission []pricing.CommissionRate `yaml:"commission"`
}

// DefaultOfferings returns the launch catalog.
func DefaultOfferings() []domain.ServiceOffering {
	return []domain.ServiceOffering{
		{ServiceType: domain.ServiceChat, Label: "Chat", BasePrice: 25000, Unit: domain.UnitDay},
		{ServiceType: domain.ServiceCall, Label: "Voice Call", BasePrice: 40000, Unit: domain.UnitHour},
		{ServiceType: domain.ServiceVideoCall, Label: "Video Call", BasePrice: 60000, Unit: domain.UnitHour},
		{ServiceType: domain.ServiceOfflineDate, Label: "Offline Date", BasePrice: 95000, Unit: domain.UnitHour, MinVerificationRequired: true, MinAge: 21},
		{ServiceType: domain.ServicePartyBuddy, Label: "Party Buddy", BasePrice: 150000, Unit: domain.UnitEvent, MinVerificationRequired: true, MinAge: 21},
		{ServiceType: domain.ServiceRentLover, Label: "Rent a Lover", BasePrice: 450000, Unit: domain.UnitDay, MinVerificationRequired: true, MinAge: 21},
	}
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	c, err := build(fileConfig{})
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data over the defaults.
func Parse(data []byte) (*Catalog, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(fc)
}

func build(fc fileConfig) (*Catalog, error) {
	c := &Catalog{offerings: make(map[domain.ServiceType]domain.ServiceOffering)}
	for _, o := range DefaultOfferings() {
		c.offerings[o.ServiceType] = o
	}
	for _, o := range fc.Services {
		if err := validateOffering(o); err != nil {
			return nil, err
		}
		c.offerings[o.ServiceType] = o
	}

	rates := append(pricing.DefaultCommissionRates(), fc.Commission...)
	table, err := pricing.NewCommissionTable(rates...)
	if err != nil {
		return nil, fmt.Errorf("catalog commission: %w", err)
	}
	c.Commission = table
	return c, nil
}

func validateOffering(o domain.ServiceOffering) error {
	if _, ok := domain.ParseServiceType(string(o.ServiceType)); !ok {
		return fmt.Errorf("catalog: unknown service type %q", o.ServiceType)
	}
	switch o.Unit {
	case domain.UnitDay, domain.UnitHour, domain.UnitEvent:
	default:
		return fmt.Errorf("catalog: %s has unknown unit %q", o.ServiceType, o.Unit)
	}
	if o.BasePrice <= 0 {
		return fmt.Errorf("catalog: %s base price must be positive", o.ServiceType)
	}
	if o.MinAge < 0 {
		return fmt.Errorf("catalog: %s min age must not be negative", o.ServiceType)
	}
	return nil
}

// Offering returns the catalog entry for st.
func (c *Catalog) Offering(st domain.ServiceType) (domain.ServiceOffering, bool) {
	o, ok := c.offerings[st]
	return o, ok
}

// Offerings returns all entries in catalog order.
func (c *Catalog) Offerings() []domain.ServiceOffering {
	out := make([]domain.ServiceOffering, 0, len(c.offerings))
	for _, st := range domain.AllServiceTypes() {
		if o, ok := c.offerings[st]; ok {
			out = append(out, o)
		}
	}
	return out
}
