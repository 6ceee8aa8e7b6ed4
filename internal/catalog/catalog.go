// Package catalog loads the reference data a fresh deployment starts from:
// stations, inter-station distances, premium train types, trains and
// promotions.
//
// The file format is YAML:
//
//	stations:
//	  - name: Roma
//	    latitude: 41.9010
//	    longitude: 12.5016
//	distances:
//	  - {from: Roma, to: Milano, km: 570}
//	premium_train_types: [Frecciarossa, Italo]
//	trains:
//	  - id: 1
//	    name: Frecciarossa 9521
//	    departure_station: Roma
//	    arrival_station: Milano
//	    departs_at: 2025-06-01T08:00:00Z
//	    arrives_at: 2025-06-01T11:10:00Z
//	promotions:
//	  - id: estate
//	    name: ESTATE2024
//	    discount_percent: 15
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/promotion"
)

type Catalog struct {
	Stations          []domain.Station       `yaml:"stations"`
	Distances         []domain.DistanceEntry `yaml:"distances"`
	PremiumTrainTypes []string               `yaml:"premium_train_types"`
	Trains            []domain.Train         `yaml:"trains"`
	Promotions        []domain.Promotion     `yaml:"promotions"`
}

// Load reads the catalog at path. An empty path yields Default().
func Load(path string) (*Catalog, error) {
	const op = "catalog.Load"

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	for i := range c.Promotions {
		c.Promotions[i].UserTypes = domain.ParseTiers(c.Promotions[i].UserTypes)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks every entry and returns all problems joined.
func (c *Catalog) Validate() error {
	var errs []error

	stations := make(map[string]bool, len(c.Stations))
	for i, s := range c.Stations {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("stations[%d]: name is required", i))
		case stations[key]:
			errs = append(errs, fmt.Errorf("stations[%d]: duplicate station %q", i, s.Name))
		}
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
			errs = append(errs, fmt.Errorf("stations[%d]: coordinates out of range", i))
		}
		stations[key] = true
	}

	for i, d := range c.Distances {
		if strings.TrimSpace(d.From) == "" || strings.TrimSpace(d.To) == "" {
			errs = append(errs, fmt.Errorf("distances[%d]: from and to are required", i))
		}
		if d.Km <= 0 {
			errs = append(errs, fmt.Errorf("distances[%d]: km must be positive", i))
		}
	}

	trains := make(map[int64]bool, len(c.Trains))
	for i, t := range c.Trains {
		switch {
		case t.ID <= 0:
			errs = append(errs, fmt.Errorf("trains[%d]: id must be positive", i))
		case trains[t.ID]:
			errs = append(errs, fmt.Errorf("trains[%d]: duplicate id %d", i, t.ID))
		}
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("trains[%d]: name is required", i))
		}
		trains[t.ID] = true
	}

	for i, p := range c.Promotions {
		if err := promotion.Validate(p); err != nil {
			errs = append(errs, fmt.Errorf("promotions[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
