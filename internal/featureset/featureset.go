// Package featureset describes the entity domains the service clusters:
// which aggregate features make up a vector and how to compute them.
package featureset

import (
	"errors"
	"fmt"
	"sort"
)

// FeatureSet describes one clustering domain.
type FeatureSet struct {
	// Domain is the name used in requests, e.g. "regions".
	Domain string `json:"domain"`

	// IDColumn names the column identifying each entity.
	IDColumn string `json:"id_column"`

	// Features lists the numeric feature columns in vector order.
	Features []string `json:"features"`

	// Query computes one row per entity: IDColumn followed by Features.
	Query string `json:"-"`

	// Views lists feature pairs worth plotting against each other.
	Views [][2]string `json:"views,omitempty"`
}

// Validate checks that the descriptor is usable.
func (fs FeatureSet) Validate() error {
	if fs.Domain == "" {
		return errors.New("featureset: empty domain")
	}
	if fs.IDColumn == "" {
		return fmt.Errorf("featureset: %s: empty id column", fs.Domain)
	}
	if len(fs.Features) == 0 {
		return fmt.Errorf("featureset: %s: no features", fs.Domain)
	}
	seen := map[string]bool{fs.IDColumn: true}
	for _, f := range fs.Features {
		if f == "" {
			return fmt.Errorf("featureset: %s: empty feature name", fs.Domain)
		}
		if seen[f] {
			return fmt.Errorf("featureset: %s: duplicate column %q", fs.Domain, f)
		}
		seen[f] = true
	}
	for _, v := range fs.Views {
		for _, name := range v {
			if name == fs.IDColumn || !seen[name] {
				return fmt.Errorf("featureset: %s: view references unknown feature %q", fs.Domain, name)
			}
		}
	}
	return nil
}

// Columns returns the id column followed by the features.
func (fs FeatureSet) Columns() []string {
	cols := make([]string, 0, len(fs.Features)+1)
	cols = append(cols, fs.IDColumn)
	return append(cols, fs.Features...)
}

// Registry maps domain names to feature sets.
type Registry struct {
	sets map[string]FeatureSet
}

// NewRegistry validates sets and indexes them by domain.
func NewRegistry(sets ...FeatureSet) (*Registry, error) {
	r := &Registry{sets: make(map[string]FeatureSet, len(sets))}
	for _, fs := range sets {
		if err := fs.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.sets[fs.Domain]; dup {
			return nil, fmt.Errorf("featureset: duplicate domain %q", fs.Domain)
		}
		r.sets[fs.Domain] = fs
	}
	return r, nil
}

// Default returns a registry holding Regions, Customers and Products.
func Default() *Registry {
	r, err := NewRegistry(Regions, Customers, Products)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the feature set registered for domain.
func (r *Registry) Lookup(domain string) (FeatureSet, bool) {
	fs, ok := r.sets[domain]
	return fs, ok
}

// All returns every registered feature set sorted by domain.
func (r *Registry) All() []FeatureSet {
	out := make([]FeatureSet, 0, len(r.sets))
	for _, fs := range r.sets {
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
