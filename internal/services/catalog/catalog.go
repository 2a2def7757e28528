package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dogepandaCodes/PokinPokin/internal/config"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
)

var ErrPackageNotFound = errors.New("package not found")

// Catalog is the immutable package list shared by checkout, verification and
// the front-end listing.
type Catalog struct {
	ordered []model.Package
	byID    map[string]model.Package
}

func New(packages []model.Package) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]model.Package, 0, len(packages)),
		byID:    make(map[string]model.Package, len(packages)),
	}
	for _, pkg := range packages {
		pkg.ID = strings.TrimSpace(pkg.ID)
		if pkg.ID == "" {
			return nil, fmt.Errorf("package id is required")
		}
		if _, exists := c.byID[pkg.ID]; exists {
			return nil, fmt.Errorf("duplicate package id %q", pkg.ID)
		}
		if pkg.Coins < 0 || pkg.Bonus < 0 {
			return nil, fmt.Errorf("package %q has negative coins", pkg.ID)
		}
		if pkg.Price <= 0 {
			return nil, fmt.Errorf("package %q must have a positive price", pkg.ID)
		}
		c.ordered = append(c.ordered, pkg)
		c.byID[pkg.ID] = pkg
	}
	return c, nil
}

func FromConfig(cfg config.CatalogConfig) (*Catalog, error) {
	packages := make([]model.Package, 0, len(cfg.Packages))
	for _, p := range cfg.Packages {
		packages = append(packages, model.Package{
			ID:    p.ID,
			Name:  p.Name,
			Coins: p.Coins,
			Bonus: p.Bonus,
			Price: p.Price,
		})
	}
	return New(packages)
}

func (c *Catalog) Lookup(id string) (model.Package, error) {
	if c == nil {
		return model.Package{}, ErrPackageNotFound
	}
	pkg, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return model.Package{}, ErrPackageNotFound
	}
	return pkg, nil
}

// List returns packages in configuration order.
func (c *Catalog) List() []model.Package {
	if c == nil {
		return nil
	}
	out := make([]model.Package, len(c.ordered))
	copy(out, c.ordered)
	return out
}
