package catalog

import (
	"errors"
	"testing"

	"github.com/dogepandaCodes/PokinPokin/internal/config"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
)

func TestFromConfigKeepsOrderAndLooksUp(t *testing.T) {
	c, err := FromConfig(config.Default().Catalog)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	list := c.List()
	if len(list) != 4 {
		t.Fatalf("unexpected catalog size: %d", len(list))
	}
	wantOrder := []string{"starter", "popular", "premium", "ultimate"}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Fatalf("unexpected package at %d: got %s want %s", i, list[i].ID, id)
		}
	}

	pkg, err := c.Lookup("premium")
	if err != nil {
		t.Fatalf("lookup premium: %v", err)
	}
	if pkg.TotalCoins() != 60 || pkg.Price != 5000 {
		t.Fatalf("unexpected premium package: %+v", pkg)
	}
}

func TestLookupUnknownPackage(t *testing.T) {
	c, err := FromConfig(config.Default().Catalog)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	if _, err := c.Lookup("mega"); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestNewRejectsInvalidPackages(t *testing.T) {
	cases := map[string][]model.Package{
		"empty id":       {{ID: " ", Name: "x", Coins: 1, Price: 100}},
		"duplicate":      {{ID: "a", Coins: 1, Price: 100}, {ID: "a", Coins: 2, Price: 200}},
		"negative bonus": {{ID: "a", Coins: 1, Bonus: -1, Price: 100}},
		"zero price":     {{ID: "a", Coins: 1, Price: 0}},
	}
	for name, packages := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(packages); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestListReturnsCopy(t *testing.T) {
	c, err := New([]model.Package{{ID: "a", Name: "A", Coins: 1, Price: 100}})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	list := c.List()
	list[0].Price = 1

	pkg, _ := c.Lookup("a")
	if pkg.Price != 100 {
		t.Fatalf("catalog mutated through List: %+v", pkg)
	}
}
