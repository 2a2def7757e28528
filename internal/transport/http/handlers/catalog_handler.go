package handlers

import (
	"net/http"

	"github.com/dogepandaCodes/PokinPokin/internal/services/catalog"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

func (h *CatalogHandler) List(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "catalog is unavailable")
		return
	}

	packages := h.catalog.List()
	out := dto.PackagesResponse{Packages: make([]dto.PackageItem, 0, len(packages))}
	for _, pkg := range packages {
		out.Packages = append(out.Packages, dto.PackageItem{
			ID:         pkg.ID,
			Name:       pkg.Name,
			Coins:      pkg.Coins,
			Bonus:      pkg.Bonus,
			TotalCoins: pkg.TotalCoins(),
			Price:      pkg.Price,
		})
	}

	httperrors.Write(w, http.StatusOK, out)
}
