package api

import (
	"fmt"

	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/service"
	"github.com/amterp/crack/internal/store"
)

// Services bundles what the HTTP handlers need. All of it is built by the
// caller; the API layer never wires stores itself.
type Services struct {
	Catalog    *catalog.Catalog
	Inventory  store.InventoryStore
	Opening    *service.OpeningService
	Shop       *service.ShopService
	Collection *service.CollectionService
}

func (s *Services) validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("services are required")
	case s.Catalog == nil:
		return fmt.Errorf("catalog is required")
	case s.Inventory == nil:
		return fmt.Errorf("inventory store is required")
	case s.Opening == nil || s.Shop == nil || s.Collection == nil:
		return fmt.Errorf("every service is required")
	}
	return nil
}
