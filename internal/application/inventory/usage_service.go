package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"go.uber.org/zap"
)

// UsageService keeps usage rows in step with sold order items.
// Usages are always derived from the current menu-item recipe; an edited order item
// has its usages deleted and derived again.
type UsageService struct {
	ledgerCore
}

// NewUsageService creates a new UsageService
func NewUsageService(tenantID uuid.UUID, scope TransactionScope, engine *inventory.BalanceEngine, logger *zap.Logger) *UsageService {
	return &UsageService{ledgerCore: newLedgerCore(tenantID, scope, engine, logger)}
}

// ReplaceMenuRecipe replaces the recipe of a menu item. Existing usages are not re-derived.
func (s *UsageService) ReplaceMenuRecipe(ctx context.Context, menuItemID uuid.UUID, req ReplaceMenuRecipeRequest) ([]RecipeLineResponse, error) {
	if menuItemID == uuid.Nil {
		return nil, shared.NewValidationError("menu_item_id", "Menu item ID is required")
	}
	var lines []*inventory.MenuItemMaterial
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ids := make([]uuid.UUID, 0, len(req.Lines))
		for _, l := range req.Lines {
			ids = append(ids, l.RawMaterialID)
		}
		materials, err := repos.RawMaterials().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		index := inventory.NewMaterialIndex(materials)
		for _, l := range req.Lines {
			material, ok := index[l.RawMaterialID]
			if !ok {
				return shared.NewValidationError("lines", "Unknown raw material: "+l.RawMaterialID.String())
			}
			line, err := inventory.NewMenuItemMaterial(menuItemID, material, l.Quantity, l.Unit)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}
		return repos.MenuRecipes().ReplaceForMenuItem(ctx, menuItemID, lines)
	})
	if err != nil {
		return nil, err
	}
	result := make([]RecipeLineResponse, 0, len(lines))
	for _, l := range lines {
		result = append(result, RecipeLineResponse{RawMaterialID: l.RawMaterialID, Quantity: l.Quantity, Unit: l.Unit})
	}
	return result, nil
}

// GetMenuRecipe returns the recipe of a menu item
func (s *UsageService) GetMenuRecipe(ctx context.Context, menuItemID uuid.UUID) ([]RecipeLineResponse, error) {
	var recipe []inventory.MenuItemMaterial
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		recipe, err = repos.MenuRecipes().FindByMenuItem(ctx, menuItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]RecipeLineResponse, 0, len(recipe))
	for _, l := range recipe {
		result = append(result, RecipeLineResponse{RawMaterialID: l.RawMaterialID, Quantity: l.Quantity, Unit: l.Unit})
	}
	return result, nil
}

// SyncOrderItemUsage re-derives the usages of one order item after it was created, edited or
// deleted. Old rows are removed and, unless the line is deleted, rows for the current
// recipe and quantity are written in the same transaction.
func (s *UsageService) SyncOrderItemUsage(ctx context.Context, req OrderLineRequest) (*UsageSyncResult, error) {
	line := req.toDomain()
	if err := line.Validate(); err != nil {
		return nil, err
	}

	keys, central, err := s.usageLockKeys(ctx, []inventory.OrderLine{line})
	if err != nil {
		return nil, err
	}

	result := &UsageSyncResult{OrderItemID: line.OrderItemID}
	var events []shared.DomainEvent
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		synced, evts, err := s.syncLine(ctx, repos, line, s.dateOr(req.SoldAt), central)
		if err != nil {
			return err
		}
		result.Removed = synced.removed
		for _, u := range synced.usages {
			result.Usages = append(result.Usages, ToUsageResponse(u))
		}
		events = evts
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLedgerWrite(ctx, "usage", len(result.Usages))
	s.publish(ctx, events...)
	return result, nil
}

// RemoveOrderItemUsage deletes the usages of an order item that no longer exists
func (s *UsageService) RemoveOrderItemUsage(ctx context.Context, orderItemID uuid.UUID) (int64, error) {
	if orderItemID == uuid.Nil {
		return 0, shared.NewValidationError("order_item_id", "Order item ID is required")
	}
	var existing []inventory.Usage
	var central *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if existing, err = repos.Usages().FindByOrderItem(ctx, orderItemID); err != nil {
			return err
		}
		central, err = ensureWarehouse(ctx, repos, inventory.WarehouseCodeCentral)
		return err
	})
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(existing))
	for _, u := range existing {
		keys = append(keys, MaterialStockKey(u.RawMaterialID, central.ID))
	}

	var removed int64
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		var err error
		removed, err = repos.Usages().DeleteByOrderItem(ctx, orderItemID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.publish(ctx, inventory.NewUsageSyncedEvent(s.tenantID, orderItemID, nil))
	}
	return removed, nil
}

// RecordOrderUsage derives usages for every line of an order. With ReplaceExisting the
// order's previous usages are removed first; otherwise lines that already have usages are skipped.
func (s *UsageService) RecordOrderUsage(ctx context.Context, req RecordOrderUsageRequest) ([]UsageSyncResult, error) {
	if req.OrderID == uuid.Nil {
		return nil, shared.NewValidationError("order_id", "Order ID is required")
	}
	lines := make([]inventory.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		line := l.toDomain()
		line.OrderID = req.OrderID
		if err := line.Validate(); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	keys, central, err := s.usageLockKeys(ctx, lines)
	if err != nil {
		return nil, err
	}

	soldAt := s.dateOr(req.SoldAt)
	var results []UsageSyncResult
	var events []shared.DomainEvent
	written := 0
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		if req.ReplaceExisting {
			if _, err := repos.Usages().DeleteByOrder(ctx, req.OrderID); err != nil {
				return err
			}
		}
		for _, line := range lines {
			if line.Deleted {
				continue
			}
			if !req.ReplaceExisting {
				existing, err := repos.Usages().FindByOrderItem(ctx, line.OrderItemID)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					continue
				}
			}
			synced, evts, err := s.syncLine(ctx, repos, line, soldAt, central)
			if err != nil {
				return err
			}
			r := UsageSyncResult{OrderItemID: line.OrderItemID, Removed: synced.removed}
			for _, u := range synced.usages {
				r.Usages = append(r.Usages, ToUsageResponse(u))
			}
			written += len(synced.usages)
			results = append(results, r)
			events = append(events, evts...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLedgerWrite(ctx, "usage", written)
	s.publish(ctx, events...)
	return results, nil
}

// ListOrderItemUsages returns the usages derived from an order item
func (s *UsageService) ListOrderItemUsages(ctx context.Context, orderItemID uuid.UUID) ([]UsageResponse, error) {
	var usages []inventory.Usage
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		usages, err = repos.Usages().FindByOrderItem(ctx, orderItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]UsageResponse, 0, len(usages))
	for i := range usages {
		result = append(result, ToUsageResponse(&usages[i]))
	}
	return result, nil
}

type syncedLine struct {
	removed int64
	usages  []*inventory.Usage
}

// syncLine replaces the usages of one order line inside a transaction
func (s *UsageService) syncLine(ctx context.Context, repos TransactionalRepositories, line inventory.OrderLine, at time.Time, central *inventory.Warehouse) (syncedLine, []shared.DomainEvent, error) {
	var out syncedLine
	removed, err := repos.Usages().DeleteByOrderItem(ctx, line.OrderItemID)
	if err != nil {
		return out, nil, err
	}
	out.removed = removed

	recipe, err := repos.MenuRecipes().FindByMenuItem(ctx, line.MenuItemID)
	if err != nil {
		return out, nil, err
	}
	out.usages = inventory.DeriveUsages(line, recipe, at)
	if len(out.usages) > 0 {
		if err := repos.Usages().SaveBatch(ctx, out.usages); err != nil {
			return out, nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(out.usages))
	for _, u := range out.usages {
		ids = append(ids, u.RawMaterialID)
	}
	events := []shared.DomainEvent{inventory.NewUsageSyncedEvent(s.tenantID, line.OrderItemID, ids)}
	if len(ids) == 0 {
		return out, events, nil
	}

	materials, err := repos.RawMaterials().FindByIDs(ctx, ids)
	if err != nil {
		return out, nil, err
	}
	affected := make([]*inventory.RawMaterial, 0, len(materials))
	for i := range materials {
		affected = append(affected, &materials[i])
	}
	low, err := s.lowStockEvents(ctx, repos, affected, central)
	if err != nil {
		return out, nil, err
	}
	return out, append(events, low...), nil
}

// usageLockKeys collects the central stock keys of every material the lines touch,
// both through existing usages and through the current recipes
func (s *UsageService) usageLockKeys(ctx context.Context, lines []inventory.OrderLine) ([]string, *inventory.Warehouse, error) {
	seen := make(map[uuid.UUID]bool)
	var central *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		central, err = ensureWarehouse(ctx, repos, inventory.WarehouseCodeCentral)
		if err != nil {
			return err
		}
		for _, line := range lines {
			existing, err := repos.Usages().FindByOrderItem(ctx, line.OrderItemID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			for _, u := range existing {
				seen[u.RawMaterialID] = true
			}
			recipe, err := repos.MenuRecipes().FindByMenuItem(ctx, line.MenuItemID)
			if err != nil {
				return err
			}
			for _, r := range recipe {
				seen[r.RawMaterialID] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, MaterialStockKey(id, central.ID))
	}
	return keys, central, nil
}
