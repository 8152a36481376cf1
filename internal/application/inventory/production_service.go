package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductionService turns raw materials into pre-production items and moves those items
// between warehouses
type ProductionService struct {
	ledgerCore
}

// NewProductionService creates a new ProductionService
func NewProductionService(tenantID uuid.UUID, scope TransactionScope, engine *inventory.BalanceEngine, logger *zap.Logger) *ProductionService {
	return &ProductionService{ledgerCore: newLedgerCore(tenantID, scope, engine, logger)}
}

// CreateItem defines a pre-production item and its recipe
func (s *ProductionService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	item, err := inventory.NewPreProductionItem(req.Name, req.Unit, toRecipeLines(req.Materials))
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.checkRecipeMaterials(ctx, repos, item); err != nil {
			return err
		}
		return repos.Items().Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item, nil)
	return &resp, nil
}

// UpdateRecipe replaces the recipe of an item
func (s *ProductionService) UpdateRecipe(ctx context.Context, itemID uuid.UUID, req UpdateRecipeRequest) (*ItemResponse, error) {
	var item *inventory.PreProductionItem
	var stocks []inventory.PreProductionStock
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		if err := item.SetRecipe(toRecipeLines(req.Materials)); err != nil {
			return err
		}
		if err := s.checkRecipeMaterials(ctx, repos, item); err != nil {
			return err
		}
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}
		stocks, err = repos.ItemStocks().FindByItem(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item, stocks)
	return &resp, nil
}

func (s *ProductionService) checkRecipeMaterials(ctx context.Context, repos TransactionalRepositories, item *inventory.PreProductionItem) error {
	ids := item.MaterialIDs()
	if len(ids) == 0 {
		return nil
	}
	materials, err := repos.RawMaterials().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	index := inventory.NewMaterialIndex(materials)
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			return shared.NewValidationError("materials", "Unknown raw material: "+id.String())
		}
	}
	return nil
}

// GetItem returns an item with its stock rows
func (s *ProductionService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	var resp ItemResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		stocks, err := repos.ItemStocks().FindByItem(ctx, itemID)
		if err != nil {
			return err
		}
		resp = ToItemResponse(item, stocks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListItems returns every item with its stock rows
func (s *ProductionService) ListItems(ctx context.Context) ([]ItemResponse, error) {
	var result []ItemResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, err := repos.Items().FindAll(ctx)
		if err != nil {
			return err
		}
		result = make([]ItemResponse, 0, len(items))
		for i := range items {
			stocks, err := repos.ItemStocks().FindByItem(ctx, items[i].ID)
			if err != nil {
				return err
			}
			result = append(result, ToItemResponse(&items[i], stocks))
		}
		return nil
	})
	return result, err
}

// errRecipeChanged reports that the recipe no longer matches the locks taken for it
var errRecipeChanged = errors.New("recipe changed while waiting for stock locks")

// produceAttempts bounds how often Produce re-reads a recipe edited under it
const produceAttempts = 3

// Produce makes quantity of an item from raw materials held in the source warehouse.
// Availability is the stock of the source warehouse as of the production date.
// When any material is short the error lists every shortage and nothing is written.
// Otherwise one transfer per recipe line moves the materials into pre-production,
// the item's pre-production stock grows and a history row is written, all in one transaction.
func (s *ProductionService) Produce(ctx context.Context, req ProduceRequest) (*ProductionResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	date := s.dateOr(req.ProductionDate)

	for attempt := 1; ; attempt++ {
		item, source, pre, err := s.productionTarget(ctx, req)
		if err != nil {
			return nil, err
		}
		resp, events, err := s.produceLocked(ctx, req, item.MaterialIDs(), source, pre, date)
		if errors.Is(err, errRecipeChanged) {
			if attempt < produceAttempts {
				s.logger.Debug("recipe changed before production, retrying", zap.String("item_id", item.ID.String()))
				continue
			}
			return nil, shared.ErrConcurrencyConflict
		}
		if err != nil {
			return nil, err
		}

		s.metrics.RecordLedgerWrite(ctx, "production", 1)
		s.publish(ctx, events...)
		s.logger.Info("pre-production item produced",
			zap.String("item_id", item.ID.String()),
			zap.String("quantity", req.Quantity.String()),
			zap.String("source_warehouse", source.Code),
			zap.Time("production_date", date),
		)
		return resp, nil
	}
}

// productionTarget resolves the item and the source and pre-production warehouses
func (s *ProductionService) productionTarget(ctx context.Context, req ProduceRequest) (*inventory.PreProductionItem, *inventory.Warehouse, *inventory.Warehouse, error) {
	var item *inventory.PreProductionItem
	var source, pre *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if item, err = repos.Items().FindByID(ctx, req.ItemID); err != nil {
			return err
		}
		if pre, err = ensureWarehouse(ctx, repos, inventory.WarehouseCodePreProduction); err != nil {
			return err
		}
		if req.SourceWarehouseID != nil && *req.SourceWarehouseID != uuid.Nil {
			source, err = repos.Warehouses().FindByID(ctx, *req.SourceWarehouseID)
		} else {
			source, err = ensureWarehouse(ctx, repos, inventory.WarehouseCodeCentral)
		}
		return err
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if !item.IsActive() {
		return nil, nil, nil, shared.NewValidationError("item_id", "Item is deactivated")
	}
	if source.IsPreProduction() {
		return nil, nil, nil, shared.NewValidationError("source_warehouse_id", "Source cannot be the pre-production warehouse")
	}
	return item, source, pre, nil
}

// produceLocked locks the given materials and writes the production. The item is read
// again under the locks and errRecipeChanged is returned when its materials moved.
func (s *ProductionService) produceLocked(ctx context.Context, req ProduceRequest, materialIDs []uuid.UUID, source, pre *inventory.Warehouse, date time.Time) (*ProductionResponse, []shared.DomainEvent, error) {
	keys := []string{ItemStockKey(req.ItemID, pre.ID)}
	for _, id := range materialIDs {
		keys = append(keys, MaterialStockKey(id, source.ID), MaterialStockKey(id, pre.ID))
	}

	var resp *ProductionResponse
	var events []shared.DomainEvent
	err := s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive() {
			return shared.NewValidationError("item_id", "Item is deactivated")
		}
		if !sameMaterials(item.MaterialIDs(), materialIDs) {
			return errRecipeChanged
		}

		materials, err := repos.RawMaterials().FindByIDsForUpdate(ctx, materialIDs)
		if err != nil {
			return err
		}
		index := inventory.NewMaterialIndex(materials)
		ledger, err := s.loadLedger(ctx, repos, materialIDs, &date)
		if err != nil {
			return err
		}
		available := make(map[uuid.UUID]decimal.Decimal, len(index))
		for id, m := range index {
			available[id] = s.engine.StockAt(m, source, ledger, &date)
		}

		plan, err := inventory.PlanProduction(item, index, req.Quantity, available)
		if err != nil {
			var stockErr *shared.InsufficientStockError
			if errors.As(err, &stockErr) {
				s.metrics.RecordShortage(ctx, "produce", len(stockErr.Shortages))
			}
			return err
		}

		transfers, err := plan.Transfers(source, pre, date)
		if err != nil {
			return err
		}
		if err := repos.Transfers().SaveBatch(ctx, transfers); err != nil {
			return err
		}

		stock, err := s.lockedItemStock(ctx, repos, item.ID, pre.ID)
		if err != nil {
			return err
		}
		stock.Increase(req.Quantity)
		if err := repos.ItemStocks().Save(ctx, stock); err != nil {
			return err
		}

		record := plan.NewProductionRecord(source, date, req.Note)
		if err := repos.ItemHistory().SaveProduction(ctx, record); err != nil {
			return err
		}

		resp = toProductionResponse(record)
		resp.StockAfter = stock.Quantity
		for _, t := range transfers {
			resp.Transfers = append(resp.Transfers, ToTransferResponse(t))
			events = append(events, inventory.NewStockTransferredEvent(s.tenantID, t))
		}
		events = append(events, inventory.NewItemProducedEvent(s.tenantID, item, record))

		affected := make([]*inventory.RawMaterial, 0, len(index))
		for _, id := range materialIDs {
			affected = append(affected, index[id])
		}
		low, err := s.lowStockEvents(ctx, repos, affected, source)
		if err != nil {
			return err
		}
		events = append(events, low...)
		return nil
	})
	return resp, events, err
}

// sameMaterials reports whether two id lists hold the same set
func sameMaterials(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// TransferItem moves an intermediate good between warehouses. The source row is removed
// when it reaches zero; the destination row is created on first arrival.
func (s *ProductionService) TransferItem(ctx context.Context, req TransferItemRequest) (*ItemTransferResponse, error) {
	keys := []string{ItemStockKey(req.ItemID, req.FromWarehouseID), ItemStockKey(req.ItemID, req.ToWarehouseID)}

	var record *inventory.PreProductionTransfer
	err := s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		from, err := repos.Warehouses().FindByID(ctx, req.FromWarehouseID)
		if err != nil {
			return err
		}
		to, err := repos.Warehouses().FindByID(ctx, req.ToWarehouseID)
		if err != nil {
			return err
		}
		record, err = inventory.NewPreProductionTransfer(item, from, to, req.Quantity, s.dateOr(req.TransferDate), req.Note)
		if err != nil {
			return err
		}

		src, err := repos.ItemStocks().FindForUpdate(ctx, item.ID, from.ID)
		if errors.Is(err, shared.ErrNotFound) {
			s.metrics.RecordShortage(ctx, "item_transfer", 1)
			return shared.NewInsufficientStockError([]shared.Shortage{
				shared.NewShortage(item.ID, item.Name, item.Unit, req.Quantity, decimal.Zero),
			})
		}
		if err != nil {
			return err
		}
		if err := src.Decrease(item, req.Quantity); err != nil {
			s.metrics.RecordShortage(ctx, "item_transfer", 1)
			return err
		}
		if src.IsEmpty() {
			err = repos.ItemStocks().Delete(ctx, src.ID)
		} else {
			err = repos.ItemStocks().Save(ctx, src)
		}
		if err != nil {
			return err
		}

		dst, err := s.lockedItemStock(ctx, repos, item.ID, to.ID)
		if err != nil {
			return err
		}
		dst.Increase(req.Quantity)
		if err := repos.ItemStocks().Save(ctx, dst); err != nil {
			return err
		}
		return repos.ItemHistory().SaveTransfer(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerWrite(ctx, "item_transfer", 1)
	s.publish(ctx, inventory.NewItemTransferredEvent(s.tenantID, record))
	resp := ToItemTransferResponse(record)
	return &resp, nil
}

// DeleteItem deletes an item with its recipe lines and stock rows. History rows are kept.
// An item that still holds stock is only deleted when force is set.
func (s *ProductionService) DeleteItem(ctx context.Context, itemID uuid.UUID, req DeleteItemRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Items().FindByID(ctx, itemID); err != nil {
			return err
		}
		if !req.Force {
			stocks, err := repos.ItemStocks().FindByItem(ctx, itemID)
			if err != nil {
				return err
			}
			var held int64
			for _, st := range stocks {
				if !st.IsEmpty() {
					held++
				}
			}
			if held > 0 {
				return shared.NewDependencyConflictError("pre-production item", itemID,
					[]shared.Reference{{Kind: "pre_production_stock", Count: held}})
			}
		}
		return repos.Items().Delete(ctx, itemID)
	})
}

// ItemHistory returns the production runs and transfers of an item, including deleted items
func (s *ProductionService) ItemHistory(ctx context.Context, itemID uuid.UUID) (*ItemHistoryResponse, error) {
	resp := &ItemHistoryResponse{ItemID: itemID}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		productions, err := repos.ItemHistory().FindProductionsByItem(ctx, itemID)
		if err != nil {
			return err
		}
		transfers, err := repos.ItemHistory().FindTransfersByItem(ctx, itemID)
		if err != nil {
			return err
		}
		resp.Productions = make([]ProductionResponse, 0, len(productions))
		for i := range productions {
			resp.Productions = append(resp.Productions, *toProductionResponse(&productions[i]))
		}
		resp.Transfers = make([]ItemTransferResponse, 0, len(transfers))
		for i := range transfers {
			resp.Transfers = append(resp.Transfers, ToItemTransferResponse(&transfers[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// lockedItemStock loads the stock row of (item, warehouse) for update, or a new empty row
func (s *ProductionService) lockedItemStock(ctx context.Context, repos TransactionalRepositories, itemID, warehouseID uuid.UUID) (*inventory.PreProductionStock, error) {
	stock, err := repos.ItemStocks().FindForUpdate(ctx, itemID, warehouseID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return inventory.NewPreProductionStock(itemID, warehouseID), nil
}

func toProductionResponse(r *inventory.PreProductionProduction) *ProductionResponse {
	return &ProductionResponse{
		ID:                r.ID,
		ItemID:            r.ItemID,
		SourceWarehouseID: r.SourceWarehouseID,
		Quantity:          r.Quantity,
		ProductionDate:    r.ProductionDate,
		Note:              r.Note,
	}
}
