package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService handles raw materials, warehouses, purchases, transfers and balance queries
// of one tenant store
type LedgerService struct {
	ledgerCore
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(tenantID uuid.UUID, scope TransactionScope, engine *inventory.BalanceEngine, logger *zap.Logger) *LedgerService {
	return &LedgerService{ledgerCore: newLedgerCore(tenantID, scope, engine, logger)}
}

// CreateWarehouse creates a named warehouse
func (s *LedgerService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	w, err := inventory.NewWarehouse(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, err := repos.Warehouses().FindByCode(ctx, w.Code)
		if err == nil {
			return shared.NewDomainError("ALREADY_EXISTS", "Warehouse code already exists: "+w.Code)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Warehouses().Save(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// EnsureWarehouse returns the warehouse with code, creating it when missing
func (s *LedgerService) EnsureWarehouse(ctx context.Context, code string) (*WarehouseResponse, error) {
	var w *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		w, err = ensureWarehouse(ctx, repos, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// ListWarehouses returns every warehouse
func (s *LedgerService) ListWarehouses(ctx context.Context) ([]WarehouseResponse, error) {
	var warehouses []inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		warehouses, err = repos.Warehouses().FindAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]WarehouseResponse, 0, len(warehouses))
	for i := range warehouses {
		result = append(result, ToWarehouseResponse(&warehouses[i]))
	}
	return result, nil
}

// CreateRawMaterial adds a raw material to the catalog
func (s *LedgerService) CreateRawMaterial(ctx context.Context, req CreateRawMaterialRequest) (*RawMaterialResponse, error) {
	material, err := inventory.NewRawMaterial(req.Name, req.Code, req.DefaultUnit, req.MinStock)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if material.Code != "" {
			exists, err := repos.RawMaterials().ExistsByCode(ctx, material.Code)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("ALREADY_EXISTS", "Raw material code already exists: "+material.Code)
			}
		}
		return repos.RawMaterials().Save(ctx, material)
	})
	if err != nil {
		return nil, err
	}
	s.publishAggregate(ctx, material)
	s.logger.Info("raw material created",
		zap.String("raw_material_id", material.ID.String()),
		zap.String("default_unit", material.DefaultUnit),
	)
	resp := ToRawMaterialResponse(material)
	return &resp, nil
}

// GetRawMaterial retrieves a raw material by ID
func (s *LedgerService) GetRawMaterial(ctx context.Context, id uuid.UUID) (*RawMaterialResponse, error) {
	var material *inventory.RawMaterial
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		material, err = repos.RawMaterials().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToRawMaterialResponse(material)
	return &resp, nil
}

// ListRawMaterials lists raw materials; deactivated ones only on request
func (s *LedgerService) ListRawMaterials(ctx context.Context, filter RawMaterialListFilter) ([]RawMaterialResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   filter.Search,
		Filters:  map[string]interface{}{"include_inactive": filter.IncludeInactive},
	}

	var materials []inventory.RawMaterial
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		materials, err = repos.RawMaterials().FindAll(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]RawMaterialResponse, 0, len(materials))
	for i := range materials {
		result = append(result, ToRawMaterialResponse(&materials[i]))
	}
	return result, nil
}

// SetMinStock sets the global threshold of a material, or its override for one warehouse
func (s *LedgerService) SetMinStock(ctx context.Context, req SetMinStockRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.RawMaterials().FindByIDForUpdate(ctx, req.RawMaterialID)
		if err != nil {
			return err
		}
		if req.WarehouseID == nil {
			if err := material.SetMinStock(req.MinStock); err != nil {
				return err
			}
			return repos.RawMaterials().Save(ctx, material)
		}

		warehouse, err := repos.Warehouses().FindByID(ctx, *req.WarehouseID)
		if err != nil {
			return err
		}
		override, err := repos.MinStocks().Find(ctx, material.ID, warehouse.ID)
		switch {
		case err == nil:
			if err := override.Update(req.MinStock); err != nil {
				return err
			}
		case errors.Is(err, shared.ErrNotFound):
			override, err = inventory.NewWarehouseMaterialMinStock(material.ID, warehouse.ID, req.MinStock)
			if err != nil {
				return err
			}
		default:
			return err
		}
		return repos.MinStocks().Save(ctx, override)
	})
}

// DeleteRawMaterial deletes an unreferenced raw material. A referenced material fails with
// a DependencyConflictError unless the request asks to deactivate it instead.
func (s *LedgerService) DeleteRawMaterial(ctx context.Context, id uuid.UUID, req DeleteRawMaterialRequest) (*DeleteRawMaterialResult, error) {
	result := &DeleteRawMaterialResult{}
	var material *inventory.RawMaterial
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		material, err = repos.RawMaterials().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		refs, err := s.countReferences(ctx, repos, id)
		if err != nil {
			return err
		}
		conflict := material.EnsureDeletable(refs)
		if conflict == nil {
			if err := repos.MinStocks().DeleteByMaterial(ctx, id); err != nil {
				return err
			}
			result.Deleted = true
			return repos.RawMaterials().Delete(ctx, id)
		}
		if !req.Deactivate {
			return conflict
		}
		result.Deactivated = true
		if !material.IsActive() {
			return nil
		}
		if err := material.Deactivate(req.Reason); err != nil {
			return err
		}
		return repos.RawMaterials().Save(ctx, material)
	})
	if err != nil {
		return nil, err
	}
	if result.Deactivated {
		s.publishAggregate(ctx, material)
	}
	return result, nil
}

func (s *LedgerService) countReferences(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) ([]shared.Reference, error) {
	counters := []func(context.Context, uuid.UUID) (int64, error){
		repos.Purchases().CountByMaterial,
		repos.Usages().CountByMaterial,
		repos.Transfers().CountByMaterial,
		repos.MenuRecipes().CountByMaterial,
		repos.Items().CountByMaterial,
	}
	refs := make([]shared.Reference, 0, len(counters))
	for i, count := range counters {
		n, err := count(ctx, id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, shared.Reference{Kind: inventory.RawMaterialReferenceKinds[i], Count: n})
	}
	return refs, nil
}

// RecordPurchase records a purchase into the central warehouse
func (s *LedgerService) RecordPurchase(ctx context.Context, req RecordPurchaseRequest) (*PurchaseResponse, error) {
	var purchase *inventory.Purchase
	var event shared.DomainEvent

	central, err := s.centralWarehouse(ctx)
	if err != nil {
		return nil, err
	}
	keys := []string{MaterialStockKey(req.RawMaterialID, central.ID)}
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		material, err := repos.RawMaterials().FindByIDForUpdate(ctx, req.RawMaterialID)
		if err != nil {
			return err
		}
		unit := req.Unit
		if unit == "" {
			unit = material.DefaultUnit
		}
		purchase, err = inventory.NewPurchase(material, inventory.PurchaseDetails{
			Quantity:     req.Quantity,
			Unit:         unit,
			TotalPrice:   req.TotalPrice,
			PurchaseDate: s.dateOr(req.PurchaseDate),
			VendorName:   req.VendorName,
			VendorPhone:  req.VendorPhone,
			Note:         req.Note,
		})
		if err != nil {
			return err
		}
		if err := repos.Purchases().Save(ctx, purchase); err != nil {
			return err
		}
		event = inventory.NewPurchaseRecordedEvent(s.tenantID, material, purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerWrite(ctx, "purchase", 1)
	s.publish(ctx, event)
	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// UpdatePurchase edits a recorded purchase. Balances pick up the change on the next query.
func (s *LedgerService) UpdatePurchase(ctx context.Context, id uuid.UUID, req UpdatePurchaseRequest) (*PurchaseResponse, error) {
	existing, central, err := s.purchaseLockTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	var purchase *inventory.Purchase
	keys := []string{MaterialStockKey(existing.RawMaterialID, central.ID)}
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		var err error
		purchase, err = repos.Purchases().FindByID(ctx, id)
		if err != nil {
			return err
		}
		unit := req.Unit
		if unit == "" {
			unit = purchase.Unit
		}
		date := purchase.PurchaseDate
		if req.PurchaseDate != nil && !req.PurchaseDate.IsZero() {
			date = *req.PurchaseDate
		}
		if err := purchase.Update(inventory.PurchaseDetails{
			Quantity:     req.Quantity,
			Unit:         unit,
			TotalPrice:   req.TotalPrice,
			PurchaseDate: date,
			VendorName:   req.VendorName,
			VendorPhone:  req.VendorPhone,
			Note:         req.Note,
		}); err != nil {
			return err
		}
		return repos.Purchases().Save(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// DeletePurchase removes a recorded purchase
func (s *LedgerService) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	existing, central, err := s.purchaseLockTarget(ctx, id)
	if err != nil {
		return err
	}
	keys := []string{MaterialStockKey(existing.RawMaterialID, central.ID)}
	return s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		return repos.Purchases().Delete(ctx, id)
	})
}

func (s *LedgerService) purchaseLockTarget(ctx context.Context, id uuid.UUID) (*inventory.Purchase, *inventory.Warehouse, error) {
	var purchase *inventory.Purchase
	var central *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if purchase, err = repos.Purchases().FindByID(ctx, id); err != nil {
			return err
		}
		central, err = repos.Warehouses().FindByCode(ctx, inventory.WarehouseCodeCentral)
		return err
	})
	return purchase, central, err
}

// ImportPurchases records a batch of purchases in one transaction. Each row names its
// material by code or, failing that, by name. When any row is invalid nothing is written
// and the returned ImportRejectedError lists every rejected row.
func (s *LedgerService) ImportPurchases(ctx context.Context, rows []PurchaseImportRow) (*PurchaseImportResult, error) {
	if len(rows) == 0 {
		return nil, shared.NewValidationError("rows", "Import contains no purchases")
	}
	central, err := s.centralWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	var active []inventory.RawMaterial
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		active, err = repos.RawMaterials().FindActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*inventory.RawMaterial, len(active))
	byName := make(map[string]*inventory.RawMaterial, len(active))
	for i := range active {
		m := &active[i]
		if m.Code != "" {
			byCode[strings.ToLower(m.Code)] = m
		}
		byName[strings.ToLower(m.Name)] = m
	}

	purchases := make([]*inventory.Purchase, 0, len(rows))
	owners := make([]*inventory.RawMaterial, 0, len(rows))
	var rejected []shared.RowError
	for _, row := range rows {
		ref := strings.ToLower(strings.TrimSpace(row.Material))
		material, ok := byCode[ref]
		if !ok {
			material, ok = byName[ref]
		}
		if !ok {
			rejected = append(rejected, shared.RowError{
				Row:     row.Row,
				Column:  "material",
				Code:    shared.ErrNotFound.Code,
				Message: "No active raw material with this code or name",
				Value:   row.Material,
			})
			continue
		}
		unit := row.Unit
		if unit == "" {
			unit = material.DefaultUnit
		}
		purchase, err := inventory.NewPurchase(material, inventory.PurchaseDetails{
			Quantity:     row.Quantity,
			Unit:         unit,
			TotalPrice:   row.TotalPrice,
			PurchaseDate: s.dateOr(row.PurchaseDate),
			VendorName:   row.VendorName,
			VendorPhone:  row.VendorPhone,
			Note:         row.Note,
		})
		var validationErr *shared.ValidationError
		if errors.As(err, &validationErr) {
			rejected = append(rejected, shared.RowError{
				Row:     row.Row,
				Column:  validationErr.Field,
				Code:    validationErr.Code,
				Message: validationErr.Message,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
		owners = append(owners, material)
	}
	if len(rejected) > 0 {
		return nil, shared.NewImportRejectedError(rejected)
	}

	var keys []string
	seen := make(map[uuid.UUID]bool)
	for _, m := range owners {
		if !seen[m.ID] {
			seen[m.ID] = true
			keys = append(keys, MaterialStockKey(m.ID, central.ID))
		}
	}
	events := make([]shared.DomainEvent, 0, len(purchases))
	err = s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		for id := range seen {
			// A material deactivated since the lookup rejects the whole batch
			material, err := repos.RawMaterials().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !material.IsActive() {
				return shared.NewValidationError("material", "Raw material "+material.Name+" is deactivated")
			}
		}
		for i, purchase := range purchases {
			if err := repos.Purchases().Save(ctx, purchase); err != nil {
				return err
			}
			events = append(events, inventory.NewPurchaseRecordedEvent(s.tenantID, owners[i], purchase))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerWrite(ctx, "purchase", len(purchases))
	s.publish(ctx, events...)
	s.logger.Info("Purchases imported", zap.Int("count", len(purchases)))

	result := &PurchaseImportResult{
		Imported:  len(purchases),
		Purchases: make([]PurchaseResponse, 0, len(purchases)),
	}
	for _, p := range purchases {
		result.Purchases = append(result.Purchases, ToPurchaseResponse(p))
	}
	return result, nil
}

// ListPurchases lists the purchases of a raw material
func (s *LedgerService) ListPurchases(ctx context.Context, materialID uuid.UUID) ([]PurchaseResponse, error) {
	var purchases []inventory.Purchase
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		purchases, err = repos.Purchases().FindByMaterial(ctx, materialID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		result = append(result, ToPurchaseResponse(&purchases[i]))
	}
	return result, nil
}

// TransferStock moves a raw material between warehouses.
// The route must be allowed and the source must hold enough stock in the material's default unit
// as of the transfer date.
func (s *LedgerService) TransferStock(ctx context.Context, req TransferStockRequest) (*TransferResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	var keys []string
	for _, id := range []*uuid.UUID{req.FromWarehouseID, req.ToWarehouseID} {
		if id != nil {
			keys = append(keys, MaterialStockKey(req.RawMaterialID, *id))
		}
	}

	var transfer *inventory.Transfer
	var events []shared.DomainEvent
	err := s.withLocks(ctx, keys, func(repos TransactionalRepositories) error {
		material, err := repos.RawMaterials().FindByIDForUpdate(ctx, req.RawMaterialID)
		if err != nil {
			return err
		}
		if !material.IsActive() {
			return shared.NewValidationError("raw_material_id", "Raw material is deactivated")
		}
		from, err := findWarehouse(ctx, repos, req.FromWarehouseID)
		if err != nil {
			return err
		}
		to, err := findWarehouse(ctx, repos, req.ToWarehouseID)
		if err != nil {
			return err
		}
		if err := inventory.ValidateTransferRoute(from, to); err != nil {
			return err
		}

		transfer, err = inventory.NewTransfer(material, from, to, req.Quantity, req.Unit, s.dateOr(req.TransferDate), req.Note)
		if err != nil {
			return err
		}

		if from != nil {
			ledger, err := s.loadLedger(ctx, repos, []uuid.UUID{material.ID}, &transfer.TransferDate)
			if err != nil {
				return err
			}
			available := s.engine.StockAt(material, from, ledger, &transfer.TransferDate)
			if transfer.BaseQuantity.GreaterThan(available) {
				s.metrics.RecordShortage(ctx, "transfer", 1)
				return shared.NewInsufficientStockError([]shared.Shortage{
					shared.NewShortage(material.ID, material.Name, material.DefaultUnit, transfer.BaseQuantity, available),
				})
			}
		}

		if err := repos.Transfers().Save(ctx, transfer); err != nil {
			return err
		}
		events = append(events, inventory.NewStockTransferredEvent(s.tenantID, transfer))
		low, err := s.lowStockEvents(ctx, repos, []*inventory.RawMaterial{material}, from)
		if err != nil {
			return err
		}
		events = append(events, low...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerWrite(ctx, "transfer", 1)
	s.publish(ctx, events...)
	s.logger.Info("stock transferred",
		zap.String("raw_material_id", transfer.RawMaterialID.String()),
		zap.String("base_quantity", transfer.BaseQuantity.String()),
	)
	resp := ToTransferResponse(transfer)
	return &resp, nil
}

// ListTransfers lists the transfers of a raw material
func (s *LedgerService) ListTransfers(ctx context.Context, materialID uuid.UUID) ([]TransferResponse, error) {
	var transfers []inventory.Transfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfers, err = repos.Transfers().FindByMaterial(ctx, materialID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		result = append(result, ToTransferResponse(&transfers[i]))
	}
	return result, nil
}

// StockAt returns the balance of a material as of the day of q.AsOf (all history when nil)
func (s *LedgerService) StockAt(ctx context.Context, q StockQuery) (*StockResponse, error) {
	q.Start = nil
	return s.StockForPeriod(ctx, q)
}

// StockForPeriod returns the closing balance of a material for [q.Start, q.AsOf]
func (s *LedgerService) StockForPeriod(ctx context.Context, q StockQuery) (*StockResponse, error) {
	var resp *StockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.RawMaterials().FindByID(ctx, q.RawMaterialID)
		if err != nil {
			return err
		}
		warehouse, err := s.resolveWarehouse(ctx, repos, q.WarehouseID, q.WarehouseCode)
		if err != nil {
			return err
		}
		ledger, err := s.loadLedger(ctx, repos, []uuid.UUID{material.ID}, q.AsOf)
		if err != nil {
			return err
		}
		stock := s.engine.StockForPeriod(material, warehouse, ledger, inventory.Period{Start: q.Start, End: q.AsOf})
		resp = &StockResponse{
			RawMaterialID: material.ID,
			Stock:         stock,
			Unit:          material.DefaultUnit,
			Start:         q.Start,
			AsOf:          q.AsOf,
		}
		if warehouse != nil {
			id := warehouse.ID
			resp.WarehouseID = &id
			resp.WarehouseCode = warehouse.Code
		}
		return nil
	})
	return resp, err
}

// PeriodReport returns the closing balance of every active material for [q.Start, q.AsOf].
// q.RawMaterialID is ignored.
func (s *LedgerService) PeriodReport(ctx context.Context, q StockQuery) ([]StockResponse, error) {
	if q.Start != nil && q.AsOf != nil && s.engine.Day(*q.AsOf).Before(s.engine.Day(*q.Start)) {
		return nil, shared.NewValidationError("end", "End date is before start date")
	}
	var result []StockResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		warehouse, err := s.resolveWarehouse(ctx, repos, q.WarehouseID, q.WarehouseCode)
		if err != nil {
			return err
		}
		materials, err := repos.RawMaterials().FindActive(ctx)
		if err != nil || len(materials) == 0 {
			return err
		}
		ids := make([]uuid.UUID, 0, len(materials))
		for i := range materials {
			ids = append(ids, materials[i].ID)
		}
		ledger, err := s.loadLedger(ctx, repos, ids, q.AsOf)
		if err != nil {
			return err
		}
		period := inventory.Period{Start: q.Start, End: q.AsOf}
		result = make([]StockResponse, 0, len(materials))
		for i := range materials {
			resp := StockResponse{
				RawMaterialID: materials[i].ID,
				Stock:         s.engine.StockForPeriod(&materials[i], warehouse, ledger, period),
				Unit:          materials[i].DefaultUnit,
				Start:         q.Start,
				AsOf:          q.AsOf,
			}
			if warehouse != nil {
				id := warehouse.ID
				resp.WarehouseID = &id
				resp.WarehouseCode = warehouse.Code
			}
			result = append(result, resp)
		}
		return nil
	})
	return result, err
}

// IsLow reports the balance of a material against its resolved threshold
func (s *LedgerService) IsLow(ctx context.Context, materialID uuid.UUID, warehouseID *uuid.UUID) (*StockLevelResponse, error) {
	var resp StockLevelResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.RawMaterials().FindByID(ctx, materialID)
		if err != nil {
			return err
		}
		warehouse, err := findWarehouse(ctx, repos, warehouseID)
		if err != nil {
			return err
		}
		ledger, err := s.loadLedger(ctx, repos, []uuid.UUID{material.ID}, nil)
		if err != nil {
			return err
		}
		level, err := s.stockLevel(ctx, repos, material, warehouse, ledger)
		if err != nil {
			return err
		}
		resp = ToStockLevelResponse(level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// LowStockReport lists every active material at or below its threshold in a warehouse.
// The central warehouse is used when warehouseID is nil.
func (s *LedgerService) LowStockReport(ctx context.Context, warehouseID *uuid.UUID) ([]StockLevelResponse, error) {
	var result []StockLevelResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		warehouse, err := s.resolveWarehouse(ctx, repos, warehouseID, inventory.WarehouseCodeCentral)
		if err != nil {
			return err
		}
		materials, err := repos.RawMaterials().FindActive(ctx)
		if err != nil {
			return err
		}
		if len(materials) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(materials))
		for i := range materials {
			ids = append(ids, materials[i].ID)
		}
		ledger, err := s.loadLedger(ctx, repos, ids, nil)
		if err != nil {
			return err
		}
		for i := range materials {
			level, err := s.stockLevel(ctx, repos, &materials[i], warehouse, ledger)
			if err != nil {
				return err
			}
			if level.IsLow() {
				result = append(result, ToStockLevelResponse(level))
			}
		}
		return nil
	})
	return result, err
}

// SweepLowStock publishes a StockBelowThreshold event for every low balance and returns
// how many were found. Central is checked against every active material; other regular
// warehouses only for materials with an override there. Waste and pre_production are skipped.
func (s *LedgerService) SweepLowStock(ctx context.Context) (int, error) {
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		materials, err := repos.RawMaterials().FindActive(ctx)
		if err != nil || len(materials) == 0 {
			return err
		}
		index := make(map[uuid.UUID]*inventory.RawMaterial, len(materials))
		all := make([]*inventory.RawMaterial, 0, len(materials))
		for i := range materials {
			index[materials[i].ID] = &materials[i]
			all = append(all, &materials[i])
		}

		warehouses, err := repos.Warehouses().FindAll(ctx)
		if err != nil {
			return err
		}
		for i := range warehouses {
			w := &warehouses[i]
			if !w.IsActive() || w.IsWaste() || w.IsPreProduction() {
				continue
			}
			checked := all
			if !w.IsCentral() {
				overrides, err := repos.MinStocks().FindByWarehouse(ctx, w.ID)
				if err != nil {
					return err
				}
				checked = checked[:0:0]
				for _, o := range overrides {
					if m, ok := index[o.RawMaterialID]; ok {
						checked = append(checked, m)
					}
				}
			}
			low, err := s.lowStockEvents(ctx, repos, checked, w)
			if err != nil {
				return err
			}
			events = append(events, low...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events...)
	return len(events), nil
}

// AvailableIn returns default-unit balances of several materials in one warehouse
func (s *LedgerService) AvailableIn(ctx context.Context, warehouseID uuid.UUID, materialIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal, len(materialIDs))
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		warehouse, err := repos.Warehouses().FindByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		materials, err := repos.RawMaterials().FindByIDs(ctx, materialIDs)
		if err != nil {
			return err
		}
		ledger, err := s.loadLedger(ctx, repos, materialIDs, nil)
		if err != nil {
			return err
		}
		for i := range materials {
			result[materials[i].ID] = s.engine.StockAt(&materials[i], warehouse, ledger, nil)
		}
		return nil
	})
	return result, err
}

func (s *LedgerService) resolveWarehouse(ctx context.Context, repos TransactionalRepositories, id *uuid.UUID, code string) (*inventory.Warehouse, error) {
	if id != nil && *id != uuid.Nil {
		return repos.Warehouses().FindByID(ctx, *id)
	}
	if code == "" {
		return nil, nil
	}
	return repos.Warehouses().FindByCode(ctx, inventory.NormalizeWarehouseCode(code))
}

func (s *LedgerService) centralWarehouse(ctx context.Context) (*inventory.Warehouse, error) {
	var central *inventory.Warehouse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		central, err = ensureWarehouse(ctx, repos, inventory.WarehouseCodeCentral)
		return err
	})
	return central, err
}
