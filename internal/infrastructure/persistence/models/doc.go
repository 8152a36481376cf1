// Package models contains GORM-specific persistence models that map to the tables of one
// tenant store. These models are separate from domain entities to keep the domain layer pure
// and free from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Rows carry no tenant column: every tenant has its own database.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel, LifecycleColumns)
// - inventory.go: raw materials, warehouses, purchases, usages, transfers, thresholds, recipes
// - pre_production.go: intermediate goods, their stock and history
package models
