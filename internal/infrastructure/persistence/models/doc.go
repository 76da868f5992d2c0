// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models hold the table mappings and column types
// 3. ToDomain/FromDomain convert between the two
// 4. Money columns are decimal(15,2)
//
// Structure:
// - base.go: Base persistence models and AllModels
// - ledger.go: cash account, operations, audit history and sequence counters
// - debt.go: debts and their payments
// - project.go: projects and revenues
// - document.go: delivery notes, purchase orders, mission orders
// - identity.go: users
package models
