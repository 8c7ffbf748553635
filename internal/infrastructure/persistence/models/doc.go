// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Each model provides ToDomain and FromDomain mappers. Column types are kept
// portable so the same models run against PostgreSQL in production and SQLite
// in tests; the authoritative PostgreSQL schema lives in migrations/.
package models
