// Package entities defines the GORM entity models of the electoral hierarchy.
//
// # Hierarchy
//
//   - Department: top-level jurisdiction
//   - Municipality: unique code within its department, carries the census population
//   - Zone: two-digit code unique within its municipality, classified by kind
//   - PollingPlace: optional external code, nullable zone, declared capacity
//   - Table: numbered within its polling place, carries registered voters
//
// # Tally
//
//   - Capture: one confirmed vote-tally capture per table
//
// Rows are never hard-deleted; removal clears the Active flag. The schema
// carries no foreign key constraints so that legacy orphans can be loaded and
// reported by the coherence validator.
package entities
