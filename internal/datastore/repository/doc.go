// Package repository provides repository interfaces and GORM implementations
// for the electoral hierarchy tables.
//
// # Error Handling
//
// All repositories return sentinel errors (ErrZoneNotFound, ErrDuplicateKey, ...)
// instead of leaking GORM errors.
//
// # Transactions
//
// Store groups the repositories of one connection. Store.WithinTx runs a
// function against a Store bound to a single database transaction; returning
// an error or panicking rolls every write back.
//
// # Required Schema Constraints
//
// Create and GetOrCreate rely on database unique constraints:
//
//   - departments: UNIQUE(code)
//   - municipalities: UNIQUE(department_id, code)
//   - zones: UNIQUE(municipality_id, code)
//   - voting_tables: UNIQUE(polling_place_id, number)
//   - table_captures: UNIQUE(table_id)
package repository
