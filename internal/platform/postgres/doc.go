// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in internal/store. It handles query execution, data
// mapping between domain entities and rows, and translation of driver
// errors into the store package's sentinel errors.
package postgres
