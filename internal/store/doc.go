// Package store defines the persistence interfaces of the application and
// the sentinel errors shared by their implementations. Concrete storage
// backends live under internal/platform.
package store
