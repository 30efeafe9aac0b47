// Package mocks provides hand-written test doubles for the service and
// store interfaces. Each mock exposes per-method function fields; a nil
// field makes the method return the mock's default values.
package mocks
