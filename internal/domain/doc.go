// Package domain contains the core business entities and domain logic of
// the application: users and the tasks they own. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
