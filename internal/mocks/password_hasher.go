package mocks

import "github.com/phrazzld/todo-api/internal/service/auth"

// MockPasswordHasher implements auth.PasswordHasher for testing without
// paying the bcrypt cost on every test case.
type MockPasswordHasher struct {
	HashFn    func(password string) (string, error)
	CompareFn func(hashedPassword, password string) error

	// Default responses used when the corresponding Fn is nil
	Hashed     string
	HashErr    error
	CompareErr error
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return m.Hashed, m.HashErr
}

func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	return m.CompareErr
}
