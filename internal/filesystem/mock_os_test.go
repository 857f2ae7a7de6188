package filesystem

import (
	"testing"

	"github.com/desertwitch/vfszip/internal/schema"
	"github.com/stretchr/testify/mock"
)

// mockOsProvider delegates to the real operating system, except for the
// methods that tests need to fail on purpose.
type mockOsProvider struct {
	*schema.OS
	mock.Mock
}

func newMockOsProvider(t *testing.T) *mockOsProvider {
	t.Helper()

	m := &mockOsProvider{OS: &schema.OS{}}
	m.Mock.Test(t)

	return m
}

func (m *mockOsProvider) Rename(oldpath, newpath string) error {
	ret := m.Called(oldpath, newpath)

	return ret.Error(0)
}

func (m *mockOsProvider) Remove(name string) error {
	ret := m.Called(name)

	return ret.Error(0)
}
