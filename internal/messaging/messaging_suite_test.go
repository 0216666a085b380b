package messaging

import (
	"context"
	"sync"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestMessaging(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Messaging Module Suite")
}

// In-memory settings repository shared by the cache and bridge specs.
type mockSettingsRepo struct {
	mu       sync.Mutex
	settings *Settings
	getCalls int
	getErr   error
	saveErr  error
}

func (m *mockSettingsRepo) Get(_ context.Context) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.settings == nil {
		return nil, nil
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, s *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.settings = &cp
	return nil
}

func (m *mockSettingsRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}
