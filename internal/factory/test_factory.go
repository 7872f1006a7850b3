package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roster/internal/blob"
	"github.com/mcoot/roster/internal/dependencies/mocks"
	"github.com/mcoot/roster/internal/services/auth"
	"github.com/mcoot/roster/internal/storage/memory"
	"github.com/mcoot/roster/internal/testutil"
)

// TestPassword is the admin password accepted by a TestApp
const TestPassword = "test-password"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	authCfg := auth.DefaultConfig()
	authCfg.PasswordHash = string(hash)

	app := newWithDependencies(
		memory.New(mockClock),
		blob.NewMemory(mockClock),
		auth.NewMemoryRegistry(),
		mockClock,
		mockIDs,
		authCfg,
		testutil.NopLogger(),
	)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
