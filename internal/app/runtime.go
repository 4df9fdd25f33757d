package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv makes the binaries skip network side effects when set to "1".
const TestModeEnv = "SALON_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testMode.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the process runs under go test.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	detectTestMode()
}
