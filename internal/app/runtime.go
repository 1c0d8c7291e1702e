package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "INVOICEPRO_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether INVOICEPRO_TEST_MODE is set to a true value.
// Binaries return before opening connections when it is.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new value.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&on)
	return on
}
