package integration

import (
	"context"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

// Test configuration from environment or defaults
type TestConfig struct {
	KoiAddr string
}

func getTestConfig() TestConfig {
	return TestConfig{
		KoiAddr: getEnv("TEST_KOI_ADDR", "localhost:8765"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// skipIfServiceUnavailable skips the test if the service is not reachable
func skipIfServiceUnavailable(t *testing.T, addr string, serviceName string) {
	t.Helper()
	if !isServiceAvailable(addr) {
		t.Skipf("Skipping: %s service not available at %s", serviceName, addr)
	}
}

// isServiceAvailable checks if a TCP connection can be established
func isServiceAvailable(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// testContext returns a context with timeout for tests
func testContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// requireTrue fails the test if condition is false
func requireTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatalf("Expected true: %s", msg)
	}
}

// requireEqual fails the test if expected != actual
func requireEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// writeFile writes data to path
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// logTestStart logs the start of a test
func logTestStart(t *testing.T, area, testName string) {
	t.Helper()
	t.Logf("=== %s: %s ===", area, testName)
}
