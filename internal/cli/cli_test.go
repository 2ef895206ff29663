package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// testEnv points the CLI at a fresh database and clears other settings.
func testEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("KAIROS_DATABASE_URL", "file:"+filepath.Join(dir, "kairos.db"))
	for _, key := range []string{
		"KAIROS_AUTH_TOKEN",
		"KAIROS_OTEL_ENABLED",
		"KAIROS_OTEL_ENDPOINT",
		"KAIROS_OTEL_INSECURE",
		"KAIROS_PORT",
		"KAIROS_CATALOG_FILE",
		"KAIROS_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	return dir
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
