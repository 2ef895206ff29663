package turso

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
)

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Database
		want string
	}{
		{"remote with token", config.Database{URL: "libsql://kairos.turso.io", AuthToken: "tok"}, "libsql://kairos.turso.io?authToken=tok"},
		{"remote with query", config.Database{URL: "https://kairos.turso.io?tls=1", AuthToken: "tok"}, "https://kairos.turso.io?tls=1&authToken=tok"},
		{"remote without token", config.Database{URL: "http://127.0.0.1:8080"}, "http://127.0.0.1:8080"},
		{"explicit file", config.Database{URL: "file:/tmp/k.db", AuthToken: "ignored"}, "file:/tmp/k.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDataSourceName_DefaultsToXDGFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := dataSourceName(config.Database{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "file:"+dir) || filepath.Base(got) != "kairos.db" {
		t.Errorf("expected kairos.db under %s, got %q", dir, got)
	}
}

func TestNewDB_LocalFile(t *testing.T) {
	db, err := NewDB(config.Database{URL: "file:" + filepath.Join(t.TempDir(), "kairos.db")})
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var one int
	if err := db.QueryRow("SELECT 1").Scan(&one); err != nil || one != 1 {
		t.Errorf("expected working connection, got %d, %v", one, err)
	}
}
