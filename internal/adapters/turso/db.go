package turso

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

// DB wraps the libSQL connection pool.
type DB struct {
	*sql.DB
}

// NewDB opens the database described by cfg. A remote URL (libsql://, https://)
// is used with its auth token; an empty URL opens kairos.db in the XDG data dir.
func NewDB(cfg config.Database) (*DB, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: db}, nil
}

func dataSourceName(cfg config.Database) (string, error) {
	if cfg.URL != "" {
		if strings.HasPrefix(cfg.URL, "file:") || cfg.AuthToken == "" {
			return cfg.URL, nil
		}
		sep := "?"
		if strings.Contains(cfg.URL, "?") {
			sep = "&"
		}
		return cfg.URL + sep + "authToken=" + cfg.AuthToken, nil
	}

	dir, err := util.GetXDGDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return "file:" + filepath.Join(dir, "kairos.db"), nil
}
