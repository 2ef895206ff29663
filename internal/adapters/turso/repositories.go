package turso

import (
	"database/sql"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	Experiments  ports.ExperimentRepository
	Compositions ports.CompositionRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Experiments:  NewExperimentRepository(db),
		Compositions: NewCompositionRepository(db),
	}
}
