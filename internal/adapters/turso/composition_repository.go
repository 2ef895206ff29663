package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

// CompositionRepository stores compositions with their atoms and connections
// in child tables that are rewritten on every update.
type CompositionRepository struct {
	db *sql.DB
}

func NewCompositionRepository(db *sql.DB) *CompositionRepository {
	return &CompositionRepository{db: db}
}

func (r *CompositionRepository) Create(ctx context.Context, c *domain.Composition) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO compositions (id, name, description, status, validation_score, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID,
			c.Name,
			util.NullString(c.Description),
			string(c.Status),
			c.Validate().Score,
			c.CreatedAt.Format(time.RFC3339),
			c.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: composition %s already exists", domain.ErrInvalidInput, c.ID)
			}
			return fmt.Errorf("failed to create composition: %w", err)
		}
		return writeGraph(ctx, tx, c)
	})
}

func (r *CompositionRepository) Update(ctx context.Context, c *domain.Composition) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE compositions SET name = ?, description = ?, status = ?, validation_score = ?, updated_at = ?
			WHERE id = ?`,
			c.Name,
			util.NullString(c.Description),
			string(c.Status),
			c.Validate().Score,
			c.UpdatedAt.Format(time.RFC3339),
			c.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update composition: %w", err)
		}
		if err := requireAffected(res, "composition", c.ID); err != nil {
			return err
		}

		if err := clearGraph(ctx, tx, c.ID); err != nil {
			return err
		}
		return writeGraph(ctx, tx, c)
	})
}

func (r *CompositionRepository) GetByID(ctx context.Context, id string) (*domain.Composition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM compositions WHERE id = ?`, id)

	c, err := scanComposition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get composition: %w", err)
	}

	if err := r.loadGraph(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CompositionRepository) List(ctx context.Context) ([]*domain.Composition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM compositions ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list compositions: %w", err)
	}

	compositions := make([]*domain.Composition, 0)
	for rows.Next() {
		c, err := scanComposition(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan composition: %w", err)
		}
		compositions = append(compositions, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, c := range compositions {
		if err := r.loadGraph(ctx, c); err != nil {
			return nil, err
		}
	}
	return compositions, nil
}

func (r *CompositionRepository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearGraph(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM compositions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete composition: %w", err)
		}
		return requireAffected(res, "composition", id)
	})
}

func (r *CompositionRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// clearGraph removes the atoms and connections of a composition.
func clearGraph(ctx context.Context, tx *sql.Tx, compositionID string) error {
	for _, table := range []string{"composition_atoms", "composition_connections"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE composition_id = ?`, compositionID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func writeGraph(ctx context.Context, tx *sql.Tx, c *domain.Composition) error {
	for i, a := range c.Atoms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO composition_atoms (composition_id, id, atom_id, name, type, position_x, position_y, ordinal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, a.ID, util.NullString(a.AtomID), a.Name, string(a.Type), a.Position.X, a.Position.Y, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate atom id %q", domain.ErrInvalidInput, a.ID)
			}
			return fmt.Errorf("failed to insert atom %s: %w", a.ID, err)
		}
	}

	for i, conn := range c.Connections {
		id := conn.ID
		if id == "" {
			id = fmt.Sprintf("%s->%s#%d", conn.SourceID, conn.TargetID, i)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO composition_connections (composition_id, id, source_id, target_id, ordinal)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, id, conn.SourceID, conn.TargetID, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate connection id %q", domain.ErrInvalidInput, id)
			}
			return fmt.Errorf("failed to insert connection %s: %w", id, err)
		}
	}
	return nil
}

func (r *CompositionRepository) loadGraph(ctx context.Context, c *domain.Composition) error {
	atoms, err := r.loadAtoms(ctx, c.ID)
	if err != nil {
		return err
	}
	connections, err := r.loadConnections(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Atoms = atoms
	c.Connections = connections
	return nil
}

func (r *CompositionRepository) loadAtoms(ctx context.Context, compositionID string) ([]domain.AtomNode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, atom_id, name, type, position_x, position_y
		FROM composition_atoms WHERE composition_id = ? ORDER BY ordinal`, compositionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load atoms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	atoms := make([]domain.AtomNode, 0)
	for rows.Next() {
		var (
			a      domain.AtomNode
			atomID sql.NullString
			typ    string
		)
		if err := rows.Scan(&a.ID, &atomID, &a.Name, &typ, &a.Position.X, &a.Position.Y); err != nil {
			return nil, fmt.Errorf("failed to scan atom: %w", err)
		}
		a.AtomID = atomID.String
		a.Type = domain.AtomType(typ)
		atoms = append(atoms, a)
	}
	return atoms, rows.Err()
}

func (r *CompositionRepository) loadConnections(ctx context.Context, compositionID string) ([]domain.Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_id, target_id
		FROM composition_connections WHERE composition_id = ? ORDER BY ordinal`, compositionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	connections := make([]domain.Connection, 0)
	for rows.Next() {
		var conn domain.Connection
		if err := rows.Scan(&conn.ID, &conn.SourceID, &conn.TargetID); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

func scanComposition(s scanner) (*domain.Composition, error) {
	var (
		c                    domain.Composition
		description          sql.NullString
		status               string
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.Name, &description, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	c.Status = domain.CompositionStatus(status)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}
