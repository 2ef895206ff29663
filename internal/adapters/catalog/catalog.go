package catalog

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

// File is the on-disk layout of a catalog.
type File struct {
	Population int64                   `yaml:"population"`
	Segments   []domain.Segment        `yaml:"segments"`
	Atoms      []domain.AtomDefinition `yaml:"atoms"`
}

// Directory serves segments and atom definitions from an immutable in-memory
// catalog. It is safe for concurrent use.
type Directory struct {
	population int64
	segments   []domain.Segment
	atoms      []domain.AtomDefinition
	segmentIdx map[string]int
	atomIdx    map[string]int
}

// New builds a Directory from f after checking it for duplicate or blank IDs
// and out-of-range selectivities.
func New(f File) (*Directory, error) {
	if f.Population <= 0 {
		return nil, fmt.Errorf("%w: catalog population must be positive", domain.ErrInvalidInput)
	}

	d := &Directory{
		population: f.Population,
		segments:   slices.Clone(f.Segments),
		atoms:      slices.Clone(f.Atoms),
		segmentIdx: make(map[string]int, len(f.Segments)),
		atomIdx:    make(map[string]int, len(f.Atoms)),
	}

	for i, s := range d.segments {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("%w: segment %d has no id", domain.ErrInvalidInput, i)
		}
		if _, dup := d.segmentIdx[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate segment %s", domain.ErrInvalidInput, s.ID)
		}
		if s.Size < 0 {
			return nil, fmt.Errorf("%w: segment %s has negative size", domain.ErrInvalidInput, s.ID)
		}
		d.segmentIdx[s.ID] = i
	}

	for i, a := range d.atoms {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("%w: atom %d has no id", domain.ErrInvalidInput, i)
		}
		if _, dup := d.atomIdx[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate atom %s", domain.ErrInvalidInput, a.ID)
		}
		if a.Selectivity < 0 || a.Selectivity > 1 {
			return nil, fmt.Errorf("%w: atom %s selectivity %v outside [0, 1]", domain.ErrInvalidInput, a.ID, a.Selectivity)
		}
		d.atomIdx[a.ID] = i
	}

	return d, nil
}

// Parse decodes a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) (*Directory, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f)
}

// Load reads a YAML catalog from path. An empty path yields the built-in catalog.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func (d *Directory) Segment(id string) (domain.Segment, bool) {
	i, ok := d.segmentIdx[id]
	if !ok {
		return domain.Segment{}, false
	}
	return d.segments[i], true
}

func (d *Directory) Atom(id string) (domain.AtomDefinition, bool) {
	i, ok := d.atomIdx[id]
	if !ok {
		return domain.AtomDefinition{}, false
	}
	return d.atoms[i], true
}

func (d *Directory) Population() int64 {
	return d.population
}

// ListSegments returns the segments in catalog order.
func (d *Directory) ListSegments() []domain.Segment {
	return slices.Clone(d.segments)
}

// ListAtoms returns the atom definitions in catalog order.
func (d *Directory) ListAtoms() []domain.AtomDefinition {
	return slices.Clone(d.atoms)
}
