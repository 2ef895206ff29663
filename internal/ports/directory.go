package ports

import "github.com/BenWhite02/marketing-kairos-sub004/internal/domain"

// Directory supplies the selectable segments and filterable atom definitions.
type Directory interface {
	domain.AudienceDirectory
	ListSegments() []domain.Segment
	ListAtoms() []domain.AtomDefinition
}
