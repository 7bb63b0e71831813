package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// DefinitionLoader defines how a machine definition is retrieved.
// This allows the source (file, memory, embedded asset) to be decoupled.
type DefinitionLoader interface {
	// LoadDefinition returns the root StateDefinition.
	// Structural validation is left to runtime.Build.
	LoadDefinition(ctx context.Context) (domain.StateDefinition, error)
}
