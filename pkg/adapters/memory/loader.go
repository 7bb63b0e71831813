package memory

import (
	"context"

	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/pkg/domain"
)

// Loader implements ports.DefinitionLoader with a definition held in memory.
type Loader struct {
	def domain.StateDefinition
}

// NewLoader wraps an already built definition.
func NewLoader(def domain.StateDefinition) *Loader {
	return &Loader{def: def}
}

// NewFromBytes parses a YAML or JSON document.
// This is handy for embedded definitions and tests.
func NewFromBytes(data []byte) (*Loader, error) {
	def, err := compiler.NewParser().Parse(data)
	if err != nil {
		return nil, err
	}
	return &Loader{def: def}, nil
}

// LoadDefinition returns the held definition.
func (l *Loader) LoadDefinition(ctx context.Context) (domain.StateDefinition, error) {
	return l.def, nil
}
