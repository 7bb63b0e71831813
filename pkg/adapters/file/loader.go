package file

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/pkg/domain"
)

// Loader implements ports.DefinitionLoader for a YAML or JSON file.
// The file is read on every call, so edits are picked up on reload.
type Loader struct {
	path   string
	parser *compiler.Parser
}

// NewLoader creates a loader for the definition at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, parser: compiler.NewParser()}
}

// Path returns the definition file path.
func (l *Loader) Path() string {
	return l.path
}

// LoadDefinition reads and parses the file.
func (l *Loader) LoadDefinition(ctx context.Context) (domain.StateDefinition, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.StateDefinition{}, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := l.parser.Parse(data)
	if err != nil {
		return domain.StateDefinition{}, fmt.Errorf("%s: %w", l.path, err)
	}
	return def, nil
}
