package translate

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/twm/internal/resource"
)

// Passthrough copies the target's source contents into SourceCode unchanged.
type Passthrough struct{}

// Translate implements resource.Translator.
func (Passthrough) Translate(_ context.Context, _ *resource.Context, _ *resource.FileResource, target *resource.FileResource) error {
	data, err := os.ReadFile(target.SourceAbsolutePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", target.SourceAbsolutePath, err)
	}
	target.SourceCode = string(data)
	return nil
}
