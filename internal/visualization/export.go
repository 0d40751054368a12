package visualization

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/results"
)

// Exporter writes the stage-3 image files for a run. File locations
// follow the pipeline's path contract; file content is the DOT
// rendering regardless of the requested extension, since completeness
// is tracked by file presence only.
type Exporter struct {
	// Root is the directory results/ and image paths live under.
	Root string

	// Extensions are the image extensions to export.
	Extensions []string
}

// Export writes one image for the input graph and one image per
// timestep for every SNN graph in the bundle.
func (e *Exporter) Export(cfg *config.RunConfig, key string, bundle map[string]*graphs.Graph, simDuration int) error {
	for role, g := range bundle {
		paths := results.ImagePaths(e.Root, role, key, e.Extensions, simDuration)
		for i, path := range paths {
			timestep := 0
			if role != graphs.RoleInputGraph {
				timestep = i % simDuration
			}
			if err := writeImage(path, RenderDOT(g, role, timestep)); err != nil {
				return fmt.Errorf("export %s: %w", role, err)
			}
		}
	}
	return nil
}

func writeImage(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write image %s: %w", path, err)
	}
	return nil
}
