package results

import (
	"fmt"
	"path/filepath"

	"github.com/jvdploeg/snncompare/internal/graphs"
)

// On-disk layout. These paths are a contract: external tooling reads the
// exported images and bundles from these locations.
const (
	// DefaultResultsDir holds JSON bundles and input-graph images.
	DefaultResultsDir = "results"

	// DefaultImageDir holds per-timestep SNN graph images.
	DefaultImageDir = "latex/Images/graphs"
)

// ImagePaths returns the expected image file paths for one graph role.
// The input graph gets a single image under the results directory; every
// SNN role gets one image per simulated timestep under the image
// directory:
//
//	results/{role}_{key}{ext}
//	{imageDir}/{role}_{key}_{t}{ext}   for t in [0, simDuration)
//
// All paths are relative to root.
func ImagePaths(root, role, key string, extensions []string, simDuration int) []string {
	var paths []string
	for _, ext := range extensions {
		if role == graphs.RoleInputGraph {
			name := fmt.Sprintf("%s_%s%s", role, key, ext)
			paths = append(paths, filepath.Join(root, DefaultResultsDir, name))
			continue
		}
		for t := 0; t < simDuration; t++ {
			name := fmt.Sprintf("%s_%s_%d%s", role, key, t, ext)
			paths = append(paths, filepath.Join(root, DefaultImageDir, name))
		}
	}
	return paths
}

// ExpectedImagePaths returns the image paths for every given role.
func ExpectedImagePaths(root string, roles []string, key string, extensions []string, simDuration int) []string {
	var paths []string
	for _, ext := range extensions {
		for _, role := range roles {
			paths = append(paths, ImagePaths(root, role, key, []string{ext}, simDuration)...)
		}
	}
	return paths
}
