// Package results persists experiment result bundles keyed by the
// canonical run key. The pipeline treats a Store as an opaque key-value
// collaborator: a missing key is a distinguishable not-found outcome,
// never a failure.
package results

import (
	"errors"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
)

// ErrNotFound is returned by Load when no bundle exists for a key.
var ErrNotFound = errors.New("result bundle not found")

// ResultBundle is the persisted unit of one run: its config and the
// named graph artifacts, each carrying its own stage record.
type ResultBundle struct {
	RunConfig *config.RunConfig        `json:"run_config"`
	Graphs    map[string]*graphs.Graph `json:"graphs_dict"`
}

// Clone returns a deep copy of the bundle.
func (b *ResultBundle) Clone() *ResultBundle {
	out := &ResultBundle{}
	if b.RunConfig != nil {
		out.RunConfig = b.RunConfig.Clone()
	}
	if b.Graphs != nil {
		out.Graphs = make(map[string]*graphs.Graph, len(b.Graphs))
		for role, g := range b.Graphs {
			out.Graphs[role] = g.Clone()
		}
	}
	return out
}

// RoleNames returns the graph roles present in the bundle, for error
// reporting. A nil bundle has no roles.
func (b *ResultBundle) RoleNames() []string {
	if b == nil {
		return nil
	}
	roles := make([]string, 0, len(b.Graphs))
	for role := range b.Graphs {
		roles = append(roles, role)
	}
	return roles
}

// Store persists result bundles. Load returns ErrNotFound for missing
// keys; every other error is a real failure. Save overwrites any
// existing bundle for the key (last writer wins).
type Store interface {
	Load(key string) (*ResultBundle, error)
	Save(key string, bundle *ResultBundle) error
	Keys() ([]string, error)
	Close() error
}
