// Package verify re-checks that a run config loaded from the result
// store is the one that was requested. Identity keys exclude all
// volatile fields; this check is stricter and ignores only the unique
// ID, so it catches key collisions and stale-cache bugs that identity
// equality alone would hide.
package verify

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/jvdploeg/snncompare/internal/config"
)

// RunConfigMismatchError reports a loaded run config that differs from
// the requested one in any field other than the unique ID.
type RunConfigMismatchError struct {
	Expected *config.RunConfig
	Loaded   *config.RunConfig
	Diff     string
}

func (e *RunConfigMismatchError) Error() string {
	return fmt.Sprintf(
		"loaded run config does not match requested run config (-expected +loaded):\n%s\nexpected: %+v\nloaded: %+v",
		e.Diff, e.Expected, e.Loaded)
}

// AssertConsistent compares the two configs field by field after
// clearing the unique ID on both sides. Neither argument is mutated.
func AssertConsistent(expected, loaded *config.RunConfig) error {
	e := expected.Clone()
	l := loaded.Clone()
	e.UniqueID = ""
	l.UniqueID = ""

	if diff := cmp.Diff(e, l); diff != "" {
		return &RunConfigMismatchError{
			Expected: expected,
			Loaded:   loaded,
			Diff:     diff,
		}
	}
	return nil
}
