package graphs

import "fmt"

// Graph role names. Each run produces the input graph plus SNN variants
// selected by its adaptation and radiation settings.
const (
	RoleInputGraph         = "input_graph"
	RoleSNNAlgoGraph       = "snn_algo_graph"
	RoleAdaptedSNNGraph    = "adapted_snn_graph"
	RoleRadSNNAlgoGraph    = "rad_snn_algo_graph"
	RoleRadAdaptedSNNGraph = "rad_adapted_snn_graph"
)

// RoleName returns the SNN graph role for an adaptation/radiation
// combination.
func RoleName(withAdaptation, withRadiation bool) string {
	if withAdaptation {
		if withRadiation {
			return RoleRadAdaptedSNNGraph
		}
		return RoleAdaptedSNNGraph
	}
	if withRadiation {
		return RoleRadSNNAlgoGraph
	}
	return RoleSNNAlgoGraph
}

// RoleHasAdaptation reports whether an SNN graph role carries the
// hardening adaptation. The input graph has no SNN variant semantics.
func RoleHasAdaptation(role string) (bool, error) {
	switch role {
	case RoleAdaptedSNNGraph, RoleRadAdaptedSNNGraph:
		return true, nil
	case RoleSNNAlgoGraph, RoleRadSNNAlgoGraph:
		return false, nil
	}
	return false, fmt.Errorf("unsupported graph role: %s", role)
}

// RoleHasRadiation reports whether an SNN graph role is radiation
// affected.
func RoleHasRadiation(role string) (bool, error) {
	switch role {
	case RoleRadSNNAlgoGraph, RoleRadAdaptedSNNGraph:
		return true, nil
	case RoleSNNAlgoGraph, RoleAdaptedSNNGraph:
		return false, nil
	}
	return false, fmt.Errorf("unsupported graph role: %s", role)
}

// SNNRoles returns the four SNN graph roles, covering every
// adaptation/radiation combination.
func SNNRoles() []string {
	var roles []string
	for _, withAdaptation := range []bool{false, true} {
		for _, withRadiation := range []bool{false, true} {
			roles = append(roles, RoleName(withAdaptation, withRadiation))
		}
	}
	return roles
}
