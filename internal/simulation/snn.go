package simulation

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
)

// Neuron ID prefixes of the MDSA SNN encoding. Every input node i gets a
// spike_once neuron and a degree_receiver neuron; adaptation adds
// redundant copies with a red_<k>_ prefix.
const (
	prefixSpikeOnce      = "spike_once_"
	prefixDegreeReceiver = "degree_receiver_"
	redundantPrefix      = "red_%d_"
)

// BuildSNN encodes the input graph as a spiking network. Spike-once
// neurons fire at t=0; each feeds the degree receivers of its
// neighbors with weight randCeil+1 and its own degree receiver with the
// node's random number, so after propagation a degree receiver's
// voltage equals its node's Alipour weight. Degree receivers have
// threshold 0: they integrate and never spike. With adaptation, every
// neuron gets redundant copies wired identically. With radiation,
// neurons die with the configured probability, decided once with the
// run seed.
func BuildSNN(input *graphs.Graph, cfg *config.RunConfig, withAdaptation, withRadiation bool) (*graphs.Graph, error) {
	randCeil, err := algRandCeil(input)
	if err != nil {
		return nil, err
	}

	snn := graphs.New()
	for _, node := range input.Nodes {
		neurons := []graphs.Node{
			{ID: prefixSpikeOnce + node.ID, Threshold: 1, Voltage: 1},
			{ID: prefixDegreeReceiver + node.ID, Threshold: 0},
		}
		for _, neuron := range neurons {
			if err := snn.AddNode(neuron); err != nil {
				return nil, err
			}
		}
	}
	for _, node := range input.Nodes {
		for _, neighbor := range input.Neighbors(node.ID) {
			e := graphs.Edge{
				Source: prefixSpikeOnce + node.ID,
				Target: prefixDegreeReceiver + neighbor,
				Weight: randCeil + 1,
			}
			if err := snn.AddEdge(e); err != nil {
				return nil, err
			}
		}
		self := graphs.Edge{
			Source: prefixSpikeOnce + node.ID,
			Target: prefixDegreeReceiver + node.ID,
			Weight: node.RandomNumber,
		}
		if err := snn.AddEdge(self); err != nil {
			return nil, err
		}
	}

	if withAdaptation {
		if cfg.Adaptation == nil {
			return nil, fmt.Errorf("adapted graph requested without adaptation config")
		}
		if err := addRedundancy(snn, cfg.Adaptation.Redundancy); err != nil {
			return nil, err
		}
	}
	if withRadiation {
		if cfg.Radiation == nil {
			return nil, fmt.Errorf("radiation graph requested without radiation config")
		}
		applyRadiation(snn, cfg.Radiation.NeuronDeathProbability, cfg.Seed)
	}

	duration, err := SimDuration(input, cfg)
	if err != nil {
		return nil, err
	}
	snn.SetAttr(AttrSimDuration, duration)
	return snn, nil
}

// algRandCeil reads the random ceiling from the input graph's algorithm
// properties.
func algRandCeil(input *graphs.Graph) (float64, error) {
	props, ok := input.Attrs[AttrAlgProps].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("input graph has no %s attribute", AttrAlgProps)
	}
	switch v := props["rand_ceil"].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("%s attribute has no rand_ceil", AttrAlgProps)
}

// addRedundancy wires redundancy copies of every neuron into the
// network. Copies mirror the original's threshold and synapses so a
// dead original's function survives in its copies.
func addRedundancy(snn *graphs.Graph, redundancy int) error {
	originals := append([]graphs.Node(nil), snn.Nodes...)
	originalEdges := append([]graphs.Edge(nil), snn.Edges...)

	for k := 1; k <= redundancy; k++ {
		prefix := fmt.Sprintf(redundantPrefix, k)
		for _, neuron := range originals {
			copyNeuron := neuron
			copyNeuron.ID = prefix + neuron.ID
			if err := snn.AddNode(copyNeuron); err != nil {
				return err
			}
		}
		for _, e := range originalEdges {
			mirrored := graphs.Edge{
				Source: prefix + e.Source,
				Target: prefix + e.Target,
				Weight: e.Weight,
			}
			if err := snn.AddEdge(mirrored); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyRadiation marks neurons dead with the given probability. The
// decision is seeded by the run config, so the same run always kills
// the same neurons.
func applyRadiation(snn *graphs.Graph, probability float64, seed int) {
	r := rand.New(rand.NewSource(int64(seed)))
	for i := range snn.Nodes {
		if r.Float64() < probability {
			snn.Nodes[i].Dead = true
		}
	}
}

// Propagate runs the discrete-timestep simulation for the stored
// simulation duration. Each step, every live neuron at or above its
// positive threshold spikes: its spike count increments, its voltage
// resets, and each outgoing synapse adds its weight to the target's
// voltage for the next step. Zero-threshold neurons integrate without
// spiking. The observed duration is recorded on the graph.
func Propagate(snn *graphs.Graph) error {
	var duration int
	switch d := snn.Attrs[AttrSimDuration].(type) {
	case int:
		duration = d
	case float64:
		// JSON round trips numeric attributes as float64.
		duration = int(d)
	default:
		return fmt.Errorf("graph has no %s attribute", AttrSimDuration)
	}

	actual := 0
	for t := 0; t < duration; t++ {
		spiking := make(map[string]bool)
		for i := range snn.Nodes {
			neuron := &snn.Nodes[i]
			if neuron.Dead || neuron.Threshold <= 0 {
				continue
			}
			if neuron.Voltage >= neuron.Threshold {
				spiking[neuron.ID] = true
				neuron.Spikes++
				neuron.Voltage = 0
			}
		}
		if len(spiking) == 0 {
			break
		}
		actual = t + 1
		for _, e := range snn.Edges {
			if spiking[e.Source] {
				if target := snn.Node(e.Target); target != nil && !target.Dead {
					target.Voltage += e.Weight
				}
			}
		}
	}

	snn.SetAttr(AttrActualDuration, actual)
	return nil
}

// ReceiverVoltage returns the integrated voltage for an input node,
// taking the maximum over the live degree receiver and its redundant
// copies. A dead receiver with no live copies contributes nothing.
func ReceiverVoltage(snn *graphs.Graph, nodeID string) float64 {
	best := 0.0
	found := false
	receiver := prefixDegreeReceiver + nodeID
	for _, neuron := range snn.Nodes {
		if neuron.Dead {
			continue
		}
		if neuron.ID == receiver || (strings.HasPrefix(neuron.ID, "red_") && strings.HasSuffix(neuron.ID, "_"+receiver)) {
			if !found || neuron.Voltage > best {
				best = neuron.Voltage
				found = true
			}
		}
	}
	return best
}
