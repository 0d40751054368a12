package simulation

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
)

// AttrAlgProps is the input-graph attribute holding the algorithm
// properties (random ceiling and per-node random numbers) that the
// Alipour computation and the exported images depend on.
const AttrAlgProps = "alg_props"

// GenerateInputGraph builds the input graph for a run: a connected
// pseudo-random undirected graph, fully determined by the run's size,
// graph number and seed, with the Alipour node state initialized.
func GenerateInputGraph(cfg *config.RunConfig) (*graphs.Graph, error) {
	n := cfg.GraphSize
	r := rand.New(rand.NewSource(int64(cfg.Seed)*1000 + int64(cfg.GraphNr)))

	g := graphs.New()
	for i := 0; i < n; i++ {
		if err := g.AddNode(graphs.Node{ID: strconv.Itoa(i)}); err != nil {
			return nil, err
		}
	}
	// A ring keeps the graph connected; random chords vary the topology
	// across graph numbers.
	for i := 0; i < n; i++ {
		e := graphs.Edge{Source: strconv.Itoa(i), Target: strconv.Itoa((i + 1) % n), Weight: 1}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // ring edge already present
			}
			if r.Float64() < 0.3 {
				e := graphs.Edge{Source: strconv.Itoa(i), Target: strconv.Itoa(j), Weight: 1}
				if err := g.AddEdge(e); err != nil {
					return nil, err
				}
			}
		}
	}

	randCeil := 2*n - 1
	randomNumbers, err := RandomSeries(n, 2*n, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate random numbers: %w", err)
	}
	for i := 0; i < n; i++ {
		setNodeDefaults(g, strconv.Itoa(i), float64(randCeil), float64(randomNumbers[i]))
	}

	g.SetAttr(AttrAlgProps, map[string]any{
		"rand_ceil": randCeil,
		"rand_nrs":  randomNumbers,
		"seed":      cfg.Seed,
	})
	return g, nil
}

// setNodeDefaults initializes the Alipour starting values of one node:
// marks seeded from degree, weight from marks plus the node's random
// number.
func setNodeDefaults(g *graphs.Graph, id string, randCeil, randomNumber float64) {
	node := g.Node(id)
	node.Marks = float64(g.Degree(id)) * (randCeil + 1)
	node.Countermarks = 0
	node.RandomNumber = randomNumber
	node.Weight = node.Marks + randomNumber
}
