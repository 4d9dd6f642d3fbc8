// Package match scores every (input, reference) acquisition/series pair
// with a fuzzy field-distance metric and solves the rectangular
// minimum-cost bipartite assignment to produce a 1:1 session mapping.
package match

import (
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/protoqa/scanqc/core/schema"
)

// Identity names one acquisition/series slot on either side of the mapping.
// Series is empty for acquisitions without series sub-groups.
type Identity struct {
	Acquisition string `json:"acquisition"`
	Series      string `json:"series,omitempty"`
}

// Edge is one assignment from an input identity to a reference identity.
type Edge struct {
	Input     Identity `json:"input"`
	Reference Identity `json:"reference"`
	Score     float64  `json:"score"`
}

// Result is the bijective partial mapping: a reference identity appears in
// at most one edge and vice versa. Unmatched slots on either side are
// simply absent.
type Result struct {
	Edges []Edge `json:"edges"`
}

// AcquisitionMap collapses the series-level edges to a deterministic
// reference-acquisition to input-acquisition map for the compliance engine.
func (r *Result) AcquisitionMap() map[string]string {
	mapping := map[string]string{}
	for _, edge := range r.Edges {
		if _, exists := mapping[edge.Reference.Acquisition]; !exists {
			mapping[edge.Reference.Acquisition] = edge.Input.Acquisition
		}
	}
	return mapping
}

// Matcher computes session-to-reference mappings. The zero value is usable;
// Concurrency > 1 fills cost-matrix rows in parallel into pre-allocated
// slots, with the final ordering restored deterministically afterward.
type Matcher struct {
	Concurrency int
	Logger      *zap.Logger
}

type slot struct {
	identity Identity
	acq      *schema.Acquisition
	fields   []schema.Field
}

// Match never fails: an empty or singleton session yields a degenerate
// (possibly empty) mapping.
func (m *Matcher) Match(input, reference *schema.Schema) *Result {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	inputSlots := flatten(input)
	referenceSlots := flatten(reference)
	if len(inputSlots) == 0 || len(referenceSlots) == 0 {
		return &Result{Edges: []Edge{}}
	}

	cost := m.costMatrix(inputSlots, referenceSlots)
	logger.Debug("cost matrix filled",
		zap.Int("input_slots", len(inputSlots)),
		zap.Int("reference_slots", len(referenceSlots)))

	assignment := assignRectangular(cost, len(inputSlots), len(referenceSlots))

	result := &Result{Edges: make([]Edge, 0, len(inputSlots))}
	for i, j := range assignment {
		if j < 0 {
			continue
		}
		result.Edges = append(result.Edges, Edge{
			Input:     inputSlots[i].identity,
			Reference: referenceSlots[j].identity,
			Score:     cost[i][j],
		})
	}
	sort.Slice(result.Edges, func(a, b int) bool {
		if result.Edges[a].Input.Acquisition != result.Edges[b].Input.Acquisition {
			return result.Edges[a].Input.Acquisition < result.Edges[b].Input.Acquisition
		}
		return result.Edges[a].Input.Series < result.Edges[b].Input.Series
	})
	return result
}

// costMatrix fills cost[i][j] = acquisition-level score + series-level
// score for every slot pair. Rows are independent; each goroutine writes
// only its own pre-allocated row.
func (m *Matcher) costMatrix(inputSlots, referenceSlots []slot) [][]float64 {
	cost := make([][]float64, len(inputSlots))
	for i := range cost {
		cost[i] = make([]float64, len(referenceSlots))
	}

	fill := func(i int) {
		for j, ref := range referenceSlots {
			acqScore := PairScore(ref.acq.Fields, inputSlots[i].acq.Fields)
			seriesScore := PairScore(ref.fields, inputSlots[i].fields)
			cost[i][j] = acqScore + seriesScore
		}
	}

	workers := m.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers == 1 {
		for i := range inputSlots {
			fill(i)
		}
		return cost
	}

	if workers > runtime.GOMAXPROCS(0) {
		workers = runtime.GOMAXPROCS(0)
	}
	var group errgroup.Group
	group.SetLimit(workers)
	for i := range inputSlots {
		group.Go(func() error {
			fill(i)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = group.Wait()
	return cost
}

// flatten lists every (acquisition, series) slot of a schema in sorted
// acquisition order. An acquisition without series contributes a single
// slot with an empty series identity so it still participates in matching.
func flatten(tree *schema.Schema) []slot {
	if tree == nil {
		return nil
	}
	var slots []slot
	for _, name := range tree.SortedNames() {
		acquisition := tree.Acquisitions[name]
		if len(acquisition.Series) == 0 {
			slots = append(slots, slot{
				identity: Identity{Acquisition: name},
				acq:      acquisition,
			})
			continue
		}
		for _, series := range acquisition.Series {
			slots = append(slots, slot{
				identity: Identity{Acquisition: name, Series: series.Name},
				acq:      acquisition,
				fields:   series.Fields,
			})
		}
	}
	return slots
}
