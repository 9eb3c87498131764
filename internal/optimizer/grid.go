package optimizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrEmptyGrid = errors.New("parameter grid is empty")

// Grid is an ordered set of parameter names, each with a finite ordered
// sequence of candidate values. The insertion order fixes the enumeration
// order of the Cartesian product, which keeps sweeps deterministic.
type Grid struct {
	params []gridParam
}

type gridParam struct {
	name   string
	values []float64
}

func NewGrid() *Grid {
	return &Grid{}
}

// Add appends a parameter and its candidate values. Returns the grid for
// chaining.
func (g *Grid) Add(name string, values ...float64) *Grid {
	g.params = append(g.params, gridParam{name: name, values: values})
	return g
}

// Size is the number of combinations in the Cartesian product.
func (g *Grid) Size() int {
	if len(g.params) == 0 {
		return 0
	}
	size := 1
	for _, p := range g.params {
		size *= len(p.values)
	}
	return size
}

func (g *Grid) validate() error {
	if len(g.params) == 0 {
		return ErrEmptyGrid
	}
	seen := make(map[string]bool, len(g.params))
	for _, p := range g.params {
		if p.name == "" {
			return fmt.Errorf("%w: unnamed parameter", ErrEmptyGrid)
		}
		if len(p.values) == 0 {
			return fmt.Errorf("%w: parameter %q has no candidate values", ErrEmptyGrid, p.name)
		}
		if seen[p.name] {
			return fmt.Errorf("%w: duplicate parameter %q", ErrEmptyGrid, p.name)
		}
		seen[p.name] = true
	}
	return nil
}

// Combinations enumerates the full Cartesian product in deterministic order:
// the last added parameter varies fastest.
func (g *Grid) Combinations() []map[string]float64 {
	size := g.Size()
	if size == 0 {
		return nil
	}

	combos := make([]map[string]float64, 0, size)
	idx := make([]int, len(g.params))
	for {
		combo := make(map[string]float64, len(g.params))
		for i, p := range g.params {
			combo[p.name] = p.values[idx[i]]
		}
		combos = append(combos, combo)

		// odometer increment, rightmost digit fastest
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g.params[i].values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return combos
		}
	}
}

// paramKey renders a parameter set as a canonical sorted string. Used as the
// final sort tie-break so rankings are fully deterministic.
func paramKey(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%g", k, params[k])
	}
	return b.String()
}
