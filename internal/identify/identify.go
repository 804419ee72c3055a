package identify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ramandpid/internal/refdb"
)

// DefaultTolerance is the half-width, in wavenumbers, of the window used
// when comparing measured peaks to reference peaks.
const DefaultTolerance = 5.0

// maxCombinationLimit caps how many reference spectra may be combined into
// one mixture hypothesis. Beyond triples the search explodes and the
// results stop being meaningful.
const maxCombinationLimit = 4

// Match is one mixture hypothesis: the set of mineral names whose combined
// reference peaks explain every measured peak.
type Match struct {
	Minerals []string
}

// Result groups matches by how many minerals each hypothesis combines.
type Result struct {
	Candidates int
	Matches    map[int][]Match
}

// Run searches the reference database for mineral combinations explaining
// the measured peaks. Candidates are prefiltered by strongest peak, then
// every combination of up to maxCombo candidates is tested: it matches
// when each measured peak lies within tol of some peak in the union of the
// combination's reference peaks. Duplicate mineral sets collapse to one
// match.
func Run(ctx context.Context, store *refdb.Store, peaks []float64, tol float64, maxCombo int) (*Result, error) {
	if len(peaks) == 0 {
		return nil, errors.New("identify: no peaks given")
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if maxCombo < 1 {
		maxCombo = 1
	}
	if maxCombo > maxCombinationLimit {
		return nil, fmt.Errorf("identify: combination size %d exceeds the limit of %d", maxCombo, maxCombinationLimit)
	}

	candidates, err := store.CandidatesByPeaks(ctx, peaks, tol)
	if err != nil {
		return nil, err
	}
	result := &Result{Candidates: len(candidates), Matches: make(map[int][]Match)}
	if len(candidates) == 0 {
		return result, nil
	}
	if maxCombo > len(candidates) {
		maxCombo = len(candidates)
	}

	seen := make(map[string]bool)
	for size := 1; size <= maxCombo; size++ {
		combo := make([]int, size)
		var walk func(start, depth int) error
		walk = func(start, depth int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if depth == size {
				if !covers(peaks, candidates, combo, tol) {
					return nil
				}
				names := uniqueNames(candidates, combo)
				key := strings.Join(names, "\x00")
				if seen[key] {
					return nil
				}
				seen[key] = true
				result.Matches[size] = append(result.Matches[size], Match{Minerals: names})
				return nil
			}
			for i := start; i < len(candidates); i++ {
				combo[depth] = i
				if err := walk(i+1, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(0, 0); err != nil {
			return nil, err
		}
	}

	for _, matches := range result.Matches {
		sort.Slice(matches, func(i, j int) bool {
			return strings.Join(matches[i].Minerals, "+") < strings.Join(matches[j].Minerals, "+")
		})
	}
	return result, nil
}

// covers reports whether every measured peak lies within tol of some
// reference peak in the chosen combination.
func covers(peaks []float64, candidates []refdb.Record, combo []int, tol float64) bool {
	for _, p := range peaks {
		matched := false
	search:
		for _, idx := range combo {
			for _, ref := range candidates[idx].Peaks {
				if p-tol <= ref && ref <= p+tol {
					matched = true
					break search
				}
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func uniqueNames(candidates []refdb.Record, combo []int) []string {
	set := make(map[string]bool, len(combo))
	for _, idx := range combo {
		set[candidates[idx].Name] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
