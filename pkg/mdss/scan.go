package mdss

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPenalty regularizes against overly specific subgroups while
	// staying far below any meaningful score difference.
	DefaultPenalty = 1e-6

	// DefaultRestarts balances search quality against runtime; each
	// restart is an independent coordinate ascent from a random start.
	DefaultRestarts = 10

	// DefaultMaxPasses caps the coordinate-ascent passes per restart.
	// Convergence is almost always reached in far fewer.
	DefaultMaxPasses = 10

	// DefaultSeed makes scans reproducible out of the box; callers
	// wanting varied starts supply their own.
	DefaultSeed = 1

	// scoreTol is the improvement a feature step must show before the
	// constraint is replaced; blocks cycling on floating-point ties.
	scoreTol = 1e-9
)

// Table is the read-only view of a discretized dataset the scanner
// consumes. Rows are indexed 0..Len()-1; every feature value must be
// discretized ahead of the scan.
type Table interface {
	Len() int
	Features() []string
	Domain(feature string) []string
	Value(feature string, row int) string
	Outcome(row int) int
	Probability(row int) float64
}

// Options are the scan knobs. The termination and tie-break criteria are
// deliberately explicit configuration rather than hidden constants.
type Options struct {
	// Penalty is subtracted from the raw score once per feature-value
	// constraint in the subgroup description. Must be >= 0.
	Penalty float64

	// Restarts is the number of independent random restarts. Must be >= 1.
	Restarts int

	// MaxPasses caps full coordinate-ascent passes within one restart.
	MaxPasses int

	// Seed feeds the per-restart RNGs (restart r uses Seed+r), making
	// the scan deterministic for identical inputs.
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		Penalty:   DefaultPenalty,
		Restarts:  DefaultRestarts,
		MaxPasses: DefaultMaxPasses,
		Seed:      DefaultSeed,
	}
}

// Scanner searches the lattice of feature-value subgroups for the one
// whose predictions deviate most from the observed outcomes, using
// coordinate ascent with the linear-time subset scanning step per
// feature.
type Scanner struct {
	scorer *BernoulliScorer
	opts   Options
}

func NewScanner(opts Options) (*Scanner, error) {
	if opts.Penalty < 0 {
		return nil, fmt.Errorf("penalty must be >= 0, got %f", opts.Penalty)
	}
	if opts.Restarts < 1 {
		return nil, fmt.Errorf("restarts must be >= 1, got %d", opts.Restarts)
	}
	if opts.MaxPasses < 1 {
		return nil, fmt.Errorf("max passes must be >= 1, got %d", opts.MaxPasses)
	}
	return &Scanner{scorer: NewBernoulliScorer(), opts: opts}, nil
}

// scanState is the immutable, pre-aggregated view of the table shared
// read-only across restarts.
type scanState struct {
	n         int
	ys, ps    []float64
	features  []string
	domains   map[string][]string
	valueRows map[string]map[string][]int
}

type restartOutcome struct {
	subgroup Subgroup
	score    float64
	err      error
}

// Scan returns the highest-scoring subgroup found across all restarts
// together with its penalized score. Inputs are not mutated; the returned
// subgroup is a fresh copy owned by the caller.
func (s *Scanner) Scan(ctx context.Context, t Table, dir Direction) (Subgroup, float64, error) {
	if t.Len() == 0 {
		return nil, 0, ErrEmptyDataset
	}

	st, err := newScanState(t, dir)
	if err != nil {
		return nil, 0, err
	}

	results := make([]restartOutcome, s.opts.Restarts)
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < s.opts.Restarts; r++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(s.opts.Seed + int64(r)))
			sub, score, err := s.ascend(ctx, st, rng)
			results[r] = restartOutcome{subgroup: sub, score: score, err: err}
			// Individual failures are excluded in the reduction, not
			// fatal to the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var best *restartOutcome
	var lastErr error
	for r := range results {
		res := &results[r]
		if res.err != nil {
			slog.Warn("scan restart failed", "restart", r, "error", res.err)
			lastErr = res.err
			continue
		}
		// Strict comparison keeps the earlier restart on ties.
		if best == nil || res.score > best.score {
			best = res
		}
	}
	if best == nil {
		return nil, 0, lastErr
	}
	return best.subgroup.Clone(), best.score, nil
}

func newScanState(t Table, dir Direction) (*scanState, error) {
	n := t.Len()
	outcomes := make([]int, n)
	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		outcomes[i] = t.Outcome(i)
		probs[i] = t.Probability(i)
	}
	ys, ps, err := orient(outcomes, probs, dir)
	if err != nil {
		return nil, err
	}

	st := &scanState{
		n:         n,
		ys:        ys,
		ps:        ps,
		features:  t.Features(),
		domains:   make(map[string][]string, len(t.Features())),
		valueRows: make(map[string]map[string][]int, len(t.Features())),
	}
	for _, f := range st.features {
		st.domains[f] = t.Domain(f)
		byValue := make(map[string][]int)
		for i := 0; i < n; i++ {
			v := t.Value(f, i)
			byValue[v] = append(byValue[v], i)
		}
		st.valueRows[f] = byValue
	}
	return st, nil
}

// ascend runs one coordinate-ascent restart: per pass, visit features in
// a shuffled order, replace each feature's constraint with the LTSS-
// optimal value subset given the others, and stop when a full pass
// changes nothing. The penalized score is non-decreasing across steps
// because the incumbent constraint is only replaced by a strictly better
// one.
func (s *Scanner) ascend(ctx context.Context, st *scanState, rng *rand.Rand) (Subgroup, float64, error) {
	current := randomSubgroup(st, rng)

	for pass := 0; pass < s.opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		changed := false
		for _, fi := range rng.Perm(len(st.features)) {
			f := st.features[fi]
			rest := st.matchExcept(current, f)

			stats := make([]valueStat, 0, len(st.domains[f]))
			for _, v := range st.domains[f] {
				vs := valueStat{value: v}
				for _, i := range st.valueRows[f][v] {
					if rest[i] {
						vs.rows = append(vs.rows, i)
						vs.observed += st.ys[i]
						vs.expected += st.ps[i]
					}
				}
				stats = append(stats, vs)
			}

			choice, err := bestPrefix(rankValues(stats), s.opts.Penalty, func(rows []int) (float64, error) {
				return s.scoreRows(st, rows)
			})
			if err != nil {
				return nil, 0, err
			}

			incumbent, err := s.incumbentScore(st, current, f, rest)
			if err != nil {
				return nil, 0, err
			}

			if choice.penalized > incumbent+scoreTol {
				if len(choice.values) == len(st.domains[f]) {
					delete(current, f)
				} else {
					current[f] = choice.values
				}
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	raw, err := s.scoreRows(st, st.match(current))
	if err != nil {
		return nil, 0, err
	}
	return current, raw - s.opts.Penalty*float64(current.Size()), nil
}

// scoreRows scores an index subset of the oriented data. The
// empty subset contributes nothing during the search, unlike the public
// Score contract which rejects it.
func (s *Scanner) scoreRows(st *scanState, rows []int) (float64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ys := make([]float64, len(rows))
	ps := make([]float64, len(rows))
	for i, r := range rows {
		ys[i] = st.ys[r]
		ps[i] = st.ps[r]
	}
	return s.scorer.scoreOriented(ys, ps)
}

// incumbentScore computes the locally-penalized score of the feature's
// current constraint, the baseline a replacement has to beat.
func (s *Scanner) incumbentScore(st *scanState, sub Subgroup, feature string, rest []bool) (float64, error) {
	allowed, constrained := sub[feature]
	allowedSet := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = true
	}

	var rows []int
	for _, v := range st.domains[feature] {
		if constrained && !allowedSet[v] {
			continue
		}
		for _, i := range st.valueRows[feature][v] {
			if rest[i] {
				rows = append(rows, i)
			}
		}
	}

	raw, err := s.scoreRows(st, rows)
	if err != nil {
		return 0, err
	}
	if constrained {
		return raw - s.opts.Penalty*float64(len(allowed)), nil
	}
	return raw, nil
}

// match returns the rows the subgroup admits.
func (st *scanState) match(sub Subgroup) []int {
	in := st.matchExcept(sub, "")
	var rows []int
	for i := 0; i < st.n; i++ {
		if in[i] {
			rows = append(rows, i)
		}
	}
	return rows
}

// matchExcept marks the rows admitted by every constraint other than the
// excluded feature's.
func (st *scanState) matchExcept(sub Subgroup, exclude string) []bool {
	in := make([]bool, st.n)
	for i := range in {
		in[i] = true
	}
	for f, allowed := range sub {
		if f == exclude {
			continue
		}
		allowedSet := make(map[string]bool, len(allowed))
		for _, v := range allowed {
			allowedSet[v] = true
		}
		for v, rows := range st.valueRows[f] {
			if allowedSet[v] {
				continue
			}
			for _, i := range rows {
				in[i] = false
			}
		}
	}
	return in
}

// randomSubgroup draws the restart's starting point: each feature keeps a
// random value subset, with the empty and full subsets collapsing to
// "unconstrained". Domains are iterated in sorted order so an equal seed
// always produces an equal start.
func randomSubgroup(st *scanState, rng *rand.Rand) Subgroup {
	sub := Subgroup{}
	for _, f := range st.features {
		dom := st.domains[f]
		var vals []string
		for _, v := range dom {
			if rng.Float64() < 0.5 {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 || len(vals) == len(dom) {
			continue
		}
		sub[f] = vals
	}
	return sub
}
