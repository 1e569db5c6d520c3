// ABOUTME: Small mixed-integer program solver: gonum simplex relaxations plus branch-and-bound
// ABOUTME: Bounded by a node budget and the caller's context deadline

package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	lpTolerance       = 1e-10
	integralTolerance = 1e-6
	pruneTolerance    = 1e-9
	relativeGap       = 1e-4
)

type rowSense int

const (
	lessEq rowSense = iota
	greaterEq
)

type term struct {
	col  int
	coef float64
}

type linearRow struct {
	name  string
	terms []term
	sense rowSense
	rhs   float64
}

type mipVariable struct {
	name    string
	cost    float64
	integer bool
	upper   float64
}

// mipProblem is min cost·x subject to rows, x >= 0, with optional integrality and upper bounds.
type mipProblem struct {
	vars []mipVariable
	rows []linearRow
}

func (p *mipProblem) addVar(name string, cost float64, integer bool) int {
	p.vars = append(p.vars, mipVariable{name: name, cost: cost, integer: integer, upper: math.Inf(1)})
	return len(p.vars) - 1
}

func (p *mipProblem) setUpper(col int, upper float64) {
	p.vars[col].upper = upper
}

func (p *mipProblem) addRow(name string, sense rowSense, rhs float64, terms ...term) {
	p.rows = append(p.rows, linearRow{name: name, terms: terms, sense: sense, rhs: rhs})
}

type mipStatus int

const (
	mipOptimal mipStatus = iota
	// mipFeasible is an integer solution found before the search was cut short.
	mipFeasible
	mipInfeasible
	mipUnbounded
	mipNumerical
	mipTimeout
	mipNodeLimit
)

func (s mipStatus) String() string {
	switch s {
	case mipOptimal:
		return "optimal"
	case mipFeasible:
		return "feasible"
	case mipInfeasible:
		return "infeasible"
	case mipUnbounded:
		return "unbounded"
	case mipNumerical:
		return "numerical"
	case mipTimeout:
		return "timeout"
	case mipNodeLimit:
		return "node_limit"
	default:
		return "unknown"
	}
}

type mipSolution struct {
	status    mipStatus
	x         []float64
	objective float64
	nodes     int
	err       error
}

type varBound struct {
	col   int
	upper bool
	value float64
}

// errEmptyRowViolated is returned when a row with no terms cannot hold.
var errEmptyRowViolated = errors.New("constraint with no variables is violated")

// errBoundsCrossed is returned when branching leaves a variable with no valid value.
var errBoundsCrossed = errors.New("variable bounds cross")

// columnBounds folds the variable upper bounds and the branching bounds into one
// lower and upper bound per column.
func (p *mipProblem) columnBounds(bounds []varBound) (lower, upper []float64, err error) {
	n := len(p.vars)
	lower = make([]float64, n)
	upper = make([]float64, n)
	for j, v := range p.vars {
		upper[j] = v.upper
	}
	for _, b := range bounds {
		if b.upper {
			upper[b.col] = math.Min(upper[b.col], b.value)
		} else {
			lower[b.col] = math.Max(lower[b.col], b.value)
		}
	}
	for j := range lower {
		if lower[j] > upper[j]+pruneTolerance {
			return nil, nil, fmt.Errorf("%s: %w", p.vars[j].name, errBoundsCrossed)
		}
	}
	return lower, upper, nil
}

// solveLP solves the relaxation with the extra branching bounds. Lower bounds are
// shifted out of the columns; each finite upper bound is a single row.
func (p *mipProblem) solveLP(bounds []varBound) (opt float64, x []float64, err error) {
	n := len(p.vars)
	lower, upper, err := p.columnBounds(bounds)
	if err != nil {
		return 0, nil, err
	}

	rows := make([]linearRow, 0, len(p.rows)+n)
	used := make([]bool, n)

	for _, r := range p.rows {
		rhs := r.rhs
		for _, t := range r.terms {
			rhs -= t.coef * lower[t.col]
		}
		if len(r.terms) == 0 {
			if (r.sense == lessEq && rhs < -pruneTolerance) || (r.sense == greaterEq && rhs > pruneTolerance) {
				return 0, nil, fmt.Errorf("%s: %w", r.name, errEmptyRowViolated)
			}
			continue
		}
		rows = append(rows, linearRow{name: r.name, terms: r.terms, sense: r.sense, rhs: rhs})
		for _, t := range r.terms {
			used[t.col] = true
		}
	}
	for col, v := range p.vars {
		switch {
		case !math.IsInf(upper[col], 1):
			rows = append(rows, linearRow{name: v.name + " upper", terms: []term{{col, 1}}, sense: lessEq, rhs: upper[col] - lower[col]})
		case !used[col]:
			// Nothing constrains it and costs are non-negative, so it stays at its lower bound.
			rows = append(rows, linearRow{name: v.name + " unused", terms: []term{{col, 1}}, sense: lessEq, rhs: 0})
		}
	}

	if n == 0 {
		return 0, nil, nil
	}

	// Standard form: every row becomes <= with its own slack column.
	m := len(rows)
	A := mat.NewDense(m, n+m, nil)
	rhs := make([]float64, m)
	for i, r := range rows {
		sign := 1.0
		if r.sense == greaterEq {
			sign = -1
		}
		for _, t := range r.terms {
			A.Set(i, t.col, A.At(i, t.col)+sign*t.coef)
		}
		A.Set(i, n+i, 1)
		rhs[i] = sign * r.rhs
	}
	c := make([]float64, n+m)
	for j, v := range p.vars {
		c[j] = v.cost
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex panicked: %v", r)
		}
	}()

	opt, full, err := lp.Simplex(c, A, rhs, lpTolerance, nil)
	if err != nil {
		return 0, nil, err
	}
	x = make([]float64, n)
	for j := range x {
		x[j] = full[j] + lower[j]
		opt += p.vars[j].cost * lower[j]
	}
	return opt, x, nil
}

// roundUp fixes every integer variable at its relaxed value rounded up and re-solves for
// the continuous ones. The allocation model is dominated by covering rows, so rounding
// up is the repair most likely to hold.
func (p *mipProblem) roundUp(x []float64) (float64, []float64, bool) {
	var fixed []varBound
	for j, v := range p.vars {
		if !v.integer {
			continue
		}
		r := math.Max(math.Ceil(x[j]-integralTolerance), 0)
		fixed = append(fixed, varBound{col: j, upper: true, value: r}, varBound{col: j, upper: false, value: r})
	}
	obj, y, err := p.solveLP(fixed)
	if err != nil {
		return 0, nil, false
	}
	return obj, y, true
}

// mostFractional returns the integer variable furthest from a whole value, or -1.
func (p *mipProblem) mostFractional(x []float64) int {
	best, bestDist := -1, integralTolerance
	for j, v := range p.vars {
		if !v.integer {
			continue
		}
		dist := math.Abs(x[j] - math.Round(x[j]))
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

type bbNode struct {
	bounds []varBound
}

func (n bbNode) child(b varBound) bbNode {
	bounds := make([]varBound, len(n.bounds), len(n.bounds)+1)
	copy(bounds, n.bounds)
	return bbNode{bounds: append(bounds, b)}
}

// solveMIP runs depth-first branch-and-bound over LP relaxations. Nodes that cannot
// beat the incumbent by more than relativeGap are pruned, and a search cut short by ctx
// or the node budget still returns its incumbent as feasible.
func solveMIP(ctx context.Context, p *mipProblem, nodeLimit int) mipSolution {
	var (
		best      = math.Inf(1)
		incumbent []float64
		nodes     int
		stack     = []bbNode{{}}
	)

	stopped := func(status mipStatus, err error) mipSolution {
		if incumbent != nil {
			return mipSolution{status: mipFeasible, x: incumbent, objective: best, nodes: nodes, err: err}
		}
		return mipSolution{status: status, nodes: nodes, err: err}
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return stopped(mipTimeout, err)
		}
		if nodeLimit > 0 && nodes >= nodeLimit {
			return stopped(mipNodeLimit, nil)
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, err := p.solveLP(node.bounds)
		switch {
		case errors.Is(err, lp.ErrInfeasible), errors.Is(err, errEmptyRowViolated), errors.Is(err, errBoundsCrossed):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return mipSolution{status: mipUnbounded, nodes: nodes, err: err}
		case err != nil:
			return mipSolution{status: mipNumerical, nodes: nodes, err: err}
		}

		if obj >= best-gapTolerance(best) {
			continue
		}

		j := p.mostFractional(x)
		if j < 0 {
			best, incumbent = obj, x
			continue
		}
		// A rounded incumbent early on lets a cut-short search still answer feasible.
		if incumbent == nil {
			if yObj, y, ok := p.roundUp(x); ok {
				best, incumbent = yObj, y
				if obj >= best-gapTolerance(best) {
					continue
				}
			}
		}

		v := x[j]
		down := node.child(varBound{col: j, upper: true, value: math.Floor(v)})
		up := node.child(varBound{col: j, upper: false, value: math.Ceil(v)})
		// The branch nearer the relaxed value is explored first.
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if incumbent == nil {
		return mipSolution{status: mipInfeasible, nodes: nodes}
	}
	return mipSolution{status: mipOptimal, x: incumbent, objective: best, nodes: nodes}
}

// gapTolerance is how much a node must improve on the incumbent to be explored.
func gapTolerance(best float64) float64 {
	if math.IsInf(best, 1) {
		return 0
	}
	return math.Max(pruneTolerance, relativeGap*math.Abs(best))
}
