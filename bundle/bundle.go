// Package bundle evaluates a set of reprojection residual blocks against shared camera, pose and
// point parameters, the way a least-squares solver would on each iteration.
package bundle

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
	"go.viam.com/reprojection/logging"
	"go.viam.com/reprojection/residual"
	"go.viam.com/reprojection/utils"
)

// Options control an evaluation.
type Options struct {
	// Jacobians requests the per-block Jacobians along with the residuals.
	Jacobians bool
}

// Report is the result of evaluating every block of a problem.
type Report struct {
	// Residuals holds one residual per block, in block order.
	Residuals [][2]float64
	// Jacobians holds one evaluation per block when Options.Jacobians is set.
	Jacobians []*residual.Evaluation
	// Cost is half the sum of squared residual norms. It is not finite when NonFinite is nonzero.
	Cost float64
	// RMSE is the root mean squared residual norm over the blocks with finite residuals.
	RMSE float64
	// NonFinite counts the blocks whose residual has an Inf or NaN component.
	NonFinite int
}

// Evaluator evaluates problems.
type Evaluator struct {
	logger logging.Logger
}

// NewEvaluator returns an Evaluator that logs through logger.
func NewEvaluator(logger logging.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

type assembled struct {
	values    []residual.Functor[autodiff.Float]
	jacobians []residual.Functor[autodiff.Jet]
}

// assemble picks the residual model of every block once and checks the block references.
func assemble(problem *Problem, opts Options) (*assembled, error) {
	var a assembled
	if opts.Jacobians {
		a.jacobians = make([]residual.Functor[autodiff.Jet], len(problem.Blocks))
	} else {
		a.values = make([]residual.Functor[autodiff.Float], len(problem.Blocks))
	}

	for i, b := range problem.Blocks {
		if err := problem.checkIndexes(b); err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}
		var arity camera.Arity
		if opts.Jacobians {
			f, err := residual.New[autodiff.Jet](b.Model, b.Observed)
			if err != nil {
				return nil, errors.Wrapf(err, "block %d", i)
			}
			a.jacobians[i] = f
			arity = f.Arity()
		} else {
			f, err := residual.New[autodiff.Float](b.Model, b.Observed)
			if err != nil {
				return nil, errors.Wrapf(err, "block %d", i)
			}
			a.values[i] = f
			arity = f.Arity()
		}
		err := residual.CheckBlockSizes(arity, problem.Intrinsics[b.Intrinsics], problem.Poses[b.Pose], problem.Points[b.Point])
		if err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}
	}
	return &a, nil
}

// Evaluate computes the residual of every block in parallel. Parameter blocks are only read, so
// blocks that share a camera, pose or point need no synchronization.
func (e *Evaluator) Evaluate(ctx context.Context, problem *Problem, opts Options) (*Report, error) {
	a, err := assemble(problem, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{Residuals: make([][2]float64, len(problem.Blocks))}
	if opts.Jacobians {
		report.Jacobians = make([]*residual.Evaluation, len(problem.Blocks))
	}

	err = utils.GroupWorkParallel(ctx, len(problem.Blocks), func(numGroups int) {
		e.logger.Debugw("evaluating residual blocks", "blocks", len(problem.Blocks), "groups", numGroups)
	}, func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(memberNum, workNum int) error {
			b := problem.Blocks[workNum]
			in, ex, pt := problem.Intrinsics[b.Intrinsics], problem.Poses[b.Pose], problem.Points[b.Point]
			if opts.Jacobians {
				eval, err := residual.EvaluateJacobian(a.jacobians[workNum], in, ex, pt)
				if err != nil {
					return errors.Wrapf(err, "block %d", workNum)
				}
				report.Jacobians[workNum] = eval
				report.Residuals[workNum] = [2]float64{eval.Residual.X, eval.Residual.Y}
				return nil
			}
			res, err := residual.Residual(a.values[workNum], in, ex, pt)
			if err != nil {
				return errors.Wrapf(err, "block %d", workNum)
			}
			report.Residuals[workNum] = [2]float64{res.X, res.Y}
			return nil
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.summarize(problem, report)
	return report, nil
}

func (e *Evaluator) summarize(problem *Problem, report *Report) {
	squaredNorms := lo.Map(report.Residuals, func(r [2]float64, _ int) float64 {
		return r[0]*r[0] + r[1]*r[1]
	})
	// a squared norm is NaN or Inf when either component is
	finite := lo.Filter(squaredNorms, func(v float64, _ int) bool { return isFinite(v) })
	report.NonFinite = len(squaredNorms) - len(finite)

	report.Cost = 0.5 * floats.Sum(squaredNorms)
	if len(finite) > 0 {
		report.RMSE = math.Sqrt(stat.Mean(finite, nil))
	}
	if report.NonFinite == 0 {
		return
	}
	for i, v := range squaredNorms {
		if !isFinite(v) {
			e.logger.Debugw("non-finite residual", "block", i, "model", problem.Blocks[i].Model, "point", problem.Blocks[i].Point)
		}
	}
	e.logger.Warnw("residual blocks with non-finite residuals; check that points are in front of their cameras",
		"count", report.NonFinite, "blocks", len(report.Residuals))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
