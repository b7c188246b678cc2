// Package workflow runs one clustering experiment end to end: optional
// standardization, training, progress and report sinks, and scoring.
package workflow

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/dataset"
	"github.com/yyyoichi/clusterkit/evaluation"
)

// Sinks are the collaborators of Run. Nil fields are skipped.
type Sinks struct {
	Progress []ProgressSink
	Report   ReportSink
	Logger   *zap.Logger
}

// Summary describes a training trace.
type Summary struct {
	Epochs int
	Final  float64
	Min    float64
	Max    float64
	Mean   float64
}

func summarize(steps []float64) (Summary, error) {
	s := Summary{Epochs: len(steps), Final: steps[len(steps)-1]}
	var err error
	if s.Min, err = stats.Min(steps); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(steps); err != nil {
		return s, err
	}
	if s.Mean, err = stats.Mean(steps); err != nil {
		return s, err
	}
	return s, nil
}

type Result struct {
	Steps       []float64
	Summary     Summary
	Predictions []int
	Table       evaluation.Table
	Homogeneity float64
}

// Run trains the engine described by cfg on train, predicts test and scores
// the predictions against the labels of test.
func Run(cfg Config, train, test *dataset.Dataset, sinks Sinks) (*Result, error) {
	log := sinks.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if train == nil || test == nil {
		return nil, errors.New("train and test datasets are required")
	}
	if !test.Labeled() {
		return nil, errors.Wrap(dataset.ErrUnlabeled, "test dataset")
	}
	log.Info("dataset ready",
		zap.Int("train", train.Len()),
		zap.Int("test", test.Len()),
		zap.Int("dim", train.Dim()),
	)

	if cfg.Data.Standardize {
		z, err := dataset.FitZScale(train)
		if err != nil {
			return nil, errors.Wrap(err, "fit standardizer")
		}
		if train, err = z.Transform(train); err != nil {
			return nil, errors.Wrap(err, "standardize train")
		}
		if test, err = z.Transform(test); err != nil {
			return nil, errors.Wrap(err, "standardize test")
		}
		log.Info("datasets standardized")
	}

	engine, err := cfg.Engine.NewEngine(log)
	if err != nil {
		return nil, err
	}

	log.Info("training started", zap.String("engine", cfg.Engine.Name), zap.Int("clusters", cfg.Engine.Clusters))
	if err := engine.Train(train); err != nil {
		return nil, errors.Wrap(err, "train")
	}
	steps := engine.Steps()
	summary, err := summarize(steps)
	if err != nil {
		return nil, errors.Wrap(err, "summarize steps")
	}
	log.Info("training finished",
		zap.Int("epochs", summary.Epochs),
		zap.Float64("loss", summary.Final),
		zap.Float64("min", summary.Min),
		zap.Float64("max", summary.Max),
	)

	for _, p := range sinks.Progress {
		if err := p.WriteProgress(steps); err != nil {
			return nil, errors.Wrap(err, "write progress")
		}
	}
	if len(sinks.Progress) > 0 {
		log.Info("progress saved", zap.Int("sinks", len(sinks.Progress)))
	}

	predictions, err := engine.Predict(test)
	if err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	table, err := evaluation.ContingencyTable{}.Generate(predictions, test.Labels())
	if err != nil {
		return nil, errors.Wrap(err, "contingency table")
	}
	if sinks.Report != nil {
		if err := sinks.Report.WriteReport(table); err != nil {
			return nil, errors.Wrap(err, "write report")
		}
		log.Info("report saved", zap.Int("clusters", len(table)))
	}

	score, err := evaluation.Homogeneity{}.Score(predictions, test.Labels())
	if err != nil {
		return nil, errors.Wrap(err, "homogeneity")
	}
	log.Info("predictions scored", zap.Float64("homogeneity", score))

	return &Result{
		Steps:       steps,
		Summary:     summary,
		Predictions: predictions,
		Table:       table,
		Homogeneity: score,
	}, nil
}
