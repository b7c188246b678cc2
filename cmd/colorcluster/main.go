// Command colorcluster clusters synthetic RGB color blobs and reports how
// homogeneous the clusters are on a held-out split.
package main

import (
	"fmt"
	"io"
	"os"

	arg "github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/internal/blob"
	"github.com/yyyoichi/clusterkit/workflow"
)

type args struct {
	Config   string  `arg:"-c,--config" help:"TOML experiment file"`
	Engine   string  `arg:"-e,--engine" help:"kmeans, fuzzy-cmeans or gaussian-mixture"`
	Clusters int     `arg:"-k,--clusters" help:"number of clusters"`
	Samples  int     `arg:"-n,--samples" help:"number of generated samples"`
	Seed     *int64  `arg:"--seed" help:"random seed for generation, split and training"`
	Workers  int     `arg:"-w,--workers" help:"goroutines used per epoch"`
	Split    float64 `arg:"--split" help:"training fraction of the stratified split"`
	Progress string  `arg:"--progress" help:"CSV file receiving the training loss"`
	Chart    string  `arg:"--chart" help:"HTML file receiving the loss chart"`
	Report   string  `arg:"--report" help:"JSON file receiving the contingency table"`
	JSONLogs bool    `arg:"--json-logs" help:"log in JSON"`
}

func (args) Description() string {
	return "colorcluster clusters ten synthetic RGB color blobs and scores the result."
}

// apply overrides cfg with the flags that were set.
func (a args) apply(cfg *workflow.Config) {
	if a.Engine != "" {
		cfg.Engine.Name = a.Engine
	}
	if a.Clusters != 0 {
		cfg.Engine.Clusters = a.Clusters
	}
	if a.Samples != 0 {
		cfg.Data.Samples = a.Samples
	}
	if a.Seed != nil {
		cfg.Engine.Seed = *a.Seed
	}
	if a.Workers != 0 {
		cfg.Engine.Workers = a.Workers
	}
	if a.Split != 0 {
		cfg.Data.Split = a.Split
	}
	if a.Progress != "" {
		cfg.Output.Progress = a.Progress
	}
	if a.Chart != "" {
		cfg.Output.Chart = a.Chart
	}
	if a.Report != "" {
		cfg.Output.Report = a.Report
	}
}

func main() {
	var a args
	arg.MustParse(&a)

	logger, err := newLogger(a.JSONLogs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(a, logger, os.Stdout); err != nil {
		logger.Fatal("colorcluster failed", zap.Error(err))
	}
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(a args, logger *zap.Logger, stdout io.Writer) (err error) {
	cfg := workflow.DefaultConfig()
	if a.Config != "" {
		if cfg, err = workflow.LoadConfig(a.Config); err != nil {
			return err
		}
	}
	a.apply(&cfg)

	ds, err := blob.Colors().Generate(cfg.Data.Samples, uint64(cfg.Engine.Seed))
	if err != nil {
		return errors.Wrap(err, "generate colors")
	}
	train, test, err := ds.StratifiedSplit(cfg.Data.Split, cfg.Engine.Seed)
	if err != nil {
		return errors.Wrap(err, "split")
	}

	var (
		sinks  = workflow.Sinks{Logger: logger}
		closer []io.Closer
	)
	defer func() {
		if cerr := closeAll(closer); err == nil {
			err = cerr
		}
	}()
	create := func(path string) (io.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", path)
		}
		closer = append(closer, f)
		return f, nil
	}
	if cfg.Output.Progress != "" {
		w, err := create(cfg.Output.Progress)
		if err != nil {
			return err
		}
		sinks.Progress = append(sinks.Progress, workflow.CSVProgress{W: w})
	}
	if cfg.Output.Chart != "" {
		w, err := create(cfg.Output.Chart)
		if err != nil {
			return err
		}
		sinks.Progress = append(sinks.Progress, workflow.ChartProgress{W: w, Title: "colors"})
	}
	if cfg.Output.Report != "" {
		w, err := create(cfg.Output.Report)
		if err != nil {
			return err
		}
		sinks.Report = workflow.JSONReport{W: w}
	}

	res, err := workflow.Run(cfg, train, test, sinks)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Clusters are %.2f%% homogenous\n", res.Homogeneity*100)
	return nil
}

// closeAll closes every closer and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "close output")
		}
	}
	return first
}
