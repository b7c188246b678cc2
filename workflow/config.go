package workflow

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit"
	"github.com/yyyoichi/clusterkit/distance"
)

var (
	ErrUnknownEngine = errors.New("unknown engine")
)

// Config describes one experiment. Keys missing from a TOML file keep the
// values of DefaultConfig.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Data   DataConfig   `toml:"data"`
	Output OutputConfig `toml:"output"`
}

type EngineConfig struct {
	// Name is one of "kmeans", "fuzzy-cmeans" or "gaussian-mixture".
	Name           string  `toml:"name"`
	Clusters       int     `toml:"clusters"`
	MaxEpochs      int     `toml:"max_epochs"`
	BatchSize      int     `toml:"batch_size"`
	Tolerance      float64 `toml:"tolerance"`
	Seed           int64   `toml:"seed"`
	Distance       string  `toml:"distance"`
	Fuzziness      float64 `toml:"fuzziness"`
	Regularization float64 `toml:"regularization"`
	Workers        int     `toml:"workers"`
}

type DataConfig struct {
	Samples     int     `toml:"samples"`
	Split       float64 `toml:"split"`
	Standardize bool    `toml:"standardize"`
}

// OutputConfig holds sink paths. An empty path disables the sink.
type OutputConfig struct {
	Progress string `toml:"progress"`
	Chart    string `toml:"chart"`
	Report   string `toml:"report"`
}

// DefaultConfig reproduces the color experiment: K-Means with 10 clusters on
// 5000 samples split 80/20.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Name:           "kmeans",
			Clusters:       10,
			MaxEpochs:      1000,
			BatchSize:      128,
			Tolerance:      1e-4,
			Seed:           1,
			Distance:       "euclidean",
			Fuzziness:      2,
			Regularization: 1e-6,
			Workers:        1,
		},
		Data: DataConfig{
			Samples: 5000,
			Split:   0.8,
		},
		Output: OutputConfig{
			Progress: "progress.csv",
			Report:   "report.json",
		},
	}
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}
	return cfg, nil
}

// DecodeConfig parses TOML text over DefaultConfig.
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Options converts the engine section into engine options.
func (c EngineConfig) Options(logger *zap.Logger) ([]clusterkit.Option, error) {
	dist, err := distance.Resolve(c.Distance)
	if err != nil {
		return nil, err
	}
	return []clusterkit.Option{
		clusterkit.WithMaxEpochs(c.MaxEpochs),
		clusterkit.WithBatchSize(c.BatchSize),
		clusterkit.WithTolerance(c.Tolerance),
		clusterkit.WithSeed(c.Seed),
		clusterkit.WithDistance(dist),
		clusterkit.WithFuzziness(c.Fuzziness),
		clusterkit.WithRegularization(c.Regularization),
		clusterkit.WithWorkers(c.Workers),
		clusterkit.WithLogger(logger),
	}, nil
}

// NewEngine builds the configured engine.
func (c EngineConfig) NewEngine(logger *zap.Logger) (clusterkit.Engine, error) {
	opts, err := c.Options(logger)
	if err != nil {
		return nil, errors.Wrap(err, "engine options")
	}
	var (
		e   clusterkit.Engine
		cerr error
	)
	switch strings.ToLower(c.Name) {
	case "kmeans", "k-means":
		e, cerr = clusterkit.NewKMeans(c.Clusters, opts...)
	case "fuzzy-cmeans", "fcm":
		e, cerr = clusterkit.NewFuzzyCMeans(c.Clusters, opts...)
	case "gaussian-mixture", "gmm":
		e, cerr = clusterkit.NewGaussianMixture(c.Clusters, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, c.Name)
	}
	if cerr != nil {
		return nil, errors.Wrapf(cerr, "new %s", c.Name)
	}
	return e, nil
}
