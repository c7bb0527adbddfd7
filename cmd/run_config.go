package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/buffet-sim/buffet-sim/sim/network"
	"github.com/buffet-sim/buffet-sim/sim/trace"
	"github.com/buffet-sim/buffet-sim/sim/workload"
)

// RunFile is the YAML run configuration accepted by --config.
// Every field is optional; omitted fields keep the built-in defaults.
// Unknown fields are rejected so typos surface as errors.
type RunFile struct {
	Seed            *int64                `yaml:"seed"`
	Customers       *int                  `yaml:"customers"`
	ArrivalRate     *float64              `yaml:"arrival_rate"`
	Arrival         *workload.ArrivalSpec `yaml:"arrival"`
	Horizon         *float64              `yaml:"horizon"`
	ServiceTimes    []workload.DistSpec   `yaml:"service_times"`
	QueueCapacities []int                 `yaml:"queue_capacities"`
	StallWeights    *network.StallWeights `yaml:"stall_weights"`
	Discipline      *string               `yaml:"discipline"`
	TraceLevel      *string               `yaml:"trace_level"`
}

// loadRunFile parses a run file with strict field checking.
func loadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var rf RunFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil {
		return nil, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return &rf, nil
}

// apply overlays the fields present in the file onto cfg.
func (rf *RunFile) apply(cfg *network.RunConfig) {
	if rf.Seed != nil {
		cfg.Seed = *rf.Seed
	}
	if rf.Customers != nil {
		cfg.NumCustomers = *rf.Customers
	}
	if rf.ArrivalRate != nil {
		cfg.ArrivalRate = *rf.ArrivalRate
	}
	if rf.Arrival != nil {
		cfg.Arrival = *rf.Arrival
	}
	if rf.Horizon != nil {
		cfg.Horizon = *rf.Horizon
	}
	if rf.ServiceTimes != nil {
		cfg.ServiceTimes = rf.ServiceTimes
	}
	if rf.QueueCapacities != nil {
		cfg.QueueCapacities = rf.QueueCapacities
	}
	if rf.StallWeights != nil {
		cfg.StallWeights = *rf.StallWeights
	}
	if rf.Discipline != nil {
		cfg.Discipline = network.Discipline(*rf.Discipline)
	}
	if rf.TraceLevel != nil {
		cfg.TraceLevel = trace.TraceLevel(*rf.TraceLevel)
	}
}

// specMeans recovers the mean of every spec so a new distribution can be
// applied over it. Uniform specs use their midpoint.
func specMeans(specs []workload.DistSpec) ([]float64, error) {
	means := make([]float64, len(specs))
	for i, spec := range specs {
		if m, ok := spec.Params["mean"]; ok {
			means[i] = m
			continue
		}
		lo, hasLo := spec.Params["min"]
		hi, hasHi := spec.Params["max"]
		if spec.Type != "uniform" || !hasLo || !hasHi {
			return nil, fmt.Errorf("service time %d (%s) has no mean", i, spec.Type)
		}
		means[i] = (lo + hi) / 2
	}
	return means, nil
}

// serviceSpecs turns a list of means into one DistSpec per server.
func serviceSpecs(dist string, means []float64) []workload.DistSpec {
	specs := make([]workload.DistSpec, len(means))
	for i, m := range means {
		specs[i] = workload.DistSpec{Type: dist, Params: map[string]float64{"mean": m}}
	}
	return specs
}
