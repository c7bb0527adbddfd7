package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// DurationSampler generates service durations in virtual time units.
// Samples are returned as drawn: a negative draw is left for the caller to
// reject rather than clamped.
type DurationSampler interface {
	Sample(rng *rand.Rand) float64
}

// DistSpec parameterizes a duration distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Constant returns a DistSpec for a fixed duration.
func Constant(value float64) DistSpec {
	return DistSpec{Type: "constant", Params: map[string]float64{"mean": value}}
}

// Exponential returns a DistSpec for an exponential duration with the given mean.
func Exponential(mean float64) DistSpec {
	return DistSpec{Type: "exponential", Params: map[string]float64{"mean": mean}}
}

// ConstantSampler always returns the same fixed value.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) float64 {
	return s.value
}

// ExponentialSampler produces exponentially-distributed durations.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// GammaSampler produces Gamma-distributed durations with a given mean and
// coefficient of variation (shape = 1/CV², scale = mean·CV²).
type GammaSampler struct {
	shape float64
	scale float64
}

func (s *GammaSampler) Sample(rng *rand.Rand) float64 {
	return gammaRand(rng, s.shape, s.scale)
}

// UniformSampler produces durations uniformly distributed on [min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.min + rng.Float64()*(s.max-s.min)
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %q must be finite, got %v", k, v)
		}
	}
	return nil
}

// NewDurationSampler creates a DurationSampler from a DistSpec.
// Parameters that would make every draw negative are rejected here.
func NewDurationSampler(spec DistSpec) (DurationSampler, error) {
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] < 0 {
			return nil, fmt.Errorf("constant duration must be >= 0, got %v", spec.Params["mean"])
		}
		return &ConstantSampler{value: spec.Params["mean"]}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential mean must be > 0, got %v", spec.Params["mean"])
		}
		return &ExponentialSampler{mean: spec.Params["mean"]}, nil

	case "gamma":
		if err := requireParam(spec.Params, "mean", "cv"); err != nil {
			return nil, err
		}
		mean, cv := spec.Params["mean"], spec.Params["cv"]
		if mean <= 0 || cv <= 0 {
			return nil, fmt.Errorf("gamma requires mean > 0 and cv > 0, got mean=%v cv=%v", mean, cv)
		}
		return &GammaSampler{shape: 1.0 / (cv * cv), scale: mean * cv * cv}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo < 0 || hi < lo {
			return nil, fmt.Errorf("uniform requires 0 <= min <= max, got [%v, %v]", lo, hi)
		}
		return &UniformSampler{min: lo, max: hi}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape >= 1: direct method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}
