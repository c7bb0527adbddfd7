package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv,omitempty"`
}

// ArrivalSampler generates inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in virtual time units.
	SampleIAT(rng *rand.Rand) float64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	rate float64 // arrivals per time unit
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / s.rate
}

// GammaArrivalSampler generates Gamma-distributed inter-arrival times.
// CV > 1 produces bursty arrivals.
type GammaArrivalSampler struct {
	shape float64 // 1/CV²
	scale float64 // CV²/rate
}

func (s *GammaArrivalSampler) SampleIAT(rng *rand.Rand) float64 {
	return gammaRand(rng, s.shape, s.scale)
}

// WeibullSampler generates Weibull-distributed inter-arrival times.
type WeibullSampler struct {
	shape float64 // Weibull k parameter
	scale float64 // Weibull λ parameter
}

func (s *WeibullSampler) SampleIAT(rng *rand.Rand) float64 {
	// Inverse CDF: scale * (-ln(U))^(1/shape)
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
}

// DeterministicSampler spaces arrivals exactly 1/rate apart.
type DeterministicSampler struct {
	interval float64
}

func (s *DeterministicSampler) SampleIAT(_ *rand.Rand) float64 {
	return s.interval
}

// ValidArrivalProcess reports whether name is a recognized arrival process.
func ValidArrivalProcess(name string) bool {
	switch name {
	case "poisson", "gamma", "weibull", "constant":
		return true
	}
	return false
}

// NewArrivalSampler creates an ArrivalSampler from a spec and a rate in
// arrivals per time unit.
func NewArrivalSampler(spec ArrivalSpec, rate float64) (ArrivalSampler, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("arrival rate must be positive and finite, got %v", rate)
	}
	cv := 1.0
	if spec.CV != nil {
		cv = *spec.CV
	}
	switch spec.Process {
	case "poisson", "":
		return &PoissonSampler{rate: rate}, nil

	case "gamma":
		if cv <= 0 {
			return nil, fmt.Errorf("gamma arrival CV must be > 0, got %v", cv)
		}
		// shape = 1/CV², scale = mean * CV² = (1/rate) * CV²
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{rate: rate}, nil
		}
		return &GammaArrivalSampler{shape: shape, scale: cv * cv / rate}, nil

	case "weibull":
		if cv <= 0 {
			return nil, fmt.Errorf("weibull arrival CV must be > 0, got %v", cv)
		}
		k := weibullShapeFromCV(cv)
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{shape: k, scale: (1.0 / rate) / math.Gamma(1.0+1.0/k)}, nil

	case "constant":
		return &DeterministicSampler{interval: 1.0 / rate}, nil

	default:
		return nil, fmt.Errorf("unknown arrival process %q", spec.Process)
	}
}

// weibullShapeFromCV finds Weibull shape parameter k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection.
// Range: k ∈ [0.1, 100], tolerance: |CV_computed - CV_target| < 0.001.
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

// weibullCV computes the coefficient of variation for Weibull(k).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
