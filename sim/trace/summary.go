package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions      int
	Departures          int
	UniqueTargets       int
	OutcomeDistribution map[string]int            // outcome → count
	TargetDistribution  map[string]int            // queue name → count of customers routed there
	StageDistribution   map[string]map[string]int // stage → outcome → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeDistribution: make(map[string]int),
		TargetDistribution:  make(map[string]int),
		StageDistribution:   make(map[string]map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Routings)
	for _, r := range st.Routings {
		summary.OutcomeDistribution[r.Outcome]++
		if r.Target == "" {
			summary.Departures++
		} else {
			summary.TargetDistribution[r.Target]++
		}
		byOutcome, ok := summary.StageDistribution[r.Stage]
		if !ok {
			byOutcome = make(map[string]int)
			summary.StageDistribution[r.Stage] = byOutcome
		}
		byOutcome[r.Outcome]++
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
