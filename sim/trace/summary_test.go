package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.Departures != 0 || summary.UniqueTargets != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.OutcomeDistribution == nil || summary.TargetDistribution == nil {
		t.Error("distributions must be non-nil maps")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN routings out of a stall and a payment departure
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordRouting(RoutingRecord{Customer: "c0", Stage: "Stall Stage 0", Outcome: "payment", Target: "Payment Queue"})
	st.RecordRouting(RoutingRecord{Customer: "c1", Stage: "Stall Stage 0", Outcome: "stall", Target: "Stall Queue 2"})
	st.RecordRouting(RoutingRecord{Customer: "c2", Stage: "Stall Stage 1", Outcome: "payment", Target: "Payment Queue"})
	st.RecordRouting(RoutingRecord{Customer: "c0", Stage: "Payment Stage", Outcome: "depart"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDecisions != 4 {
		t.Errorf("expected 4 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.Departures != 1 {
		t.Errorf("expected 1 departure, got %d", summary.Departures)
	}
	if summary.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.TargetDistribution["Payment Queue"] != 2 {
		t.Errorf("expected Payment Queue count 2, got %d", summary.TargetDistribution["Payment Queue"])
	}
	if summary.OutcomeDistribution["payment"] != 2 || summary.OutcomeDistribution["depart"] != 1 {
		t.Errorf("unexpected outcome distribution %v", summary.OutcomeDistribution)
	}
	if got := summary.StageDistribution["Stall Stage 0"]["stall"]; got != 1 {
		t.Errorf("expected 1 stall outcome from Stall Stage 0, got %d", got)
	}
}
