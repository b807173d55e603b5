// Package stage maps the number of submitted responses to a named
// interview stage and a 0-100 progress percentage.
//
// The stage is a progress estimate only. Interview completion is an
// explicit transition owned by the interview workflow, not something
// inferred from this calculator.
package stage

// Stage is a named phase of a mock interview.
type Stage string

const (
	Introduction Stage = "introduction"
	Technical    Stage = "technical"
	Scenario     Stage = "scenario"
	Closing      Stage = "closing"
	Completed    Stage = "completed"
)

// ForResponseCount returns the stage and progress for a 1-based response
// count that includes the response just submitted. Total over all
// non-negative inputs; counts past the closing band collapse to
// Completed/100.
func ForResponseCount(responseCount int) (Stage, float64) {
	switch {
	case responseCount <= 2:
		return Introduction, float64(responseCount) * 12.5
	case responseCount <= 5:
		return Technical, 25 + float64(responseCount-2)*12.5
	case responseCount <= 7:
		return Scenario, 62.5 + float64(responseCount-5)*12.5
	case responseCount <= 8:
		return Closing, 87.5 + float64(responseCount-7)*12.5
	default:
		return Completed, 100
	}
}
