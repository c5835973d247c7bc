// internal/assistant/extract/score.go
package extract

// AcceptThreshold is the confidence gate: a raw value is accepted only if
// its score is strictly greater than this. Exactly 0.5 is rejected.
const AcceptThreshold = 0.5

// ScoreProjectID rates a raw project id. All-digit ids and names longer
// than two characters score 0.9; anything else populated sits on the
// rejection boundary at 0.5.
func ScoreProjectID(value string, present bool) float64 {
	if !present {
		return 0.0
	}
	if isAllDigits(value) || len(value) > 2 {
		return 0.9
	}
	return 0.5
}

// ScoreAmount rates a raw amount. A present amount is numeric by
// construction and scores 1.0.
func ScoreAmount(value float64, present bool) float64 {
	if !present {
		return 0.0
	}
	return 1.0
}

// ScoreReason rates a formatted reason string.
func ScoreReason(value string, present bool) float64 {
	if !present {
		return 0.0
	}
	if len(value) > 10 {
		return 0.8
	}
	return 0.5
}
