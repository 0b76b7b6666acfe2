// internal/onboarding/progress.go
package onboarding

import "math"

// Progress is (index+1)/len*100 over the canonical order; 0 for an unknown stage.
func Progress(s Stage) float64 {
	idx := s.Index()
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(orderedStages)) * 100
}

// DisplayProgress rounds a progress value for presentation.
func DisplayProgress(p float64) int {
	return int(math.Round(p))
}
