package players

import (
	"fmt"
	"math"
)

// ConsultationThreshold is the anxiety percentage at and above which a
// consultation is recommended.
const ConsultationThreshold = 50.0

// Level is the anxiety classification shown next to a result.
type Level struct {
	Name           string
	Color          string
	Recommendation string
}

var (
	LevelNormal   = Level{Name: "Normal", Color: "#4CAF50", Recommendation: "No consultation needed"}
	LevelElevated = Level{Name: "Elevated", Color: "#F44336", Recommendation: "Consultation recommended"}
)

// Assess classifies an anxiety percentage.
func Assess(percentage float64) Level {
	if percentage < ConsultationThreshold {
		return LevelNormal
	}
	return LevelElevated
}

// NeedsConsultation reports whether percentage is at or above the threshold.
func NeedsConsultation(percentage float64) bool {
	return percentage >= ConsultationThreshold
}

// FormatPlayTime renders seconds as "{m}m {s}s", truncating fractions.
func FormatPlayTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
