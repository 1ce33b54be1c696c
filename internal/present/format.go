package present

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag is a semantic marker attached to a formatted cell.
type Tag string

const (
	TagNone     Tag = ""
	TagPositive Tag = "positive"
	TagNegative Tag = "negative"
	TagHigh     Tag = "high"
	TagMedium   Tag = "medium"
	TagLow      Tag = "low"
)

// Probability tier thresholds.
const (
	HighProbability   = 0.80
	MediumProbability = 0.50
)

// FormatPercent renders a [0,1] ratio as a percentage with 4 decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.4f%%", v*100)
}

// FormatLift renders a signed relative lift. Zero counts as positive.
func FormatLift(v float64) Cell {
	if v >= 0 {
		return Cell{Text: "+" + FormatPercent(v), Tag: TagPositive}
	}
	return Cell{Text: FormatPercent(v), Tag: TagNegative}
}

// ProbabilityTier buckets a probability of being best.
func ProbabilityTier(p float64) Tag {
	switch {
	case p >= HighProbability:
		return TagHigh
	case p >= MediumProbability:
		return TagMedium
	default:
		return TagLow
	}
}

// FormatProbability renders a probability of being best with its tier.
func FormatProbability(p float64) Cell {
	return Cell{Text: FormatPercent(p), Tag: ProbabilityTier(p)}
}

// FormatFixed renders v with 4 decimals.
func FormatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatNumber renders v with the shortest exact representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
