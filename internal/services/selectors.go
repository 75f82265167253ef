package services

import (
	"streetview-pano-service/internal/domain"
	"time"
)

// CaptureSelector picks which additional captures of a place to visit,
// given all other captures (oldest first) and the pano ids already picked.
// Implementations record their picks in picked.
type CaptureSelector func(others []domain.Capture, picked map[string]struct{}) []domain.Capture

// SelectEarliest picks up to n of the oldest captures not already picked.
func SelectEarliest(n int) CaptureSelector {
	return func(others []domain.Capture, picked map[string]struct{}) []domain.Capture {
		out := make([]domain.Capture, 0, n)
		for _, c := range others {
			if len(out) >= n {
				break
			}
			if _, ok := picked[c.PanoID]; ok {
				continue
			}
			picked[c.PanoID] = struct{}{}
			out = append(out, c)
		}
		return out
	}
}

// isWinterMonth reports whether m is between November and April.
func isWinterMonth(m time.Month) bool {
	return m >= time.November || m <= time.April
}

// SelectOneWinterMonth picks the most recent Nov–Apr capture not already
// picked. Captures are listed oldest first, so the scan runs backwards.
func SelectOneWinterMonth(others []domain.Capture, picked map[string]struct{}) []domain.Capture {
	for i := len(others) - 1; i >= 0; i-- {
		c := others[i]
		if !isWinterMonth(c.Date.Month) {
			continue
		}
		if _, ok := picked[c.PanoID]; ok {
			continue
		}
		picked[c.PanoID] = struct{}{}
		return []domain.Capture{c}
	}
	return []domain.Capture{}
}

// SelectorByName maps a CLI/config name to a selector; unknown names
// select nothing.
func SelectorByName(name string) CaptureSelector {
	switch name {
	case "winter":
		return SelectOneWinterMonth
	case "earliest":
		return SelectEarliest(2)
	default:
		return func([]domain.Capture, map[string]struct{}) []domain.Capture { return []domain.Capture{} }
	}
}
