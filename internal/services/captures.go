package services

import (
	"fmt"
	"sort"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
)

// Key holding the panorama id in capture records.
const panoKey = "pano"

// inferDateKey returns the key of the first record that is not the panorama
// id key.
//
// The upstream schema names the timestamp field inconsistently, so the key
// is guessed. This only holds while every record carries exactly two keys;
// with more, the lexically first non-id key wins.
func inferDateKey(records []ports.CaptureRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("infer date key: %w: no capture records", ErrMalformedPanorama)
	}

	keys := make([]string, 0, len(records[0]))
	for k := range records[0] {
		if k != panoKey {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("infer date key: %w: first record has no date field", ErrMalformedPanorama)
	}

	sort.Strings(keys)
	return keys[0], nil
}

// otherCaptures reshapes sibling capture records into Captures, in order.
func otherCaptures(records []ports.CaptureRecord) ([]domain.Capture, error) {
	if len(records) == 0 {
		return []domain.Capture{}, nil
	}

	dateKey, err := inferDateKey(records)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Capture, 0, len(records))
	for i, rec := range records {
		pano, ok := rec[panoKey].(string)
		if !ok || pano == "" {
			return nil, fmt.Errorf("other captures: %w: record %d has no pano id", ErrMalformedPanorama, i)
		}

		raw, ok := rec[dateKey].(string)
		if !ok {
			return nil, fmt.Errorf("other captures: %w: record %d %q is not a string", ErrMalformedPanorama, i, dateKey)
		}

		date, err := domain.ParseYearMonth(raw)
		if err != nil {
			return nil, fmt.Errorf("other captures: %w: record %d: %v", ErrMalformedPanorama, i, err)
		}

		out = append(out, domain.Capture{PanoID: pano, Date: date})
	}

	return out, nil
}
