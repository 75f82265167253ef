package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout used to display capture dates, e.g. "Jul 2021".
const YearMonthLayout = "Jan 2006"

// YearMonth is the month/year a panorama was captured.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth reads a "YYYY-M" style timestamp. Only the first two
// dash-separated fields are used, so "2021-07" and "2021-07-15T00:00:00Z"
// are accepted as well.
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) < 2 {
		return YearMonth{}, fmt.Errorf("parse year-month %q: expected YYYY-M", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return YearMonth{}, fmt.Errorf("parse year-month %q: invalid year", s)
	}

	// Trailing time components ("15T00:00:00Z") only appear in the third field.
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("parse year-month %q: invalid month", s)
	}

	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// Time anchors the year-month on the 1st of the month (UTC).
func (ym YearMonth) Time() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) IsZero() bool { return ym.Year == 0 && ym.Month == 0 }

// String renders the abbreviated month and year, e.g. "Jul 2021".
func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return ym.Time().Format(YearMonthLayout)
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText accepts both the display form ("Jul 2021") and the
// upstream form ("2021-7").
func (ym *YearMonth) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*ym = YearMonth{}
		return nil
	}

	if t, err := time.Parse(YearMonthLayout, s); err == nil {
		*ym = YearMonth{Year: t.Year(), Month: t.Month()}
		return nil
	}

	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
