package walker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/dlclark/regexp2"
)

// DateLayout is the calendar-day format accepted for range bounds and cutoffs
const DateLayout = "2006-01-02"

const keywordMatchTimeout = time.Second

// Mode selects between keeping every in-range file and keyword matching
type Mode int

const (
	ModeAll Mode = iota
	ModeKeywords
)

func (m Mode) String() string {
	if m == ModeKeywords {
		return "Filter by Keywords"
	}
	return "All Files in Date Range"
}

// Filter decides which classified files end up in the scan output.
// Zero Start or End leaves that side of the range open.
type Filter struct {
	Start       time.Time
	End         time.Time
	Mode        Mode
	Keywords    []string
	StaleBefore time.Time
	FlaggedOnly bool
}

// Validate rejects inverted ranges
func (f Filter) Validate() error {
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return fmt.Errorf("start date %s is after end date %s", f.Start.Format(DateLayout), f.End.Format(DateLayout))
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD day. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseKeywords splits comma separated input, trimming blanks
func ParseKeywords(input string) []string {
	var keywords []string
	for _, kw := range strings.Split(input, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Matcher applies a Filter to classified files
type Matcher struct {
	filter  Filter
	pattern *regexp2.Regexp
}

// NewMatcher compiles the keyword pattern. Keywords are regular expressions
// joined as alternatives and matched case-insensitively anywhere in the title.
func NewMatcher(f Filter) (*Matcher, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{filter: f}

	var parts []string
	for _, kw := range f.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	if len(parts) > 0 {
		pattern, err := regexp2.Compile(strings.Join(parts, "|"), regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword pattern: %w", err)
		}
		pattern.MatchTimeout = keywordMatchTimeout
		m.pattern = pattern
	}
	return m, nil
}

// InRange reports whether the UTC calendar day of t lies within the bounds
func (m *Matcher) InRange(t time.Time) bool {
	day := truncateDay(t)
	if !m.filter.Start.IsZero() && day.Before(truncateDay(m.filter.Start)) {
		return false
	}
	if !m.filter.End.IsZero() && day.After(truncateDay(m.filter.End)) {
		return false
	}
	return true
}

// MatchesKeywords reports whether the title matches the keyword pattern.
// An empty keyword set matches every title.
func (m *Matcher) MatchesKeywords(title string) bool {
	if m.pattern == nil {
		return true
	}
	ok, err := m.pattern.MatchString(title)
	if err != nil {
		logger.WarningTagged([]string{"Scan"}, "Keyword match on %q failed: %v", title, err)
		return false
	}
	return ok
}

// IsStale reports whether t precedes the stale cutoff
func (m *Matcher) IsStale(t time.Time) bool {
	return !m.filter.StaleBefore.IsZero() && t.Before(m.filter.StaleBefore)
}

// Include reports whether a classified file belongs in the output
func (m *Matcher) Include(title string, modified time.Time, reason model.Reason) bool {
	if !m.InRange(modified) {
		return false
	}
	if m.filter.Mode == ModeKeywords && !m.MatchesKeywords(title) {
		return false
	}
	if m.filter.FlaggedOnly && !reason.Flagged() {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var errEmptyTimestamp = errors.New("empty modification time")

// parseModified parses the provider's RFC 3339 timestamp; fractional seconds are optional
func parseModified(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	return time.Parse(time.RFC3339, s)
}
