// Package timeparse turns free-form reminder requests ("remind me in 30
// minutes to check the oven") into an absolute future instant plus the
// residual reminder text.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse failures are expected outcomes, returned to the caller so it can tell
// the user what was missing or why the request was rejected.
var (
	// ErrNoTimeExpression means no time pattern matched the message.
	ErrNoTimeExpression = errors.New("no time expression found")
	// ErrPastTime means the expression resolved to an instant at or before now.
	ErrPastTime = errors.New("time has already passed")
	// ErrInvalidTime means a clock value was malformed (e.g. "at 25:00").
	ErrInvalidTime = errors.New("invalid time value")
	// ErrTooFarAhead means the resolved instant exceeds the configured lead cap.
	ErrTooFarAhead = errors.New("time is too far in the future")
)

// Result is the outcome of a successful parse. It is a transient value,
// consumed immediately by the caller; it carries no identity.
type Result struct {
	// When is the resolved instant, always strictly after the reference time.
	When time.Time
	// Message is the residual reminder text, "reminder" if nothing remained.
	Message string
}

// Options configures a Parser. Zero values select the defaults.
type Options struct {
	// IntentKeywords are the phrases that signal a reminder request.
	IntentKeywords []string
	// TonightHour is the hour of day "tonight" resolves to (default 20).
	TonightHour int
	// Location interprets all clock times and day boundaries (default UTC).
	Location *time.Location
	// MaxLead caps how far ahead a reminder may be scheduled. Zero = no cap.
	MaxLead time.Duration
}

var defaultIntentKeywords = []string{
	"remind me", "remind us", "reminder", "alert me", "notify me",
	"ping me", "let me know", "don't forget", "remember to",
}

const fallbackMessage = "reminder"

// Parser matches and resolves natural-language time expressions. Matchers are
// held as an ordered table, most specific first, so precedence stays auditable.
// Parser is safe for concurrent use; Detect and Parse are pure.
type Parser struct {
	keywords    []string
	tonightHour int
	loc         *time.Location
	maxLead     time.Duration
	matchers    []matcher
}

// matcher pairs a pattern with the rule that resolves it against "now".
// groups are submatch strings, zero-length when the group did not participate.
type matcher struct {
	name    string
	re      *regexp.Regexp
	resolve func(p *Parser, groups []string, now time.Time) (time.Time, error)
}

const weekdayAlt = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

// clockAlt matches "3pm", "14:00", "7:30 am". Range checks happen in
// resolveClock so that "at 25:00" is reported as malformed, not unmatched.
const clockAlt = `(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`

var unitDurations = map[string]time.Duration{
	"minute": time.Minute,
	"min":    time.Minute,
	"hour":   time.Hour,
	"hr":     time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// unitIndicator backs Detect only; it is looser than the offset matchers on
// purpose so "remind me... 5 minutes..." still counts as a time indicator.
var unitIndicator = regexp.MustCompile(`\b\d+\s*(minute|min|hour|hr|day|week)s?\b`)

// New builds a Parser from opts.
func New(opts Options) *Parser {
	p := &Parser{
		keywords:    opts.IntentKeywords,
		tonightHour: opts.TonightHour,
		loc:         opts.Location,
		maxLead:     opts.MaxLead,
	}
	if len(p.keywords) == 0 {
		p.keywords = defaultIntentKeywords
	}
	// Longest keyword first so "remind me" wins over "remind" style prefixes
	// when stripping the intent span from the message.
	keys := make([]string, len(p.keywords))
	copy(keys, p.keywords)
	for i := range keys {
		keys[i] = asciiLower(keys[i])
	}
	sortByLengthDesc(keys)
	p.keywords = keys

	if p.tonightHour <= 0 || p.tonightHour > 23 {
		p.tonightHour = 20
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	p.matchers = buildMatchers()
	return p
}

func sortByLengthDesc(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

// buildMatchers returns the ordered matcher table. Specific forms (named day
// combined with a clock time) come before looser ones (bare clock time).
func buildMatchers() []matcher {
	return []matcher{
		{
			name:    "tomorrow at clock",
			re:      regexp.MustCompile(`\btomorrow(?:,)?\s+at\s+` + clockAlt + `\b`),
			resolve: resolveTomorrowAt,
		},
		{
			name:    "next weekday at clock",
			re:      regexp.MustCompile(`\bnext\s+` + weekdayAlt + `\s+at\s+` + clockAlt + `\b`),
			resolve: resolveWeekdayAt,
		},
		{
			name:    "tonight at clock",
			re:      regexp.MustCompile(`\btonight\s+at\s+` + clockAlt + `\b`),
			resolve: resolveTonightAt,
		},
		{
			name:    "relative offset",
			re:      regexp.MustCompile(`\bin\s+(\d+)\s*(minute|min|hour|hr|day|week)s?\b`),
			resolve: resolveOffset,
		},
		{
			name:    "offset from now",
			re:      regexp.MustCompile(`\b(\d+)\s*(minute|min|hour|hr|day|week)s?\s+from\s+now\b`),
			resolve: resolveOffset,
		},
		{
			name:    "tomorrow",
			re:      regexp.MustCompile(`\btomorrow\b`),
			resolve: resolveTomorrow,
		},
		{
			name:    "tonight",
			re:      regexp.MustCompile(`\btonight\b`),
			resolve: resolveTonight,
		},
		{
			name:    "next weekday",
			re:      regexp.MustCompile(`\bnext\s+` + weekdayAlt + `\b`),
			resolve: resolveWeekday,
		},
		{
			name:    "clock time",
			re:      regexp.MustCompile(`\bat\s+` + clockAlt + `\b`),
			resolve: resolveClockToday,
		},
	}
}

// Detect reports whether text looks like a reminder request: it must contain
// both an intent keyword and a time indicator. One alone is not enough; that
// gate keeps "it's 3pm already" and "remind me sometime" from matching.
func (p *Parser) Detect(text string) bool {
	lower := asciiLower(text)
	return p.hasIntentKeyword(lower) && p.hasTimeIndicator(lower)
}

func (p *Parser) hasIntentKeyword(lower string) bool {
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p *Parser) hasTimeIndicator(lower string) bool {
	for _, m := range p.matchers {
		if m.re.MatchString(lower) {
			return true
		}
	}
	return unitIndicator.MatchString(lower)
}

// Parse resolves the time expression in text against now and extracts the
// reminder message. The first matcher in priority order that matches wins.
func (p *Parser) Parse(text string, now time.Time) (*Result, error) {
	lower := asciiLower(text)

	for _, m := range p.matchers {
		idx := m.re.FindStringSubmatchIndex(lower)
		if idx == nil {
			continue
		}

		groups := submatches(lower, idx)
		when, err := m.resolve(p, groups, now)
		if err != nil {
			return nil, err
		}
		if !when.After(now) {
			return nil, fmt.Errorf("%q resolves to %s: %w", lower[idx[0]:idx[1]], when.Format(time.RFC3339), ErrPastTime)
		}
		if p.maxLead > 0 && when.Sub(now) > p.maxLead {
			return nil, fmt.Errorf("%s exceeds maximum lead time of %s: %w", when.Format(time.RFC3339), p.maxLead, ErrTooFarAhead)
		}

		return &Result{
			When:    when,
			Message: p.extractMessage(text, idx[0], idx[1]),
		}, nil
	}

	return nil, ErrNoTimeExpression
}

// submatches expands a FindStringSubmatchIndex result into group strings.
func submatches(s string, idx []int) []string {
	groups := make([]string, len(idx)/2)
	for i := range groups {
		start, end := idx[2*i], idx[2*i+1]
		if start >= 0 {
			groups[i] = s[start:end]
		}
	}
	return groups
}

func resolveOffset(_ *Parser, groups []string, now time.Time) (time.Time, error) {
	n, err := strconv.Atoi(groups[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("offset %q: %w", groups[1], ErrInvalidTime)
	}
	unit, ok := unitDurations[groups[2]]
	if !ok {
		return time.Time{}, fmt.Errorf("unit %q: %w", groups[2], ErrInvalidTime)
	}
	return now.Add(time.Duration(n) * unit), nil
}

func resolveTomorrow(p *Parser, _ []string, now time.Time) (time.Time, error) {
	return now.In(p.loc).AddDate(0, 0, 1), nil
}

func resolveTomorrowAt(p *Parser, groups []string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(groups[1], groups[2], groups[3])
	if err != nil {
		return time.Time{}, err
	}
	d := now.In(p.loc).AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, p.loc), nil
}

// resolveTonight maps "tonight" to today at the configured evening hour. If
// that instant has already passed the request fails rather than silently
// rolling to tomorrow night, which would surprise the user.
func resolveTonight(p *Parser, _ []string, now time.Time) (time.Time, error) {
	local := now.In(p.loc)
	tonight := time.Date(local.Year(), local.Month(), local.Day(), p.tonightHour, 0, 0, 0, p.loc)
	if !tonight.After(now) {
		return time.Time{}, fmt.Errorf("tonight (%02d:00) is already past: %w", p.tonightHour, ErrPastTime)
	}
	return tonight, nil
}

func resolveTonightAt(p *Parser, groups []string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(groups[1], groups[2], groups[3])
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(p.loc)
	tonight := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, p.loc)
	if !tonight.After(now) {
		return time.Time{}, fmt.Errorf("tonight at %02d:%02d is already past: %w", hour, minute, ErrPastTime)
	}
	return tonight, nil
}

// resolveWeekday finds the next occurrence strictly after now, keeping the
// current time of day.
func resolveWeekday(p *Parser, groups []string, now time.Time) (time.Time, error) {
	return nextWeekday(now.In(p.loc), groups[1]), nil
}

func resolveWeekdayAt(p *Parser, groups []string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(groups[2], groups[3], groups[4])
	if err != nil {
		return time.Time{}, err
	}
	d := nextWeekday(now.In(p.loc), groups[1])
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, p.loc), nil
}

// resolveClockToday interprets a bare clock time on the current day, rolling
// forward to tomorrow when that instant is already past.
func resolveClockToday(p *Parser, groups []string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(groups[1], groups[2], groups[3])
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(p.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, p.loc)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func nextWeekday(local time.Time, name string) time.Time {
	target := weekdays[name]
	days := int(target-local.Weekday()+7) % 7
	if days == 0 {
		days = 7 // "next monday" on a Monday means a week out, not today
	}
	return local.AddDate(0, 0, days)
}

// parseClock validates and normalizes an HH[:MM][am|pm] capture to 24h form.
func parseClock(hourStr, minuteStr, ampm string) (int, int, error) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, 0, fmt.Errorf("hour %q: %w", hourStr, ErrInvalidTime)
	}

	minute := 0
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil || minute > 59 {
			return 0, 0, fmt.Errorf("minute %q: %w", minuteStr, ErrInvalidTime)
		}
	}

	switch ampm {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour %d with am/pm must be 1-12: %w", hour, ErrInvalidTime)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour %d with am/pm must be 1-12: %w", hour, ErrInvalidTime)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("hour %d: %w", hour, ErrInvalidTime)
		}
	}

	return hour, minute, nil
}

var connectives = map[string]bool{
	"to":    true,
	"about": true,
	"that":  true,
}

// extractMessage strips the time expression span and the intent keyword from
// the original text, trims connective words left dangling at either end, and
// collapses whitespace. ASCII lowering preserves byte offsets, so spans found
// on the lowered text apply directly to the original.
func (p *Parser) extractMessage(text string, timeStart, timeEnd int) string {
	remainder := text[:timeStart] + text[timeEnd:]

	lower := asciiLower(remainder)
	for _, kw := range p.keywords {
		if idx := strings.Index(lower, kw); idx >= 0 {
			remainder = remainder[:idx] + remainder[idx+len(kw):]
			break
		}
	}

	fields := strings.Fields(remainder)
	for len(fields) > 0 && isConnective(fields[0]) {
		fields = fields[1:]
	}
	for len(fields) > 0 && isConnective(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}

	msg := strings.Trim(strings.Join(fields, " "), " ,.!?")
	if msg == "" {
		return fallbackMessage
	}
	return msg
}

func isConnective(word string) bool {
	return connectives[strings.Trim(asciiLower(word), ",.!?")]
}

// asciiLower lowers only the bytes 'A'-'Z'. Unlike strings.ToLower it never
// changes byte lengths, so offsets into the result index the original text.
// The matchers and keywords are all ASCII, so nothing else needs lowering.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
