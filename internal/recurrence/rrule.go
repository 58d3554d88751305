package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// ErrInvalidRule is returned by Parse for rule text that cannot be used.
var ErrInvalidRule = errors.New("invalid recurrence rule")

type Freq int

const (
	Weekly Freq = iota
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqFromName = map[string]Freq{
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

func (f Freq) String() string {
	return freqNames[f]
}

// dayCodes is the canonical weekday table; the index is the weekday number.
var dayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

func weekdayFromCode(code string) (time.Weekday, bool) {
	for i, c := range dayCodes {
		if c == code {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// Spec is a parsed recurrence rule.
type Spec struct {
	Freq     Freq
	Interval int            // >= 1
	ByDay    []time.Weekday // canonical order SU..SA, no duplicates
	Count    mo.Option[int] // total occurrences requested, master included
	Until    *time.Time     // no occurrence starts after this instant
	UntilDay bool           // Until came from a bare date and covers that whole local day
	Ignored  []string       // BYDAY codes that were not recognized
	Text     string         // rule text exactly as supplied
}

// Parse parses a rule like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2;COUNT=6".
// FREQ defaults to WEEKLY. Unknown keys and unknown BYDAY codes are ignored.
func Parse(rule string) (Spec, error) {
	text := strings.TrimSpace(rule)
	if text == "" {
		return Spec{}, fmt.Errorf("%w: empty rule", ErrInvalidRule)
	}

	s := Spec{Freq: Weekly, Interval: 1, Text: rule}
	var days [7]bool

	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Spec{}, fmt.Errorf("%w: invalid rule part %q", ErrInvalidRule, part)
		}
		key, val := strings.ToUpper(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])

		switch key {
		case "FREQ":
			f, ok := freqFromName[strings.ToUpper(val)]
			if !ok {
				return Spec{}, fmt.Errorf("%w: unsupported frequency %q", ErrInvalidRule, val)
			}
			s.Freq = f

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Spec{}, fmt.Errorf("%w: invalid interval %q", ErrInvalidRule, val)
			}
			s.Interval = n

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Spec{}, fmt.Errorf("%w: invalid count %q", ErrInvalidRule, val)
			}
			s.Count = mo.Some(n)

		case "BYDAY":
			for _, code := range strings.Split(val, ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				if code == "" {
					continue
				}
				wd, ok := weekdayFromCode(code)
				if !ok {
					s.Ignored = append(s.Ignored, code)
					continue
				}
				days[wd] = true
			}

		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", val)
			if err != nil {
				t, err = time.Parse("20060102", val)
				if err != nil {
					return Spec{}, fmt.Errorf("%w: invalid until %q", ErrInvalidRule, val)
				}
				// a bare date includes the whole day
				t = t.Add(24*time.Hour - time.Second)
				s.UntilDay = true
			}
			s.Until = &t
		}
	}

	for wd, on := range days {
		if on {
			s.ByDay = append(s.ByDay, time.Weekday(wd))
		}
	}

	return s, nil
}

// cutoff returns the latest instant an occurrence may start when the
// series is laid out in loc. A bare-date UNTIL ends with that day in loc.
func (s Spec) cutoff(loc *time.Location) (time.Time, bool) {
	if s.Until == nil {
		return time.Time{}, false
	}
	if !s.UntilDay {
		return *s.Until, true
	}
	y, m, d := s.Until.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc), true
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(rule string) Spec {
	s, err := Parse(rule)
	if err != nil {
		panic(err)
	}
	return s
}

// String serializes the spec back to normalized rule text.
func (s Spec) String() string {
	var parts []string
	parts = append(parts, "FREQ="+s.Freq.String())

	if s.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", s.Interval))
	}

	if len(s.ByDay) > 0 {
		var days []string
		for _, d := range s.ByDay {
			days = append(days, dayCodes[d])
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}

	if n, ok := s.Count.Get(); ok {
		parts = append(parts, fmt.Sprintf("COUNT=%d", n))
	}

	if s.Until != nil {
		if s.UntilDay {
			parts = append(parts, "UNTIL="+s.Until.UTC().Format("20060102"))
		} else {
			parts = append(parts, "UNTIL="+s.Until.UTC().Format("20060102T150405Z"))
		}
	}

	return strings.Join(parts, ";")
}

// Describe returns a human-readable description of the spec.
func (s Spec) Describe() string {
	var desc string
	switch s.Freq {
	case Weekly:
		desc = "Repeats weekly"
		if s.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d weeks", s.Interval)
		}
		if len(s.ByDay) > 0 {
			var names []string
			for _, d := range s.ByDay {
				names = append(names, d.String()[:3])
			}
			desc += " on " + strings.Join(names, ", ")
		}
	case Monthly:
		desc = "Repeats monthly"
		if s.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d months", s.Interval)
		}
	case Yearly:
		desc = "Repeats yearly"
		if s.Interval > 1 {
			desc = fmt.Sprintf("Repeats every %d years", s.Interval)
		}
	}

	if n, ok := s.Count.Get(); ok {
		desc += fmt.Sprintf(", %d times", n)
	}
	if s.Until != nil {
		desc += ", until " + s.Until.Format("Jan 2, 2006")
	}
	return desc
}
