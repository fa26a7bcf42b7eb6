package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// Parse reads limits written as "200 per day; 50 per hour", "10 per minute",
// "5/second" or "100 per 2 hours". Items are separated by ';' or ','.
// Every returned limit carries scope.
func Parse(scope, spec string) ([]Limit, error) {
	var out []Limit
	for _, item := range strings.FieldsFunc(spec, func(r rune) bool { return r == ';' || r == ',' }) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		l, err := parseOne(item)
		if err != nil {
			return nil, err
		}
		l.Scope = scope
		out = append(out, l)
	}
	return out, nil
}

func parseOne(item string) (Limit, error) {
	var countPart, periodPart string
	if i := strings.Index(item, "/"); i >= 0 {
		countPart, periodPart = item[:i], item[i+1:]
	} else if fields := strings.SplitN(item, " per ", 2); len(fields) == 2 {
		countPart, periodPart = fields[0], fields[1]
	} else {
		return Limit{}, fmt.Errorf("limit %q: expected \"N per period\" or \"N/period\"", item)
	}

	count, err := strconv.Atoi(strings.TrimSpace(countPart))
	if err != nil || count < 1 {
		return Limit{}, fmt.Errorf("limit %q: count must be a positive integer", item)
	}

	period, err := parsePeriod(strings.ToLower(strings.TrimSpace(periodPart)))
	if err != nil {
		return Limit{}, fmt.Errorf("limit %q: %w", item, err)
	}
	return Limit{Count: count, Period: period}, nil
}

func parsePeriod(s string) (time.Duration, error) {
	mult := 1
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
	case 2:
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid period multiplier %q", fields[0])
		}
		mult, s = n, fields[1]
	default:
		return 0, fmt.Errorf("invalid period %q", s)
	}

	unit, ok := units[strings.TrimSuffix(s, "s")]
	if !ok {
		return 0, fmt.Errorf("unknown period unit %q", s)
	}
	return time.Duration(mult) * unit, nil
}

// String renders the limit back in "N per [M ]unit" form.
func (l Limit) String() string {
	for _, name := range []string{"day", "hour", "minute", "second"} {
		unit := units[name]
		if l.Period%unit != 0 {
			continue
		}
		n := int(l.Period / unit)
		if n == 1 {
			return fmt.Sprintf("%d per 1 %s", l.Count, name)
		}
		return fmt.Sprintf("%d per %d %ss", l.Count, n, name)
	}
	return fmt.Sprintf("%d per %s", l.Count, l.Period)
}
