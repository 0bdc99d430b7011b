package dev

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// LineFilter rewrites one line of saved output. Returning false drops
// the line. lineNum counts from 1.
type LineFilter func(line string, lineNum int) (string, bool)

// FilterTable holds named line filters, referenced by VendorProfile.LineFilter.
type FilterTable struct {
	filters map[string]LineFilter
	logger  hasPrintf
	debug   bool
}

// NewFilterTable creates a table with the built-in filters.
func NewFilterTable(logger hasPrintf, debug bool) *FilterTable {
	t := &FilterTable{
		filters: map[string]LineFilter{},
		logger:  logger,
		debug:   debug,
	}
	t.Register("noop", func(line string, _ int) (string, bool) { return line, true })
	t.Register("drop", func(string, int) (string, bool) { return "", false })
	t.Register("count_lines", func(line string, n int) (string, bool) { return strconv.Itoa(n) + ": " + line, true })
	t.Register("iosxr", t.dropMatching(iosxrVolatile))
	return t
}

// Register adds or replaces a filter.
func (t *FilterTable) Register(name string, f LineFilter) {
	t.filters[name] = f
}

// Names lists the registered filters.
func (t *FilterTable) Names() []string {
	names := make([]string, 0, len(t.filters))
	for n := range t.filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply runs filter name over text, line by line. Trailing CR is removed
// from every line and the result is LF terminated. An empty name only
// normalizes line endings.
func (t *FilterTable) Apply(name, text string) (string, error) {
	f := t.filters["noop"]
	if name != "" {
		var found bool
		if f, found = t.filters[name]; !found {
			return "", fmt.Errorf("FilterTable.Apply: unknown line filter: '%s'", name)
		}
	}

	if text == "" {
		return "", nil
	}

	var b strings.Builder
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		out, keep := f(strings.TrimRight(line, "\r"), i+1)
		if !keep {
			continue
		}
		b.WriteString(out)
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// iosxrVolatile matches lines that change on every capture:
//
//	Thu Feb 11 15:45:43.545 BRST
//	Building configuration...
//	!! Last configuration change at Tue Jan 26 16:40:46 2016 by user
//	asr9010 uptime is 9 years, 2 weeks, 5 days, 20 hours, 3 minutes
var iosxrVolatile = []*regexp.Regexp{
	regexp.MustCompile(`^\w{3}\s\w{3}\s+\d{1,2}\s`),
	regexp.MustCompile(`^Building`),
	regexp.MustCompile(`^!! Last`),
	regexp.MustCompile(`^\S+ uptime is `),
}

func (t *FilterTable) dropMatching(list []*regexp.Regexp) LineFilter {
	return func(line string, _ int) (string, bool) {
		for _, re := range list {
			if re.MatchString(line) {
				if t.debug {
					t.logger.Printf("line filter: drop: [%s]", line)
				}
				return "", false
			}
		}
		return line, true
	}
}
