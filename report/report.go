// Package report renders a completed run's (test, result) pairs as
// JUnit XML, JSON, and the plain-text summary/histogram described in
// spec §4.9.
package report

import (
	"strconv"
	"strings"

	"github.com/tmc/lit/littest"
)

// titleOrder is the fixed grouping order for the per-kind listing.
var titleOrder = []struct {
	code  littest.ResultCode
	title string
}{
	{littest.XPASS, "Unexpected Passing Tests (XPASS)"},
	{littest.FAIL, "Failing Tests (FAIL)"},
	{littest.UNRESOLVED, "Unresolved Tests (UNRESOLVED)"},
	{littest.UNSUPPORTED, "Unsupported Tests (UNSUPPORTED)"},
	{littest.XFAIL, "Expected Failing Tests (XFAIL)"},
	{littest.TIMEOUT, "Timed Out Tests (TIMEOUT)"},
}

// WriteGroupedListing writes each non-empty ResultCode group, in the
// fixed title order, as "<title>\n" followed by one indented test name
// per line.
func WriteGroupedListing(w *strings.Builder, tests []*littest.Test) {
	byCode := map[littest.ResultCode][]*littest.Test{}
	for _, t := range tests {
		if r := t.Result(); r != nil {
			byCode[r.Code] = append(byCode[r.Code], t)
		}
	}
	for _, group := range titleOrder {
		names := byCode[group.code]
		if len(names) == 0 {
			continue
		}
		w.WriteString(group.title)
		w.WriteString("\n")
		for _, t := range names {
			w.WriteString("    ")
			w.WriteString(t.FullName())
			w.WriteString("\n")
		}
	}
}

// summaryLine is one row of the fixed-order summary.
type summaryLine struct {
	label string
	count int
}

// WriteSummary writes the summary line block in the fixed order of
// spec §4.9, suppressing zero counts, and suppressing all non-failure
// categories when quiet is set.
func WriteSummary(w *strings.Builder, tests []*littest.Test, quiet bool) {
	var expectedPasses, passesWithRetry, expectedFailures, unsupported,
		unresolvedCount, unexpectedPasses, unexpectedFailures, timeouts int

	for _, t := range tests {
		r := t.Result()
		if r == nil {
			continue
		}
		switch r.Code {
		case littest.PASS:
			expectedPasses++
		case littest.FLAKYPASS:
			passesWithRetry++
		case littest.XFAIL:
			expectedFailures++
		case littest.UNSUPPORTED:
			unsupported++
		case littest.UNRESOLVED:
			unresolvedCount++
		case littest.XPASS:
			unexpectedPasses++
		case littest.FAIL:
			unexpectedFailures++
		case littest.TIMEOUT:
			timeouts++
		}
	}

	lines := []summaryLine{
		{"Expected Passes", expectedPasses},
		{"Passes With Retry", passesWithRetry},
		{"Expected Failures", expectedFailures},
		{"Unsupported Tests", unsupported},
		{"Unresolved Tests", unresolvedCount},
		{"Unexpected Passes", unexpectedPasses},
		{"Unexpected Failures", unexpectedFailures},
		{"Individual Timeouts", timeouts},
	}
	isFailureLine := map[string]bool{
		"Unresolved Tests":    true,
		"Unexpected Passes":   true,
		"Unexpected Failures": true,
		"Individual Timeouts": true,
	}
	for _, l := range lines {
		if l.count == 0 {
			continue
		}
		if quiet && !isFailureLine[l.label] {
			continue
		}
		w.WriteString(l.label)
		w.WriteString(": ")
		w.WriteString(strconv.Itoa(l.count))
		w.WriteString("\n")
	}
}
