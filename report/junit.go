package report

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/tmc/lit/littest"
)

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

// junitFailure wraps a failure body in CDATA. encoding/xml itself
// splits any literal "]]>" in the body into "]]]]><![CDATA[>", which is
// exactly the escaping the output format requires.
type junitFailure struct {
	Body string `xml:",cdata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

func classNameOf(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

// BuildJUnit groups tests by suite and renders the JUnit XML document
// described in spec §4.9.
func BuildJUnit(suites []*littest.TestSuite, testsBySuite map[int64][]*littest.Test) ([]byte, error) {
	doc := junitTestSuites{}
	for _, suite := range suites {
		tests := testsBySuite[suite.ID]
		jsuite := junitTestSuite{
			Name:  classNameOf(suite.Name),
			Tests: len(tests),
		}
		for _, t := range tests {
			r := t.Result()
			if r == nil {
				continue
			}
			tc := junitTestCase{
				ClassName: classNameOf(suite.Name),
				Name:      strings.Join(t.PathInSuite, "/"),
				Time:      formatSeconds(r.Elapsed),
			}
			switch r.Code {
			case littest.FAIL, littest.XPASS, littest.UNRESOLVED, littest.TIMEOUT:
				jsuite.Failures++
				tc.Failure = &junitFailure{Body: r.Output}
			case littest.UNSUPPORTED:
				jsuite.Skipped++
				tc.Skipped = &junitSkipped{Message: r.Output}
			}
			jsuite.Cases = append(jsuite.Cases, tc)
		}
		doc.Suites = append(doc.Suites, jsuite)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 4, 64)
}
