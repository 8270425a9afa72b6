package report

import (
	"encoding/json"

	"github.com/tmc/lit/littest"
)

type jsonTest struct {
	Name       string                        `json:"name"`
	Code       string                        `json:"code"`
	Output     string                        `json:"output"`
	Elapse     float64                       `json:"elapse"`
	Metrics    map[string]littest.MetricValue `json:"metrics,omitempty"`
	MicroTests []jsonTest                     `json:"microTests,omitempty"`
}

type jsonReport struct {
	EngineVersion string     `json:"engineVersion"`
	Elapsed       float64    `json:"elapsed"`
	Tests         []jsonTest `json:"tests"`
}

func toJSONTest(name string, r *littest.Result) jsonTest {
	jt := jsonTest{
		Name:    name,
		Code:    r.Code.String(),
		Output:  r.Output,
		Elapse:  r.Elapsed,
		Metrics: r.Metrics,
	}
	for subName, sub := range r.MicroResults {
		jt.MicroTests = append(jt.MicroTests, toJSONTest(subName, sub))
	}
	return jt
}

// BuildJSON renders the {engineVersion, elapsed, tests:[...]} document
// of spec §4.9.
func BuildJSON(engineVersion string, elapsed float64, tests []*littest.Test) ([]byte, error) {
	doc := jsonReport{EngineVersion: engineVersion, Elapsed: elapsed}
	for _, t := range tests {
		r := t.Result()
		if r == nil {
			continue
		}
		doc.Tests = append(doc.Tests, toJSONTest(t.FullName(), r))
	}
	return json.MarshalIndent(doc, "", "  ")
}
