package report

import (
	"strings"
	"testing"

	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

func newTest(suite *littest.TestSuite, name string, code littest.ResultCode, output string) *littest.Test {
	t := &littest.Test{Suite: suite, PathInSuite: []string{name}, Config: suite.Config}
	t.SetResult(littest.NewResult(code, output))
	return t
}

func TestJUnitEscaping(t *testing.T) {
	cfg := litconfig.NewTestingConfig("my.suite")
	suite := littest.NewTestSuite("my.suite", "/src", "/exec", cfg)
	tc := newTest(suite, "a", littest.FAIL, "before ]]> after")

	out, err := BuildJUnit([]*littest.TestSuite{suite}, map[int64][]*littest.Test{suite.ID: {tc}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "]]]]><![CDATA[>") {
		t.Errorf("missing escaped CDATA terminator: %s", s)
	}
	if !strings.Contains(s, `classname="my_suite"`) {
		t.Errorf("missing underscore-substituted classname: %s", s)
	}
}

func TestWriteSummaryQuietSuppression(t *testing.T) {
	cfg := litconfig.NewTestingConfig("s")
	suite := littest.NewTestSuite("s", "/src", "/exec", cfg)
	tests := []*littest.Test{
		newTest(suite, "a", littest.PASS, ""),
		newTest(suite, "b", littest.FAIL, ""),
	}

	var sb strings.Builder
	WriteSummary(&sb, tests, true)
	out := sb.String()
	if strings.Contains(out, "Expected Passes") {
		t.Errorf("quiet summary should suppress non-failure lines: %s", out)
	}
	if !strings.Contains(out, "Unexpected Failures: 1") {
		t.Errorf("quiet summary should still show failures: %s", out)
	}
}

func TestWriteGroupedListingOrder(t *testing.T) {
	cfg := litconfig.NewTestingConfig("s")
	suite := littest.NewTestSuite("s", "/src", "/exec", cfg)
	tests := []*littest.Test{
		newTest(suite, "a", littest.FAIL, ""),
		newTest(suite, "b", littest.XPASS, ""),
	}
	var sb strings.Builder
	WriteGroupedListing(&sb, tests)
	out := sb.String()
	xpassIdx := strings.Index(out, "XPASS")
	failIdx := strings.Index(out, "Failing Tests")
	if xpassIdx < 0 || failIdx < 0 || xpassIdx > failIdx {
		t.Errorf("want XPASS section before FAIL section, got: %s", out)
	}
}
