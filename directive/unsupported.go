package directive

import (
	"github.com/tmc/lit/boolexpr"
	"github.com/tmc/lit/littest"
)

// Unsupported decides whether a test should be skipped before
// execution, per spec §4.6: an unmet REQUIRES, a matched UNSUPPORTED,
// or (when limitToFeatures is non-empty) no REQUIRES expression true
// under the limited feature set. The returned reasons are the
// offending expressions (or, in the limit_to_features case, a short
// explanation), suitable for a "Skipping because of: ..." report
// message.
func Unsupported(d *Directives, available, limitToFeatures map[string]bool, triple string) (bool, []string, error) {
	var unmet []string
	for _, req := range d.Requires {
		ok, err := boolexpr.Evaluate(req, available, triple)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			unmet = append(unmet, req)
		}
	}
	if len(unmet) > 0 {
		return true, unmet, nil
	}

	for _, u := range d.Unsupported {
		ok, err := boolexpr.Evaluate(u, available, triple)
		if err != nil {
			return false, nil, err
		}
		if ok {
			return true, []string{u}, nil
		}
	}

	if len(limitToFeatures) > 0 {
		anyTrue := false
		for _, req := range d.Requires {
			ok, err := boolexpr.Evaluate(req, limitToFeatures, triple)
			if err != nil {
				return false, nil, err
			}
			if ok {
				anyTrue = true
				break
			}
		}
		if !anyTrue {
			return true, []string{"no REQUIRES satisfied by limit_to_features"}, nil
		}
	}

	return false, nil, nil
}

// RemapXFail applies the XFAIL -> XPASS/XFAIL remap, per spec §4.6: a
// PASS under a matched XFAIL becomes XPASS, a FAIL becomes XFAIL. A
// bare "*" unconditionally matches. Codes other than PASS/FAIL are
// returned unchanged.
func RemapXFail(code littest.ResultCode, xfails []string, available map[string]bool, triple string) (littest.ResultCode, error) {
	matched := false
	for _, x := range xfails {
		if x == "*" {
			matched = true
			break
		}
		ok, err := boolexpr.Evaluate(x, available, triple)
		if err != nil {
			return code, err
		}
		if ok {
			matched = true
			break
		}
	}
	if !matched {
		return code, nil
	}
	switch code {
	case littest.PASS:
		return littest.XPASS, nil
	case littest.FAIL:
		return littest.XFAIL, nil
	default:
		return code, nil
	}
}
