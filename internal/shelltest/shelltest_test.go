package shelltest

import "testing"

func TestArchives(t *testing.T) {
	Test(t, "testdata/*.txtar")
}
