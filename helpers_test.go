package edhl7

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const scenarioMessage = "MSH|^~\\&|SENDER|RECV\rPID|1|Doe^John|19800101"

// joinSegments joins the given lines using the given line ending, so
// fixtures can be written one segment per Go string
func joinSegments(t *testing.T, lineEnding string, lines ...string) string {
	t.Helper()
	return strings.Join(lines, lineEnding)
}

func assertEqual[V comparable](t *testing.T, val V, expected V) {
	t.Helper()
	if val != expected {
		t.Errorf("expected:\n%#v\n\ngot:\n%#v", expected, val)
	}
}

// assertDiff fails the test if want and got aren't structurally equal
func assertDiff(t *testing.T, want any, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// segmentShape reduces segments to the parts that should be stable
// across parses of the same text
type segmentShape struct {
	Index  int
	Name   string
	Fields []string
}

func shapeOf(t *testing.T, result *ParseResult) []segmentShape {
	t.Helper()
	shapes := make([]segmentShape, 0, result.Len())
	for _, seg := range result.Segments {
		shapes = append(
			shapes,
			segmentShape{Index: seg.Index, Name: seg.Name, Fields: seg.Fields},
		)
	}
	return shapes
}

// adtMessage fixture is the HL7 v2.5.1 ADT^A01 example message, with
// one blank line inserted before PV1
func adtMessage(t *testing.T) []byte {
	t.Helper()
	file, err := os.ReadFile("testdata/adt_a01.hl7")
	require.NoError(t, err)
	return file
}

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
