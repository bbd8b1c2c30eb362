package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessage = "MSH|^~\\&|SENDER|RECV\r\nPID|1|Doe^John|19800101\r\n"

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestListSegments(t *testing.T) {
	out, err := runCmd(t, testMessage)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"#", "SEGMENT", "FIELDS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "MSH", "4"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "PID", "3"}, strings.Fields(lines[2]))
}

func TestListFields(t *testing.T) {
	out, err := runCmd(t, testMessage, "-s", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "PID.2")
	assert.Contains(t, out, "Patient ID")
	assert.Contains(t, out, "Doe^John")
	assert.Contains(t, out, "PID.3")
}

func TestListComponents(t *testing.T) {
	out, err := runCmd(t, testMessage, "--segment", "2", "--field", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"1", "Doe"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "John"}, strings.Fields(lines[2]))
}

func TestFieldOutOfRange(t *testing.T) {
	_, err := runCmd(t, testMessage, "-s", "2", "-f", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PID has no field 9")

	_, err = runCmd(t, testMessage, "-s", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no segment 5")

	_, err = runCmd(t, testMessage, "-f", "1")
	require.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	out, err := runCmd(t, testMessage, "--json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "header")
	segments, ok := decoded["segments"].([]any)
	require.True(t, ok)
	assert.Len(t, segments, 2)
}

func TestLabelsOverlay(t *testing.T) {
	labels := writeFile(t, "labels.yaml", "PID:\n  2: Legacy Patient ID\n")
	out, err := runCmd(t, testMessage, "--labels", labels, "-s", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Legacy Patient ID")

	bad := writeFile(t, "bad.yaml", "PID:\n  0: Nothing\n")
	_, err = runCmd(t, testMessage, "--labels", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid label")
}

func TestMultipleFiles(t *testing.T) {
	first := writeFile(t, "a.hl7", testMessage)
	second := writeFile(t, "b.hl7", "EVN|A01\r")
	out, err := runCmd(t, "", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "==> "+first+" <==")
	assert.Contains(t, out, "==> "+second+" <==")
	assert.Contains(t, out, "EVN")
}

func TestMissingFile(t *testing.T) {
	_, err := runCmd(t, "", filepath.Join(t.TempDir(), "missing.hl7"))
	require.Error(t, err)
}

func TestEmptyInput(t *testing.T) {
	out, err := runCmd(t, "  \r\n ")
	require.NoError(t, err)
	assert.Equal(t, []string{"#", "SEGMENT", "FIELDS"}, strings.Fields(out))
}
