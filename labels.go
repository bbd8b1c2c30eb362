package edhl7

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidLabel is wrapped by LabelError for label table entries that
// can't be addressed by a segment name and 1-based field number
var ErrInvalidLabel = errors.New("invalid label")

//go:embed labels.yaml
var defaultLabelsYAML string

var (
	defaultLabels = mustLoadLabels(defaultLabelsYAML)
	emptyLabels   = &LabelTable{segments: map[string]map[int]string{}}
)

// LabelError references the label table entry that failed to load
type LabelError struct {
	Segment string
	Field   int
	Err     error
}

func (e *LabelError) Error() string {
	var b strings.Builder
	if e.Segment != "" {
		_, _ = fmt.Fprintf(&b, "segment: '%s' ", e.Segment)
	}
	if e.Field != 0 {
		_, _ = fmt.Fprintf(&b, "field: %d ", e.Field)
	}
	bs := strings.TrimSpace(b.String())
	if bs == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("[%s]: %s", bs, e.Err)
}

func (e *LabelError) Unwrap() error {
	return e.Err
}

// LabelTable maps a segment name and 1-based field number to a
// human-readable field description. A LabelTable is never modified once
// created, so it can be shared freely.
type LabelTable struct {
	segments map[string]map[int]string
}

// DefaultLabels returns the built-in label table
func DefaultLabels() *LabelTable {
	return defaultLabels
}

// LabelFor returns the built-in label for the given segment name and
// 1-based field number, or an empty string if there isn't one
func LabelFor(segmentName string, fieldNumber int) string {
	return defaultLabels.Label(segmentName, fieldNumber)
}

// Label returns the label for the given segment name and 1-based field
// number, or an empty string if there isn't one
func (t *LabelTable) Label(segmentName string, fieldNumber int) string {
	if t == nil || fieldNumber < 1 {
		return ""
	}
	return t.segments[segmentName][fieldNumber]
}

// Len returns the number of labeled fields across all segments
func (t *LabelTable) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, fields := range t.segments {
		n += len(fields)
	}
	return n
}

// SegmentNames returns the sorted names of segments with at least one label
func (t *LabelTable) SegmentNames() []string {
	if t == nil {
		return []string{}
	}
	names := make([]string, 0, len(t.segments))
	for name, fields := range t.segments {
		if len(fields) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Merge returns a new LabelTable containing the labels of both tables.
// Labels in other replace labels in t for the same segment and field.
func (t *LabelTable) Merge(other *LabelTable) *LabelTable {
	merged := &LabelTable{segments: map[string]map[int]string{}}
	for _, src := range []*LabelTable{t, other} {
		if src == nil {
			continue
		}
		for name, fields := range src.segments {
			if merged.segments[name] == nil {
				merged.segments[name] = make(map[int]string, len(fields))
			}
			for number, label := range fields {
				merged.segments[name][number] = label
			}
		}
	}
	return merged
}

// LoadLabels decodes a YAML label table from r. The document maps segment
// names to maps of 1-based field numbers to labels:
//
//	PID:
//	  3: Patient Identifier List
//	  5: Patient Name
func LoadLabels(r io.Reader) (*LabelTable, error) {
	var raw map[string]map[int]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return emptyLabels, nil
		}
		return nil, fmt.Errorf("decoding labels: %w", err)
	}
	return newLabelTable(raw)
}

func newLabelTable(raw map[string]map[int]string) (*LabelTable, error) {
	table := &LabelTable{segments: make(map[string]map[int]string, len(raw))}
	var errs []error
	for name, fields := range raw {
		if strings.TrimSpace(name) == "" {
			errs = append(
				errs,
				&LabelError{Err: fmt.Errorf("%w: empty segment name", ErrInvalidLabel)},
			)
			continue
		}
		if strings.TrimSpace(name) != name {
			errs = append(
				errs,
				&LabelError{
					Segment: name,
					Err: fmt.Errorf(
						"%w: segment name has surrounding whitespace",
						ErrInvalidLabel,
					),
				},
			)
			continue
		}
		segLabels := make(map[int]string, len(fields))
		for number, label := range fields {
			if number < 1 {
				errs = append(
					errs,
					&LabelError{
						Segment: name,
						Field:   number,
						Err: fmt.Errorf(
							"%w: field numbers start at 1",
							ErrInvalidLabel,
						),
					},
				)
				continue
			}
			segLabels[number] = label
		}
		table.segments[name] = segLabels
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

func mustLoadLabels(doc string) *LabelTable {
	table, err := LoadLabels(strings.NewReader(doc))
	if err != nil {
		panic(fmt.Sprintf("unable to load default labels: %s", err.Error()))
	}
	return table
}
