package edhl7

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// ErrRead is returned when message text can't be read from its source.
// Parsing itself never fails.
var ErrRead = errors.New("read error")

var _defaultReader = &Reader{labels: defaultLabels, logger: zap.NewNop()}

// lineEndings converts CRLF and bare LF to the HL7 segment terminator
var lineEndings = strings.NewReplacer(
	"\r\n", string(segmentTerminator),
	"\n", string(segmentTerminator),
)

// isFraming reports whether c is trimmed from the ends of a message or
// segment: unicode whitespace plus the \x1c-\x1f separators, which covers
// MLLP start and end block bytes (\x0b, \x1c)
func isFraming(c rune) bool {
	return unicode.IsSpace(c) || (c >= 0x1c && c <= 0x1f)
}

// Parse splits the given message text into segments using the default
// Reader.
func Parse(text string) *ParseResult {
	return _defaultReader.Parse(text)
}

// Read parses the given byte slice using the default Reader.
func Read(data []byte) *ParseResult {
	return _defaultReader.Read(data)
}

// ReadFrom reads all of r and parses it using the default Reader.
func ReadFrom(r io.Reader) (*ParseResult, error) {
	return _defaultReader.ReadFrom(r)
}

// Reader parses HL7 message text into ParseResult instances. A Reader is
// not modified after NewReader returns, so it can be shared between
// goroutines.
type Reader struct {
	labels *LabelTable
	logger *zap.Logger
}

// ReaderOption configures a Reader
type ReaderOption func(r *Reader)

// WithLogger sets the logger used to report parse statistics at debug level
func WithLogger(logger *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLabels merges the given label table over the Reader's current
// table, with the given table taking precedence
func WithLabels(labels *LabelTable) ReaderOption {
	return func(r *Reader) {
		r.labels = r.labels.Merge(labels)
	}
}

// WithoutDefaultLabels clears the built-in label table. Options applied
// after it start from an empty table.
func WithoutDefaultLabels() ReaderOption {
	return func(r *Reader) {
		r.labels = emptyLabels
	}
}

// NewReader creates a Reader using the default label table, modified by
// the given options
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{labels: defaultLabels, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Labels returns the label table used to label fields of parsed segments
func (r *Reader) Labels() *LabelTable {
	if r.labels == nil {
		return defaultLabels
	}
	return r.labels
}

// LabelFor returns the label for the given segment name and 1-based field
// number from the Reader's label table, or an empty string
func (r *Reader) LabelFor(segmentName string, fieldNumber int) string {
	return r.Labels().Label(segmentName, fieldNumber)
}

// Parse splits text into segments. Line endings are normalized to the
// segment terminator, and lines that are empty after trimming whitespace
// and MLLP framing bytes are dropped without consuming an index.
func (r *Reader) Parse(text string) *ParseResult {
	result := &ParseResult{Segments: []*Segment{}, labels: r.labels}
	logger := r.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	text = strings.TrimFunc(text, isFraming)
	if text == "" {
		logger.Debug("parsed empty message")
		return result
	}

	lines := strings.Split(lineEndings.Replace(text), string(segmentTerminator))
	result.Segments = make([]*Segment, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimFunc(line, isFraming)
		if line == "" {
			result.dropped++
			continue
		}
		result.Segments = append(
			result.Segments,
			newSegment(len(result.Segments), line, r.labels),
		)
	}

	logger.Debug(
		"parsed message",
		zap.Int("segments", len(result.Segments)),
		zap.Int("blankLines", result.dropped),
		zap.Bool("header", result.Segment(0).IsHeader()),
	)
	return result
}

// Read parses the given byte slice
func (r *Reader) Read(data []byte) *ParseResult {
	return r.Parse(string(data))
}

// ReadFrom reads all of src and parses it. The only errors returned are
// those from reading src, wrapped with ErrRead.
func (r *Reader) ReadFrom(src io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return r.Read(data), nil
}
