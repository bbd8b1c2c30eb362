// Package edhl7 decomposes pipe-delimited HL7v2 message text into
// segments, fields and components.
//
// Parsing never fails: blank lines are dropped, a segment other than MSH
// without a field separator has no fields, and a field without a component separator is a
// single component. Field numbers follow the HL7 convention, where MSH-1 is
// the field separator itself and MSH-2 is the encoding characters.
package edhl7

import (
	"encoding/json"
	"strings"
)

// Segment is a single line of an HL7 message
type Segment struct {
	// Index is the position of the segment among the non-blank lines of
	// the message, zero-indexed.
	Index int `json:"index"`
	// Name is the segment type code (MSH, PID, OBX, ...). It is not
	// checked against a set of known codes.
	Name string `json:"name"`
	// RawText is the trimmed, unsplit segment line
	RawText string `json:"raw"`
	// Fields holds the segment's field values. Fields[0] is field 1.
	Fields []string `json:"fields"`
	labels *LabelTable
}

// Field is a single field value of a segment, addressed by its
// 1-based field number
type Field struct {
	SegmentIndex int    `json:"segmentIndex"`
	Number       int    `json:"number"`
	Value        string `json:"value"`
	Label        string `json:"label,omitempty"`
}

// Component is a sub-value of a field, addressed by its 1-based index
type Component struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// Components splits the field value on the component separator
func (f Field) Components() []Component {
	return newComponents(SplitComponents(f.Value))
}

func newComponents(values []string) []Component {
	components := make([]Component, 0, len(values))
	for i, v := range values {
		components = append(components, Component{Index: i + 1, Value: v})
	}
	return components
}

// newSegment splits line on the field separator. For MSH segments, the
// field separator is inserted as field 1, which shifts the encoding
// characters to field 2 and every following field by one.
func newSegment(index int, line string, labels *LabelTable) *Segment {
	tokens := strings.Split(line, string(fieldSeparator))
	seg := &Segment{
		Index:   index,
		Name:    tokens[0],
		RawText: line,
		labels:  labels,
	}
	if seg.Name == mshSegmentId {
		seg.Fields = make([]string, 0, len(tokens))
		seg.Fields = append(seg.Fields, string(fieldSeparator))
	} else {
		seg.Fields = make([]string, 0, len(tokens)-1)
	}
	seg.Fields = append(seg.Fields, tokens[1:]...)
	return seg
}

// Len returns the number of fields in the segment
func (s *Segment) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// DisplayIndex returns the segment's 1-based position in the message,
// or 0 for a nil segment
func (s *Segment) DisplayIndex() int {
	if s == nil {
		return 0
	}
	return s.Index + 1
}

// IsHeader reports whether the segment is an MSH message header
func (s *Segment) IsHeader() bool {
	return s != nil && s.Name == mshSegmentId
}

// FieldValue returns the value of the given 1-based field number, or an
// empty string if the segment has no such field
func (s *Segment) FieldValue(number int) string {
	if number < 1 || number > s.Len() {
		return ""
	}
	return s.Fields[number-1]
}

// Field returns the given 1-based field, labeled from the label table
// the segment was parsed with. The second return value is false if the
// segment has no such field.
func (s *Segment) Field(number int) (Field, bool) {
	if number < 1 || number > s.Len() {
		return Field{}, false
	}
	return Field{
		SegmentIndex: s.Index,
		Number:       number,
		Value:        s.Fields[number-1],
		Label:        s.labelTable().Label(s.Name, number),
	}, true
}

// LabeledFields returns every field of the segment, in order, with its
// field number and label
func (s *Segment) LabeledFields() []Field {
	fields := make([]Field, 0, s.Len())
	for i := 1; i <= s.Len(); i++ {
		f, _ := s.Field(i)
		fields = append(fields, f)
	}
	return fields
}

// Components returns the numbered components of the given 1-based field.
// The result is empty if the segment has no such field.
func (s *Segment) Components(number int) []Component {
	return newComponents(ComponentsOf(s, number))
}

func (s *Segment) labelTable() *LabelTable {
	if s.labels == nil {
		return defaultLabels
	}
	return s.labels
}

// ComponentsOf returns the component values of the given 1-based field of
// seg. An empty slice is returned if seg is nil or doesn't have the field.
func ComponentsOf(seg *Segment, fieldNumber int) []string {
	if fieldNumber < 1 || fieldNumber > seg.Len() {
		return []string{}
	}
	return SplitComponents(seg.Fields[fieldNumber-1])
}

// SplitComponents splits a field value on the component separator. A value
// without a component separator, including an empty value, is returned as
// a single component.
func SplitComponents(value string) []string {
	if !strings.ContainsRune(value, componentSeparator) {
		return []string{value}
	}
	return strings.Split(value, string(componentSeparator))
}

// ParseResult holds the segments of a parsed message. Each parse produces
// a new ParseResult; nothing is shared between results except the
// read-only label table.
type ParseResult struct {
	Segments []*Segment
	labels   *LabelTable
	// dropped is the number of blank lines skipped while splitting
	dropped int
}

// Len returns the number of segments
func (p *ParseResult) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Segments)
}

// Segment returns the segment at the given 0-based index, or nil
func (p *ParseResult) Segment(index int) *Segment {
	if index < 0 || index >= p.Len() {
		return nil
	}
	return p.Segments[index]
}

// SegmentsWithName returns all segments with the given name, in
// message order
func (p *ParseResult) SegmentsWithName(name string) []*Segment {
	var segments []*Segment
	if p == nil {
		return segments
	}
	for _, seg := range p.Segments {
		if seg.Name == name {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Labels returns the label table the message was parsed with
func (p *ParseResult) Labels() *LabelTable {
	if p == nil || p.labels == nil {
		return defaultLabels
	}
	return p.labels
}

// MessageHeader is the MSH segment of a message, mapped by field number
type MessageHeader struct {
	FieldSeparator       string `json:"fieldSeparator"`       // MSH-1
	EncodingCharacters   string `json:"encodingCharacters"`   // MSH-2
	SendingApplication   string `json:"sendingApplication"`   // MSH-3
	SendingFacility      string `json:"sendingFacility"`      // MSH-4
	ReceivingApplication string `json:"receivingApplication"` // MSH-5
	ReceivingFacility    string `json:"receivingFacility"`    // MSH-6
	DateTime             string `json:"dateTime"`             // MSH-7
	Security             string `json:"security"`             // MSH-8
	MessageType          string `json:"messageType"`          // MSH-9
	ControlId            string `json:"controlId"`            // MSH-10
	ProcessingId         string `json:"processingId"`         // MSH-11
	VersionId            string `json:"versionId"`            // MSH-12
}

// Header returns the first segment as a MessageHeader, or nil if the
// message doesn't start with an MSH segment
func (p *ParseResult) Header() *MessageHeader {
	seg := p.Segment(0)
	if !seg.IsHeader() {
		return nil
	}
	mshSegment := make([]string, mshHeaderFieldCount, mshHeaderFieldCount)
	copy(mshSegment, seg.Fields)
	return &MessageHeader{
		mshSegment[mshIndexFieldSeparator-1],
		mshSegment[mshIndexEncodingCharacters-1],
		mshSegment[mshIndexSendingApplication-1],
		mshSegment[mshIndexSendingFacility-1],
		mshSegment[mshIndexReceivingApplication-1],
		mshSegment[mshIndexReceivingFacility-1],
		mshSegment[mshIndexDateTime-1],
		mshSegment[mshIndexSecurity-1],
		mshSegment[mshIndexMessageType-1],
		mshSegment[mshIndexControlId-1],
		mshSegment[mshIndexProcessingId-1],
		mshSegment[mshIndexVersionId-1],
	}
}

type segmentData struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	RawText string  `json:"raw"`
	Fields  []Field `json:"fields"`
}

type parseResultData struct {
	Header   *MessageHeader `json:"header,omitempty"`
	Segments []segmentData  `json:"segments"`
}

// MarshalJSON encodes the message with labeled fields, plus the
// message header if there is one
func (p *ParseResult) MarshalJSON() ([]byte, error) {
	data := parseResultData{
		Header:   p.Header(),
		Segments: make([]segmentData, 0, p.Len()),
	}
	for _, seg := range p.Segments {
		data.Segments = append(
			data.Segments, segmentData{
				Index:   seg.Index,
				Name:    seg.Name,
				RawText: seg.RawText,
				Fields:  seg.LabeledFields(),
			},
		)
	}
	return json.Marshal(data)
}
