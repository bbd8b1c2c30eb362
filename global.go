package edhl7

const (
	mshSegmentId       = "MSH"
	fieldSeparator     = '|'
	componentSeparator = '^'
	segmentTerminator  = '\r'
)

// mshIndex* consts are the 1-based MSH field numbers, after the
// field separator has been inserted as MSH-1
const (
	mshIndexFieldSeparator = iota + 1
	mshIndexEncodingCharacters
	mshIndexSendingApplication
	mshIndexSendingFacility
	mshIndexReceivingApplication
	mshIndexReceivingFacility
	mshIndexDateTime
	mshIndexSecurity
	mshIndexMessageType
	mshIndexControlId
	mshIndexProcessingId
	mshIndexVersionId
)

// mshHeaderFieldCount is the number of MSH fields mapped onto MessageHeader
const mshHeaderFieldCount = mshIndexVersionId
