package protocol

// Size limits enforced while decoding. A value above any of them is
// malformed no matter how many bytes follow it.
const (
	// MaxBitStringSize bounds the bit length of a byte string and the byte
	// length of a parameter value.
	MaxBitStringSize = 8192

	// MaxParameters bounds the number of entries in a parameter list.
	MaxParameters = 16

	// MaxVersions bounds the number of versions a client may offer.
	MaxVersions = 16

	// MaxTupleItems bounds the number of items in a tuple.
	MaxTupleItems = 32

	// MaxVersion is the largest version number the protocol can carry.
	MaxVersion = 1<<32 - 1
)

// Object status codes. Status is on the wire only for objects with an empty
// payload.
const (
	ObjectStatusNormal              = 0x0
	ObjectStatusDoesNotExist        = 0x1
	ObjectStatusEndOfGroupNoSuchGrp = 0x2
	ObjectStatusEndOfGroup          = 0x3
	ObjectStatusEndOfTrackAndGroup  = 0x4

	MaxObjectStatus = ObjectStatusEndOfTrackAndGroup
)

// Track status codes carried by TrackStatus.
const (
	TrackStatusInProgress = 0x00
	TrackStatusNotExist   = 0x01
	TrackStatusNotBegun   = 0x02
	TrackStatusFinished   = 0x03
	MaxTrackStatus        = TrackStatusFinished
)
