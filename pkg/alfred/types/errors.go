package types

import "errors"

var (
	// ErrTruncated is returned when a buffer is shorter than the fixed
	// header or fixed body prefix being decoded.
	ErrTruncated = errors.New("alfred: frame truncated")

	// ErrLengthMismatch is returned when fewer bytes were received than
	// the header's length field promises.
	ErrLengthMismatch = errors.New("alfred: frame length mismatch")

	// ErrUnsupportedVersion is returned when a frame's version does not
	// match the pinned ALFRED_VERSION.
	ErrUnsupportedVersion = errors.New("alfred: unsupported protocol version")

	// ErrUnknownFrameType is returned for frame types above the known
	// range; such frames are dropped, never processed.
	ErrUnknownFrameType = errors.New("alfred: unknown frame type")

	// ErrPayloadTooLarge is returned when a dataset payload does not fit
	// in the 16-bit on-wire length field.
	ErrPayloadTooLarge = errors.New("alfred: payload too large to encode")

	// ErrFrameTooLarge is returned by encoders when the assembled frame
	// would exceed MaxPayload.
	ErrFrameTooLarge = errors.New("alfred: frame exceeds max payload")

	// ErrNotEUI64 is returned when an IPv6 source address does not carry
	// an EUI-64 link-local interface identifier.
	ErrNotEUI64 = errors.New("alfred: source address is not EUI-64 link-local")

	// ErrOwnAddress is returned when a frame's sender matches one of our
	// own interface addresses.
	ErrOwnAddress = errors.New("alfred: frame originated from our own address")

	// ErrResolveFailed is returned when a sender IP cannot be mapped to a
	// hardware address.
	ErrResolveFailed = errors.New("alfred: failed to resolve sender mac")
)
