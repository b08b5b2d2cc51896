// Package wire implements the on-wire TLV framing for the protocol: a
// 4-byte header (type, version, big-endian length) followed by a
// type-specific body. See spec §4.1 for the exact layouts.
//
// Every integer on the wire is big-endian. Decoding never panics on
// malformed input; it returns an error, and callers are expected to drop
// the frame silently per spec §7.
package wire

import (
	"encoding/binary"

	"github.com/openmesh/alfred/pkg/alfred/types"
)

// DecodeHeader parses the fixed 4-byte frame header. It returns
// ErrTruncated if fewer than HeaderSize bytes are available, and
// ErrLengthMismatch if the declared body length does not fit in the
// remaining bytes.
func DecodeHeader(buf []byte) (types.Header, []byte, error) {
	if len(buf) < types.HeaderSize {
		return types.Header{}, nil, types.ErrTruncated
	}
	h := types.Header{
		Type:    types.FrameType(buf[0]),
		Version: buf[1],
		Length:  binary.BigEndian.Uint16(buf[2:4]),
	}
	rest := buf[types.HeaderSize:]
	if len(rest) < int(h.Length) {
		return types.Header{}, nil, types.ErrLengthMismatch
	}
	return h, rest[:h.Length], nil
}

// EncodeHeader serializes a frame header for a body of the given length.
func EncodeHeader(t types.FrameType, version uint8, bodyLen int) []byte {
	buf := make([]byte, types.HeaderSize)
	buf[0] = uint8(t)
	buf[1] = version
	binary.BigEndian.PutUint16(buf[2:4], uint16(bodyLen))
	return buf
}

// recordHeaderSize is the fixed prefix of a dataset_record: 6-byte source
// mac, 1-byte type, 1-byte version, 2-byte big-endian length.
const recordHeaderSize = 6 + 1 + 1 + 2

// DecodeDatasetRecords parses as many dataset_record entries as fit in
// buf. Per spec §4.1, when the remaining bytes fall below a record
// header the remainder is discarded silently (truncated tail tolerated) —
// this is not an error.
func DecodeDatasetRecords(buf []byte) []types.DatasetRecord {
	var records []types.DatasetRecord
	for len(buf) >= recordHeaderSize {
		var mac types.MACAddress
		copy(mac[:], buf[0:6])
		typ := buf[6]
		version := buf[7]
		length := binary.BigEndian.Uint16(buf[8:10])
		buf = buf[recordHeaderSize:]
		if len(buf) < int(length) {
			// Truncated payload tail: tolerate and stop, per §4.1.
			break
		}
		payload := make([]byte, length)
		copy(payload, buf[:length])
		buf = buf[length:]
		records = append(records, types.DatasetRecord{
			SourceMAC: mac,
			Type:      typ,
			Version:   version,
			Payload:   payload,
		})
	}
	return records
}

// EncodeDatasetRecord serializes one dataset_record. Returns
// ErrPayloadTooLarge if payload does not fit the 16-bit length field.
func EncodeDatasetRecord(rec types.DatasetRecord) ([]byte, error) {
	if len(rec.Payload) > 0xFFFF {
		return nil, types.ErrPayloadTooLarge
	}
	buf := make([]byte, recordHeaderSize+len(rec.Payload))
	copy(buf[0:6], rec.SourceMAC[:])
	buf[6] = rec.Type
	buf[7] = rec.Version
	binary.BigEndian.PutUint16(buf[8:10], uint16(len(rec.Payload)))
	copy(buf[recordHeaderSize:], rec.Payload)
	return buf, nil
}

// DecodePushData parses a PUSH_DATA body: tx_id, seqno, then repeated
// dataset_records.
func DecodePushData(body []byte) (types.PushDataBody, error) {
	if len(body) < 4 {
		return types.PushDataBody{}, types.ErrTruncated
	}
	return types.PushDataBody{
		TxID:    binary.BigEndian.Uint16(body[0:2]),
		Seqno:   binary.BigEndian.Uint16(body[2:4]),
		Records: DecodeDatasetRecords(body[4:]),
	}, nil
}

// EncodePushData serializes a PUSH_DATA frame (header + body) for the
// given tx_id, seqno and records. Returns ErrFrameTooLarge if the
// assembled frame would exceed maxPayload — callers are expected to have
// already fragmented so this should not occur in normal use.
func EncodePushData(version uint8, txID, seqno uint16, records []types.DatasetRecord, maxPayload int) ([]byte, error) {
	body := make([]byte, 4)
	binary.BigEndian.PutUint16(body[0:2], txID)
	binary.BigEndian.PutUint16(body[2:4], seqno)
	for _, rec := range records {
		encoded, err := EncodeDatasetRecord(rec)
		if err != nil {
			return nil, err
		}
		body = append(body, encoded...)
	}
	if types.HeaderSize+len(body) > maxPayload {
		return nil, types.ErrFrameTooLarge
	}
	return append(EncodeHeader(types.PushData, version, len(body)), body...), nil
}

// EncodeAnnounceMaster serializes an empty ANNOUNCE_MASTER frame.
func EncodeAnnounceMaster(version uint8) []byte {
	return EncodeHeader(types.AnnounceMaster, version, 0)
}

// DecodeRequest parses a REQUEST body: requested_type, tx_id.
func DecodeRequest(body []byte) (types.RequestBody, error) {
	if len(body) < 3 {
		return types.RequestBody{}, types.ErrTruncated
	}
	return types.RequestBody{
		RequestedType: int16(body[0]),
		TxID:          binary.BigEndian.Uint16(body[1:3]),
	}, nil
}

// EncodeRequest serializes a REQUEST frame. requestedType must be in
// [0,255]; NoFilter is never placed on the wire by this encoder — callers
// requesting "any type" use a dedicated convention agreed with the peer
// (the reference protocol has no "any" encoding on the wire for REQUEST,
// only for the internal push() filter).
func EncodeRequest(version uint8, requestedType uint8, txID uint16) []byte {
	body := make([]byte, 3)
	body[0] = requestedType
	binary.BigEndian.PutUint16(body[1:3], txID)
	return append(EncodeHeader(types.Request, version, len(body)), body...)
}

// DecodeStatusTxEnd parses a STATUS_TXEND body: tx_id, seqno.
func DecodeStatusTxEnd(body []byte) (types.StatusTxEndBody, error) {
	if len(body) < 4 {
		return types.StatusTxEndBody{}, types.ErrTruncated
	}
	return types.StatusTxEndBody{
		TxID:  binary.BigEndian.Uint16(body[0:2]),
		Seqno: binary.BigEndian.Uint16(body[2:4]),
	}, nil
}

// EncodeStatusTxEnd serializes a STATUS_TXEND frame.
func EncodeStatusTxEnd(version uint8, txID, seqno uint16) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint16(body[0:2], txID)
	binary.BigEndian.PutUint16(body[2:4], seqno)
	return append(EncodeHeader(types.StatusTxEnd, version, len(body)), body...)
}
