package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion of the Volcengine binary WebSocket framing.
const ProtocolVersion = 0b0001

// MessageType is the 4-bit frame type.
type MessageType uint8

const (
	FullClientRequest       MessageType = 0b0001
	AudioOnlyRequest        MessageType = 0b0010
	FullServerResponse      MessageType = 0b1001
	AudioOnlyServerResponse MessageType = 0b1011
	ErrorMessage            MessageType = 0b1111
)

// MessageFlags is the 4-bit frame flag nibble.
type MessageFlags uint8

const (
	NoSequenceNumber       MessageFlags = 0b0000
	PositiveSequenceNumber MessageFlags = 0b0001
	LastPacketNoSequence   MessageFlags = 0b0010
	// NegativeSequenceNumber marks the last packet and carries a sequence.
	NegativeSequenceNumber MessageFlags = 0b0011
	WithEvent              MessageFlags = 0b0100
)

// EventType is the optional event code carried by WithEvent frames.
type EventType int32

const (
	EventTypeNone               EventType = 0
	EventTypeStartConnection    EventType = 1
	EventTypeFinishConnection   EventType = 2
	EventTypeConnectionStarted  EventType = 50
	EventTypeConnectionFailed   EventType = 51
	EventTypeConnectionFinished EventType = 52
	EventTypeSessionStarted     EventType = 150
	EventTypeSessionFinished    EventType = 152
	EventTypeSessionFailed      EventType = 153
)

// SerializationMethod is the 4-bit payload serialization nibble.
type SerializationMethod uint8

const (
	NoSerialization     SerializationMethod = 0b0000
	JSONSerialization   SerializationMethod = 0b0001
	CustomSerialization SerializationMethod = 0b1111
)

// CompressionMethod is the 4-bit payload compression nibble.
type CompressionMethod uint8

const (
	NoCompression     CompressionMethod = 0b0000
	GzipCompression   CompressionMethod = 0b0001
	CustomCompression CompressionMethod = 0b1111
)

// Header is the fixed 4-byte frame header.
type Header struct {
	ProtocolVersion     uint8
	HeaderSize          uint8 // in 4-byte words
	MessageType         MessageType
	MessageFlags        MessageFlags
	SerializationMethod SerializationMethod
	CompressionMethod   CompressionMethod
	Reserved            uint8
}

// Message is one decoded frame.
type Message struct {
	Header      Header
	Sequence    int32
	EventType   EventType
	SessionID   string
	ConnectID   string
	ErrorCode   uint32
	PayloadSize uint32
	Payload     []byte
}

// NewHeader builds a one-word header.
func NewHeader(msgType MessageType, flags MessageFlags, serialization SerializationMethod, compression CompressionMethod) Header {
	return Header{
		ProtocolVersion:     ProtocolVersion,
		HeaderSize:          0b0001,
		MessageType:         msgType,
		MessageFlags:        flags,
		SerializationMethod: serialization,
		CompressionMethod:   compression,
	}
}

// Encode packs the header into 4 bytes.
func (h *Header) Encode() []byte {
	return []byte{
		(h.ProtocolVersion << 4) | h.HeaderSize,
		(uint8(h.MessageType) << 4) | uint8(h.MessageFlags),
		(uint8(h.SerializationMethod) << 4) | uint8(h.CompressionMethod),
		h.Reserved,
	}
}

// DecodeHeader unpacks a 4-byte header.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("header data too short: got %d, need 4", len(data))
	}

	header := &Header{
		ProtocolVersion:     (data[0] >> 4) & 0x0F,
		HeaderSize:          data[0] & 0x0F,
		MessageType:         MessageType((data[1] >> 4) & 0x0F),
		MessageFlags:        MessageFlags(data[1] & 0x0F),
		SerializationMethod: SerializationMethod((data[2] >> 4) & 0x0F),
		CompressionMethod:   CompressionMethod(data[2] & 0x0F),
		Reserved:            data[3],
	}

	if header.ProtocolVersion != ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", header.ProtocolVersion)
	}

	return header, nil
}

func (m *Message) hasSequence() bool {
	switch m.Header.MessageFlags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		return true
	default:
		return false
	}
}

func (m *Message) hasEvent() bool {
	return m.Header.MessageFlags&WithEvent == WithEvent
}

// EncodeMessage serializes a frame. All integers are big-endian.
func EncodeMessage(msg *Message) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.Write(msg.Header.Encode())

	if msg.hasSequence() {
		writeUint32(buf, uint32(msg.Sequence))
	}

	if msg.hasEvent() {
		writeUint32(buf, uint32(msg.EventType))
		if !eventSkipsSessionID(msg.EventType) {
			writeSized(buf, msg.SessionID)
		}
		if eventHasConnectID(msg.EventType) {
			writeSized(buf, msg.ConnectID)
		}
	}

	if msg.Header.MessageType == ErrorMessage {
		writeUint32(buf, msg.ErrorCode)
	}

	writeUint32(buf, msg.PayloadSize)
	buf.Write(msg.Payload)

	return buf.Bytes(), nil
}

// DecodeMessage parses one frame from reader.
func DecodeMessage(reader io.Reader) (*Message, error) {
	headerBytes := make([]byte, 4)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header, err := DecodeHeader(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	msg := &Message{Header: *header}

	if extra := int(header.HeaderSize)*4 - 4; extra > 0 {
		if _, err := io.CopyN(io.Discard, reader, int64(extra)); err != nil {
			return nil, fmt.Errorf("failed to read extended header: %w", err)
		}
	}

	if msg.hasSequence() {
		seq, err := readUint32(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read sequence: %w", err)
		}
		msg.Sequence = int32(seq)
	}

	if msg.hasEvent() {
		event, err := readUint32(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read event type: %w", err)
		}
		msg.EventType = EventType(int32(event))

		if !eventSkipsSessionID(msg.EventType) {
			if msg.SessionID, err = readSized(reader); err != nil {
				return nil, fmt.Errorf("failed to read session id: %w", err)
			}
		}
		if eventHasConnectID(msg.EventType) {
			if msg.ConnectID, err = readSized(reader); err != nil {
				return nil, fmt.Errorf("failed to read connect id: %w", err)
			}
		}
	}

	if header.MessageType == ErrorMessage {
		if msg.ErrorCode, err = readUint32(reader); err != nil {
			return nil, fmt.Errorf("failed to read error code: %w", err)
		}
	}

	if msg.PayloadSize, err = readUint32(reader); err != nil {
		return nil, fmt.Errorf("failed to read payload size: %w", err)
	}

	if msg.PayloadSize > 0 {
		msg.Payload = make([]byte, msg.PayloadSize)
		if _, err := io.ReadFull(reader, msg.Payload); err != nil {
			return nil, fmt.Errorf("failed to read payload (expected %d bytes): %w", msg.PayloadSize, err)
		}
	}

	return msg, nil
}

// CreateFullClientRequest wraps a JSON request payload.
func CreateFullClientRequest(payload []byte, compression CompressionMethod) *Message {
	return &Message{
		Header:      NewHeader(FullClientRequest, NoSequenceNumber, JSONSerialization, compression),
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	}
}

func eventSkipsSessionID(event EventType) bool {
	switch event {
	case EventTypeStartConnection, EventTypeFinishConnection,
		EventTypeConnectionStarted, EventTypeConnectionFailed,
		EventTypeConnectionFinished:
		return true
	default:
		return false
	}
}

func eventHasConnectID(event EventType) bool {
	switch event {
	case EventTypeConnectionStarted, EventTypeConnectionFailed, EventTypeConnectionFinished:
		return true
	default:
		return false
	}
}

// IsLastPacket reports whether the frame closes the stream.
func (m *Message) IsLastPacket() bool {
	switch m.Header.MessageFlags & 0b0011 {
	case LastPacketNoSequence, NegativeSequenceNumber:
		return true
	default:
		return false
	}
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeSized(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(reader io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(reader, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readSized(reader io.Reader) (string, error) {
	size, err := readUint32(reader)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return "", err
	}
	return string(data), nil
}
