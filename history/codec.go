package history

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jj11hh/opus"
)

const (
	codecRate  = 16000
	frameSize  = codecRate / 50 // 20 ms
	maxPacket  = 1275
	codecMagic = "VXO1"
)

var ErrCorruptAudio = errors.New("corrupt audio blob")

// EncodeAudio compresses 16 kHz mono samples into a sequence of
// length-prefixed Opus packets. The last frame is zero padded; the original
// sample count is kept in the header.
func EncodeAudio(samples []float32) ([]byte, error) {
	enc, err := opus.NewEncoder(codecRate, 1, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(codecMagic)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))

	frame := make([]float32, frameSize)
	packet := make([]byte, maxPacket)
	for off := 0; off < len(samples); off += frameSize {
		n := copy(frame, samples[off:])
		clear(frame[n:])

		size, err := enc.EncodeFloat32(frame, packet)
		if err != nil {
			return nil, fmt.Errorf("encode frame at %d: %w", off, err)
		}
		_ = binary.Write(&buf, binary.LittleEndian, uint16(size))
		buf.Write(packet[:size])
	}
	return buf.Bytes(), nil
}

// DecodeAudio reverses EncodeAudio.
func DecodeAudio(data []byte) ([]float32, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(codecMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != codecMagic {
		return nil, ErrCorruptAudio
	}
	var total uint32
	if err := binary.Read(r, binary.LittleEndian, &total); err != nil {
		return nil, ErrCorruptAudio
	}

	dec, err := opus.NewDecoder(codecRate, 1)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}

	out := make([]float32, 0, int(total)+frameSize)
	frame := make([]float32, frameSize)
	packet := make([]byte, maxPacket)
	for len(out) < int(total) {
		var size uint16
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("%w: truncated at sample %d", ErrCorruptAudio, len(out))
		}
		if int(size) > maxPacket {
			return nil, fmt.Errorf("%w: packet of %d bytes", ErrCorruptAudio, size)
		}
		if _, err := io.ReadFull(r, packet[:size]); err != nil {
			return nil, fmt.Errorf("%w: truncated packet", ErrCorruptAudio)
		}

		n, err := dec.DecodeFloat32(packet[:size], frame)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		out = append(out, frame[:n]...)
	}
	return out[:total], nil
}
