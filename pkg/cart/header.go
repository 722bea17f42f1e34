package cart

import (
	"bytes"
	"encoding/binary"
	"io"
)

// HeaderLen is the fixed, unencrypted prefix of every CaRT stream:
// magic(4) + version(2) + reserved(8) + key(16) + opt_header_len(8).
const HeaderLen = 38

var headerMagic = []byte("CART")

// DefaultKey is the well-known default CaRT RC4 key (the digits of
// pi), used whenever a caller does not supply one of its own.
var DefaultKey = [16]byte{
	0x03, 0x01, 0x04, 0x01, 0x05, 0x09, 0x02, 0x06,
	0x03, 0x01, 0x04, 0x01, 0x05, 0x09, 0x02, 0x06,
}

// Header is the fixed-size, plaintext preamble of a CaRT stream. The
// RC4 key it carries encrypts everything between the header and the
// footer.
type Header struct {
	Version      int16
	Reserved     uint64
	Key          [16]byte
	OptHeaderLen uint64
}

// WriteHeader serializes h to w in CaRT's fixed little-endian layout.
func WriteHeader(w io.Writer, h Header) error {
	var buf bytes.Buffer
	buf.Grow(HeaderLen)
	buf.Write(headerMagic)
	binary.Write(&buf, binary.LittleEndian, h.Version)
	binary.Write(&buf, binary.LittleEndian, h.Reserved)
	buf.Write(h.Key[:])
	binary.Write(&buf, binary.LittleEndian, h.OptHeaderLen)
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadHeader reads and validates a Header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [HeaderLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Header{}, ErrShortStream
		}
		return Header{}, err
	}
	if !bytes.Equal(raw[:4], headerMagic) {
		return Header{}, ErrInvalidHeader
	}
	var h Header
	h.Version = int16(binary.LittleEndian.Uint16(raw[4:6]))
	h.Reserved = binary.LittleEndian.Uint64(raw[6:14])
	copy(h.Key[:], raw[14:30])
	h.OptHeaderLen = binary.LittleEndian.Uint64(raw[30:38])
	return h, nil
}
