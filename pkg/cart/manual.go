package cart

import (
	"bytes"
	"compress/zlib"
	"crypto/rc4"
)

// ManualEncoder is the push-based CaRT encoder: callers hand it
// buffers one at a time as they become available and get back the
// carted bytes produced so far. It keeps exactly one buffer "on
// deck" at all times, because RC4(zlib(x)) cannot be finalized until
// the caller signals there is no more data after x — so the encoder
// always holds back the most recently pushed buffer until either
// another Push or a Finish tells it what comes next.
type ManualEncoder struct {
	key           [16]byte
	cipher        *rc4.Cipher
	zw            *zlib.Writer
	comp          bytes.Buffer
	headerWritten bool
	onDeck        []byte
	finished      bool
}

// NewManualEncoder constructs a ManualEncoder using key to seed RC4.
func NewManualEncoder(key [16]byte) *ManualEncoder {
	return &ManualEncoder{key: key}
}

func (e *ManualEncoder) ensureHeader() []byte {
	if e.headerWritten {
		return nil
	}
	var hdrBuf bytes.Buffer
	WriteHeader(&hdrBuf, Header{Version: 1, Key: e.key})
	cipher, _ := rc4.NewCipher(e.key[:])
	e.cipher = cipher
	e.zw = zlib.NewWriter(&e.comp)
	e.headerWritten = true
	return hdrBuf.Bytes()
}

func (e *ManualEncoder) drain() []byte {
	if e.comp.Len() == 0 {
		return nil
	}
	raw := append([]byte(nil), e.comp.Bytes()...)
	e.comp.Reset()
	e.cipher.XORKeyStream(raw, raw)
	return raw
}

// Push hands raw to the encoder. The buffer previously on deck (if
// any) is compressed and encrypted now; raw itself is held back until
// the next Push or Finish. Returns any carted bytes produced by this
// call (the header on the first call, plus a compressed chunk once a
// buffer has actually been processed).
func (e *ManualEncoder) Push(raw []byte) ([]byte, error) {
	if e.finished {
		return nil, ErrFinishBeforeData.WithDetails("encoder already finished")
	}
	out := e.ensureHeader()

	prev := e.onDeck
	cp := make([]byte, len(raw))
	copy(cp, raw)
	e.onDeck = cp

	if prev == nil {
		return out, nil
	}
	if _, err := e.zw.Write(prev); err != nil {
		return nil, err
	}
	if err := e.zw.Flush(); err != nil {
		return nil, err
	}
	out = append(out, e.drain()...)
	return out, nil
}

// Finish processes whatever buffer is on deck as the final chunk,
// closes the compression stream, and appends the footer. It is an
// error to call Finish before any data was ever pushed.
func (e *ManualEncoder) Finish() ([]byte, error) {
	if e.onDeck == nil {
		return nil, ErrFinishBeforeData
	}
	last := e.onDeck
	e.onDeck = nil

	if _, err := e.zw.Write(last); err != nil {
		return nil, err
	}
	if err := e.zw.Close(); err != nil {
		return nil, err
	}
	out := e.drain()

	var ftrBuf bytes.Buffer
	if err := WriteFooter(&ftrBuf, Footer{}); err != nil {
		return nil, err
	}
	out = append(out, ftrBuf.Bytes()...)
	e.finished = true
	return out, nil
}
