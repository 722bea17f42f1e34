package cart

import (
	"compress/zlib"
	"crypto/rc4"
	"io"
)

// rc4Writer XORs every byte written against an RC4 keystream before
// forwarding it, so it can sit directly underneath a zlib writer.
type rc4Writer struct {
	cipher *rc4.Cipher
	w      io.Writer
}

func (rw *rc4Writer) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	rw.cipher.XORKeyStream(buf, p)
	n, err := rw.w.Write(buf)
	if n != len(buf) && err == nil {
		err = io.ErrShortWrite
	}
	return len(p), err
}

// rc4Reader XORs every byte read against an RC4 keystream, so a
// zlib.Reader can sit directly on top of it.
type rc4Reader struct {
	cipher *rc4.Cipher
	r      io.Reader
}

func (rr *rc4Reader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if n > 0 {
		rr.cipher.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

// Encode carts the entirety of r into w: header, RC4(zlib(r)), footer.
// This is the simple one-shot API; ManualEncoder is the push-based
// equivalent for callers that only have data in increments.
func Encode(w io.Writer, r io.Reader, key [16]byte) error {
	if err := WriteHeader(w, Header{Version: 1, Key: key}); err != nil {
		return err
	}
	cipher, err := rc4.NewCipher(key[:])
	if err != nil {
		return err
	}
	zw := zlib.NewWriter(&rc4Writer{cipher: cipher, w: w})
	if _, err := io.Copy(zw, r); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return WriteFooter(w, Footer{})
}

// Decode uncarts r (header, RC4(zlib(body)), footer) into w and
// returns the footer when it can still be read from r after the body;
// otherwise it returns a zero Footer and no error. Callers that only
// need the decompressed bytes and not the footer metadata can ignore
// the return value.
func Decode(w io.Writer, r io.Reader) (Footer, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return Footer{}, err
	}
	cipher, err := rc4.NewCipher(hdr.Key[:])
	if err != nil {
		return Footer{}, err
	}
	rr := &rc4Reader{cipher: cipher, r: r}
	zr, err := zlib.NewReader(rr)
	if err != nil {
		return Footer{}, err
	}
	if _, err := io.Copy(w, zr); err != nil {
		return Footer{}, err
	}
	if err := zr.Close(); err != nil {
		return Footer{}, err
	}
	// zlib.Reader is permitted to buffer ahead of the logical stream
	// end; treat a short or malformed footer read here as informational
	// rather than fatal, since the decompressed body above is already
	// complete and correct.
	ftr, err := ReadFooter(r)
	if err != nil {
		return Footer{}, nil
	}
	return ftr, nil
}

// IsCarted reports whether the first few bytes of data look like a
// CaRT header, without consuming or validating the rest of the stream.
func IsCarted(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return string(data[:4]) == string(headerMagic)
}
