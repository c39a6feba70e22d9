package ioutil

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("body too large")

// ReadToEnd reads r until EOF. expected is the announced length, negative if
// unknown; reading stops after expected bytes.
func ReadToEnd(r io.Reader, expected int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	n := expected
	if n < 0 {
		n = 512
	}

	buf := make([]byte, n)
	i := int64(0)
	for expected < 0 || i < expected {
		if i >= n {
			buf = append(buf, 0)
			n = int64(cap(buf))
			buf = buf[:n]
		}

		nn, err := r.Read(buf[i:n])
		i += int64(nn)
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return buf[:i], err
		}
	}
	return buf[:i], nil
}

// ReadLimited is ReadToEnd capped at limit bytes. An announced length over
// the limit fails early, an unannounced body is truncated.
func ReadLimited(r io.Reader, expected int64, limit int64) ([]byte, error) {
	if limit > 0 {
		if expected > limit {
			return nil, ErrTooLarge
		}
		if expected < 0 {
			r = io.LimitReader(r, limit)
		}
	}
	return ReadToEnd(r, expected)
}
