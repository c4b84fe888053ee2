package wire

import (
	"bufio"
	"errors"
	"io"
)

// ErrLineTooLong is returned by ReadLine when a line exceeds the limit.
var ErrLineTooLong = errors.New("line exceeds maximum size")

// ReadLine reads one delimiter-terminated line from r, delimiter included.
// A final fragment without delimiter is returned as a line; the following
// call then reports io.EOF. max <= 0 disables the size limit; the delimiter
// counts towards max.
//
// On ErrLineTooLong the reader stops inside the oversized line, before its
// delimiter. DiscardLine skips the rest of it.
func ReadLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice(Delimiter)
		if max > 0 && len(line)+len(frag) > max {
			if err == nil {
				_ = r.UnreadByte()
			}
			return nil, ErrLineTooLong
		}
		line = append(line, frag...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return line, nil
		default:
			return nil, err
		}
	}
}

// DiscardLine consumes input up to and including the next delimiter without
// buffering it.
func DiscardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice(Delimiter)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
