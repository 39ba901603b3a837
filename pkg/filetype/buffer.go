package filetype

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// How many bytes to read ahead (at most) when reading from the stream
const readAhead = 12

// NewBuffer returns a new Buffer object that reads from the given stream
func NewBuffer(r io.Reader) *Buffer {
	return &Buffer{
		r:   r,
		buf: &bytes.Buffer{},
	}
}

// NewBytesBuffer returns a Buffer over a sample that is already in memory
func NewBytesBuffer(data []byte) *Buffer {
	return &Buffer{
		buf: bytes.NewBuffer(data),
		eof: true,
	}
}

// Buffer reads from a stream lazily, keeping everything it read so bytes can be accessed as needed
type Buffer struct {
	r   io.Reader
	buf *bytes.Buffer
	eof bool
	cur int
}

// ReadBytesOpts contains options for ReadBytes
type ReadBytesOpts struct {
	// If true, advances the current cursor by the number of bytes read
	Advance bool
	// Start reading from the given number of bytes
	Offset int
}

// ReadBytes reads from the buffer n bytes (or less if the stream reaches EOF before)
// It returns an error in case of read error; reaching EOF does not return an error
// Note that the returned slice is valid only until the next call to read or write into the internal buffer
func (b *Buffer) ReadBytes(n int, opts *ReadBytesOpts) ([]byte, error) {
	start := b.cur
	if opts != nil && opts.Offset > 0 {
		start += opts.Offset
	}
	end := start + n

	err := b.fill(end)
	if err != nil {
		return nil, err
	}

	if end > b.buf.Len() {
		end = b.buf.Len()
	}
	if start > end {
		start = end
	}

	if opts != nil && opts.Advance {
		b.cur = end
	}

	return b.buf.Bytes()[start:end], nil
}

// Reads from the stream until the buffer contains at least n bytes or the stream is over
func (b *Buffer) fill(n int) error {
	missing := n - b.buf.Len()
	if missing <= 0 || b.eof {
		return nil
	}

	read := make([]byte, missing+readAhead)
	nr, err := io.ReadFull(b.r, read)
	if nr > 0 {
		// Writing to a bytes.Buffer can only fail by panicking
		_, _ = b.buf.Write(read[:nr])
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		b.eof = true
	} else if err != nil {
		return fmt.Errorf("error while reading from the stream: %w", err)
	}
	return nil
}

// Peek returns the first n bytes of the stream (or less if the stream is shorter), regardless of the cursor
// The returned slice is a copy and remains valid after further reads
func (b *Buffer) Peek(n int) ([]byte, error) {
	err := b.fill(n)
	if err != nil {
		return nil, err
	}
	if n > b.buf.Len() {
		n = b.buf.Len()
	}
	res := make([]byte, n)
	copy(res, b.buf.Bytes())
	return res, nil
}

// Reader returns a stream that replays everything that was buffered, then continues with the rest of the underlying stream
// The Buffer must not be used after calling Reader
func (b *Buffer) Reader() io.Reader {
	if b.eof || b.r == nil {
		return bytes.NewReader(b.buf.Bytes())
	}
	return io.MultiReader(bytes.NewReader(b.buf.Bytes()), b.r)
}

// NextEqual returns true if the next len(check) bytes in the buffer (starting from the current cursor) are equal to check
// Note that while opts is variadic, at most one element will be read
func (b *Buffer) NextEqual(check []byte, opts ...*ReadBytesOpts) (bool, error) {
	if len(check) == 0 {
		return false, errors.New("parameter check is empty")
	}
	read, err := b.ReadBytes(len(check), firstOpts(opts))
	if err != nil {
		return false, err
	}
	return bytes.Equal(read, check), nil
}

// MustNextEqual is like NextEqual but does not return errors
// It returns false in case of any error
func (b *Buffer) MustNextEqual(check []byte, opts ...*ReadBytesOpts) bool {
	res, err := b.NextEqual(check, opts...)
	return res && err == nil
}

// MustNextEqualString is like MustNextEqual, but accepts a string as value to check
func (b *Buffer) MustNextEqualString(check string, opts ...*ReadBytesOpts) bool {
	return b.MustNextEqual([]byte(check), opts...)
}

// NextEqualWithMask is a variant of NextEqual that applies a mask to the bytes read before checking for equality
// The buffer is not modified
func (b *Buffer) NextEqualWithMask(check []byte, mask []byte, opts ...*ReadBytesOpts) (bool, error) {
	if len(check) == 0 {
		return false, errors.New("parameter check is empty")
	}
	if len(mask) != len(check) {
		return false, errors.New("parameters check and mask have different lengths")
	}
	read, err := b.ReadBytes(len(check), firstOpts(opts))
	if err != nil {
		return false, err
	}
	if len(read) != len(check) {
		return false, nil
	}

	for i := range read {
		if read[i]&mask[i] != check[i] {
			return false, nil
		}
	}
	return true, nil
}

// MustNextEqualWithMask is like NextEqualWithMask but does not return errors
// It returns false in case of any error
func (b *Buffer) MustNextEqualWithMask(check []byte, mask []byte, opts ...*ReadBytesOpts) bool {
	res, err := b.NextEqualWithMask(check, mask, opts...)
	return res && err == nil
}

// Skip advances the current cursor by n bytes
func (b *Buffer) Skip(n int) {
	b.cur += n
}

func firstOpts(opts []*ReadBytesOpts) *ReadBytesOpts {
	if len(opts) > 0 {
		return opts[0]
	}
	return nil
}
