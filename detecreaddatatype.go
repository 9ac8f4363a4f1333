package metagenomisc

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}
	return "invalid"
}

// DataTypeZ is zlib: 0x78 followed by one of the standard compression-level
// flag bytes.
var byteCodeSigs = map[DataType][][]byte{
	DataTypeGzip:  {{0x1f, 0x8b, 0x08}},
	DataTypeZip:   {{0x50, 0x4b, 0x03, 0x04}},
	DataTypeXZ:    {{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	DataTypeZ:     {{0x78, 0x01}, {0x78, 0x5e}, {0x78, 0x9c}, {0x78, 0xda}},
	DataTypeBZip2: {{0x42, 0x5a, 0x68}},
}

// DetectDataType peeks at the head of br and reports which compression, if
// any, the stream uses. Nothing is consumed from br. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(br *bufio.Reader) (DataType, error) {
	buff, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}

	// Match known signatures
	for dt, sigs := range byteCodeSigs {
		for _, sig := range sigs {
			if bytes.HasPrefix(buff, sig) {
				return dt, nil
			}
		}
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress wraps rc so that reads yield decompressed bytes when the
// stream is compressed. Closing the result closes rc.
func MaybeDecompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	dt, err := DetectDataType(br)
	if err != nil {
		rc.Close()
		return nil, pfx.Err(err)
	}

	var inner io.Reader
	var innerCloser io.Closer

	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		inner, innerCloser = gz, gz
	case DataTypeZip:
		// Only the first member of the archive is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		inner = zr
	case DataTypeBZip2:
		inner = bzip2.NewReader(br)
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		inner = reader
	case DataTypeZ:
		zl, err := zlib.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, pfx.Err(err)
		}
		inner, innerCloser = zl, zl
	default:
		inner = br
	}

	out := &readCloser{Reader: inner, closers: []io.Closer{rc}}
	if innerCloser != nil {
		out.closers = []io.Closer{innerCloser, rc}
	}

	return out, nil
}

// readCloser closes every layer of a decompressing reader, innermost first.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *readCloser) Close() error {
	var err error
	for _, cl := range c.closers {
		if cerr := cl.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
