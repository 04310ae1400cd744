package decoder

import (
	"compress/zlib"
	"io"
)

func newZlibReader(r io.Reader) (io.Reader, error) {
	return zlib.NewReader(r)
}
