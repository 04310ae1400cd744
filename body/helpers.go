package body

import (
	"context"
	"io"
)

// ExtractContentType returns the Content-Type implied by v, used only
// when the caller did not set one explicitly.
func ExtractContentType(v Value) string {
	switch v.Kind {
	case KindText:
		return "text/plain;charset=UTF-8"
	case KindBlob:
		return v.Blob.Type
	case KindForm:
		return "multipart/form-data;boundary=" + v.Form.Boundary()
	default:
		// KindNull, KindBytes, KindStream: no inferred content type.
		return ""
	}
}

// GetTotalBytes returns the length implied by v and whether that
// length is known synchronously. Streams are always unknown; a
// multipart-form is known only if it reports HasKnownLength().
func GetTotalBytes(v Value) (n int64, known bool) {
	switch v.Kind {
	case KindNull:
		return 0, true
	case KindText:
		return int64(len(v.Text)), true
	case KindBytes:
		return int64(len(v.Bytes)), true
	case KindBlob:
		return v.Blob.Size(), true
	case KindForm:
		if lf, ok := v.Form.(LengthAwareForm); ok && lf.HasKnownLength() {
			return lf.Len(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// WriteToStream writes v to dest: null ends immediately, replayable
// kinds write-then-end, streams and forms are piped through.
func WriteToStream(ctx context.Context, dest io.Writer, v Value) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindText:
		_, err := io.WriteString(dest, v.Text)
		return err
	case KindBytes:
		_, err := dest.Write(v.Bytes)
		return err
	case KindBlob:
		_, err := dest.Write(v.Blob.Data)
		return err
	case KindStream:
		_, err := io.Copy(dest, contextReader{ctx, v.Stream})
		return err
	case KindForm:
		_, err := v.Form.WriteTo(dest)
		return err
	default:
		return nil
	}
}

// contextReader aborts a Read once ctx is done, so piping a stream
// body to the wire respects the caller's cancellation.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
