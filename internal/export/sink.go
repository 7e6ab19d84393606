package export

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sink receives a finished workbook.
type Sink interface {
	Save(ctx context.Context, f File) error
}

type SinkFunc func(ctx context.Context, f File) error

func (fn SinkFunc) Save(ctx context.Context, f File) error { return fn(ctx, f) }

// DirSink writes the workbook into Dir under its own name. The data goes to
// a temporary file first and is renamed into place, so a failed save never
// leaves a partial workbook behind.
type DirSink struct {
	Dir string
}

func (s DirSink) Path(f File) string {
	return filepath.Join(s.Dir, f.Name)
}

func (s DirSink) Save(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Name == "" || f.Name == "." || f.Name == ".." || filepath.Base(f.Name) != f.Name {
		return fmt.Errorf("%w: %q", errUnsafeFileName, f.Name)
	}

	tmp, err := os.CreateTemp(s.Dir, ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path(f)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", s.Path(f), err)
	}
	return nil
}

// ResponseSink sends the workbook as an HTTP attachment.
type ResponseSink struct {
	W http.ResponseWriter
}

func (s ResponseSink) Save(_ context.Context, f File) error {
	h := s.W.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	h.Set("Content-Length", strconv.Itoa(len(f.Data)))
	s.W.WriteHeader(http.StatusOK)
	_, err := s.W.Write(f.Data)
	return err
}
