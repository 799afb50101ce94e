package donedone

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Multipart is an encoded multipart/form-data body.
type Multipart struct {
	Body     []byte
	Boundary string
}

// ContentType returns the Content-Type header value including the boundary.
func (m *Multipart) ContentType() string {
	return "multipart/form-data; boundary=" + m.Boundary
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// BuildMultipart encodes fields and the files at paths into one
// multipart/form-data body. Field parts come first in order, then one part
// per file in order with its raw bytes and a MIME type from MIMEType. Every
// file is opened before anything is encoded; the first one that cannot be
// opened or read fails the build with *LocalIOError.
func BuildMultipart(fsys afero.Fs, fields Fields, paths []string) (*Multipart, error) {
	files := make([]afero.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, path := range paths {
		f, err := fsys.Open(path)
		if err != nil {
			return nil, &LocalIOError{Path: path, Err: err}
		}
		files = append(files, f)
		info, err := f.Stat()
		if err != nil {
			return nil, &LocalIOError{Path: path, Err: err}
		}
		if info.IsDir() {
			return nil, &LocalIOError{Path: path, Err: fmt.Errorf("is a directory")}
		}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "text/plain")
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(field.Name)))
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
		if _, err := io.WriteString(part, field.Value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
	}

	for i, f := range files {
		name := filepath.Base(paths[i])
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`filename="%s"`, quoteEscaper.Replace(name)))
		h.Set("Content-Type", MIMEType(name))
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create part for %s: %w", name, err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, &LocalIOError{Path: paths[i], Err: err}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &Multipart{Body: body.Bytes(), Boundary: writer.Boundary()}, nil
}
