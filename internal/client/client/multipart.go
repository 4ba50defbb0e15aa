package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
)

// FilePart is the single file of a multipart request. Size is -1 when the
// length is not known up front.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

// ProgressFunc receives the number of body bytes handed to the transport so
// far and the total body length. It is only called when the total is known.
type ProgressFunc func(sent, total int64)

type MultipartRequest struct {
	Fields   map[string]string
	File     FilePart
	Progress ProgressFunc
}

// switchWriter lets one multipart.Writer emit the part header and the
// closing boundary into separate buffers.
type switchWriter struct {
	w io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) { return s.w.Write(p) }

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// body lays the multipart payload out as head + file + tail so the file is
// streamed rather than buffered.
func (m MultipartRequest) body() (r io.Reader, contentType string, total int64, err error) {
	var head, tail bytes.Buffer
	sw := &switchWriter{w: &head}
	mw := multipart.NewWriter(sw)

	for k, v := range m.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", 0, err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(m.File.Field), quoteEscaper.Replace(m.File.FileName)))
	ct := m.File.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, "", 0, err
	}

	sw.w = &tail
	if err := mw.Close(); err != nil {
		return nil, "", 0, err
	}

	total = -1
	if m.File.Size >= 0 {
		total = int64(head.Len()) + m.File.Size + int64(tail.Len())
	}
	return io.MultiReader(&head, m.File.Reader, &tail), mw.FormDataContentType(), total, nil
}

// progressReader reports cumulative reads; a mutex guards against the
// transport reading from another goroutine than the one that built it.
type progressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu   sync.Mutex
	sent int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.fn(sent, p.total)
	}
	return n, err
}

// Upload posts a multipart body, streaming the file and reporting progress
// as the transport consumes it.
func (c *HTTPClient) Upload(ctx context.Context, path string, m MultipartRequest, opts ...RequestOption) (*Response, error) {
	if m.File.Reader == nil {
		return nil, fmt.Errorf("upload %s: no file", path)
	}

	body, contentType, total, err := m.body()
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	if total > 0 && m.Progress != nil {
		body = &progressReader{r: body, total: total, fn: m.Progress}
	}

	ctx = context.WithValue(ctx, contentLengthKey, total)
	req := c.request(ctx, opts).
		SetHeader("Content-Type", contentType).
		SetBody(body)

	resp, err := req.Execute(http.MethodPost, path)
	return c.result(ctx, http.MethodPost, path, resp, err)
}
