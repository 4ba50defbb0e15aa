package client

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type receivedUpload struct {
	fields        map[string]string
	fileField     string
	fileName      string
	fileType      string
	fileBody      []byte
	contentLength int64
	auth          string
}

func newUploadServer(t *testing.T, status int, reply string) (*httptest.Server, func() receivedUpload) {
	t.Helper()
	var (
		mu  sync.Mutex
		got receivedUpload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		got = receivedUpload{fields: map[string]string{}, contentLength: r.ContentLength, auth: r.Header.Get("Authorization")}

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			b, _ := io.ReadAll(p)
			if p.FileName() != "" {
				got.fileField, got.fileName, got.fileType, got.fileBody = p.FormName(), p.FileName(), p.Header.Get("Content-Type"), b
				continue
			}
			got.fields[p.FormName()] = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, func() receivedUpload {
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

// unsized hides the length of a reader from net/http.
type unsized struct{ r io.Reader }

func (u unsized) Read(p []byte) (int, error) { return u.r.Read(p) }

func TestUpload_StreamsFileAndFields(t *testing.T) {
	srv, received := newUploadServer(t, http.StatusOK, `{"file_path":"uploads/a.jpg"}`)
	c := newClient(srv, &fakeTokens{token: "tok"})

	payload := bytes.Repeat([]byte("x"), 256*1024)
	var (
		mu    sync.Mutex
		calls [][2]int64
	)
	resp, err := c.Upload(context.Background(), "chatbot/upload", MultipartRequest{
		Fields: map[string]string{"crop": "tomato"},
		File: FilePart{
			Field: "image", FileName: "leaf.jpg", ContentType: "image/jpg",
			Reader: bytes.NewReader(payload), Size: int64(len(payload)),
		},
		Progress: func(sent, total int64) {
			mu.Lock()
			calls = append(calls, [2]int64{sent, total})
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_path":"uploads/a.jpg"}`, string(resp.Data))

	got := received()
	assert.Equal(t, "tomato", got.fields["crop"])
	assert.Equal(t, "image", got.fileField)
	assert.Equal(t, "leaf.jpg", got.fileName)
	assert.Equal(t, "image/jpg", got.fileType)
	assert.Equal(t, payload, got.fileBody)
	assert.Equal(t, "Bearer tok", got.auth)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, calls)
	total := calls[0][1]
	assert.Equal(t, got.contentLength, total, "declared length matches body")
	prev := int64(0)
	for _, call := range calls {
		assert.GreaterOrEqual(t, call[0], prev)
		assert.LessOrEqual(t, call[0], total)
		assert.Equal(t, total, call[1])
		prev = call[0]
	}
	assert.Equal(t, total, prev, "last report covers the whole body")
}

func TestUpload_UnknownSizeSkipsProgress(t *testing.T) {
	srv, received := newUploadServer(t, http.StatusOK, `{"file_path":"uploads/v.mp4"}`)
	c := newClient(srv, nil)

	called := false
	_, err := c.Upload(context.Background(), "chatbot/upload", MultipartRequest{
		File: FilePart{
			Field: "image", FileName: "clip.mp4", ContentType: "video/mp4",
			Reader: unsized{strings.NewReader("frames")}, Size: -1,
		},
		Progress: func(int64, int64) { called = true },
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []byte("frames"), received().fileBody)
}

func TestUpload_ServerRejection(t *testing.T) {
	srv, _ := newUploadServer(t, http.StatusBadRequest, `{"error":"Image Rejected","message":"Not a plant"}`)
	c := newClient(srv, nil)

	_, err := c.Upload(context.Background(), "diagnosis/detect", MultipartRequest{
		File: FilePart{Field: "image", FileName: "cat.jpg", Reader: strings.NewReader("meow"), Size: 4},
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Image Rejected", apiErr.Payload.Error)
}

func TestUpload_NoFile(t *testing.T) {
	c := New("http://127.0.0.1:1/api/", nil, logging.NewNop())
	_, err := c.Upload(context.Background(), "chatbot/upload", MultipartRequest{})
	require.Error(t, err)
}

func TestMultipartBody_DefaultContentType(t *testing.T) {
	m := MultipartRequest{File: FilePart{Field: "audio", FileName: `a"b.m4a`, Reader: strings.NewReader("aa"), Size: 2}}
	r, ct, total, err := m.body()
	require.NoError(t, err)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, int64(len(b)), total)
	assert.Contains(t, ct, "multipart/form-data; boundary=")
	assert.Contains(t, string(b), "Content-Type: application/octet-stream")
	assert.Contains(t, string(b), `filename="a\"b.m4a"`)
}
