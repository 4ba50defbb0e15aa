package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
)

// Attachment is an opened media file ready to be sent as a multipart part.
type Attachment struct {
	Part   client.FilePart
	closer io.Closer
}

func (a *Attachment) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Attacher opens a media reference for upload.
type Attacher interface {
	Attach(ctx context.Context, ref Ref, kind Kind) (*Attachment, error)
}

// FileAttacher streams files straight from disk. It backs the native
// platform, where media is referenced by a local file URI.
type FileAttacher struct{}

func (FileAttacher) Attach(_ context.Context, ref Ref, kind Kind) (*Attachment, error) {
	p, ok := ref.localPath()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat media: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedRef, p)
	}

	name := ref.Name()
	return &Attachment{
		Part: client.FilePart{
			Field:       kind.Field(),
			FileName:    name,
			ContentType: MIMEType(name, kind),
			Reader:      f,
			Size:        st.Size(),
		},
		closer: f,
	}, nil
}

// BlobAttacher resolves the reference into memory first. It backs the web
// platform, where a picked file is only reachable as a blob.
type BlobAttacher struct {
	Resolver *BlobResolver
}

func (b BlobAttacher) Attach(ctx context.Context, ref Ref, kind Kind) (*Attachment, error) {
	blob, err := b.Resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Attachment{
		Part: client.FilePart{
			Field:       kind.Field(),
			FileName:    blob.FileName(),
			ContentType: blob.ContentType,
			Reader:      bytes.NewReader(blob.Data),
			Size:        int64(len(blob.Data)),
		},
	}, nil
}
