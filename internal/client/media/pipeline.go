package media

import (
	"context"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

// Uploader sends a chat attachment. *client.HTTPClient implements it.
type Uploader interface {
	UploadMedia(ctx context.Context, file client.FilePart, progress client.ProgressFunc) (models.UploadHandle, error)
}

type Pipeline struct {
	attacher Attacher
	uploader Uploader
	log      logging.Logger
}

func NewPipeline(attacher Attacher, uploader Uploader, log logging.Logger) *Pipeline {
	return &Pipeline{attacher: attacher, uploader: uploader, log: log.With("component", "media")}
}

// Attach opens ref with the platform attacher. The caller closes the
// returned attachment.
func (p *Pipeline) Attach(ctx context.Context, ref Ref, kind Kind) (*Attachment, error) {
	return p.attacher.Attach(ctx, ref, kind)
}

// Upload sends ref to the chat upload endpoint and returns the server's
// handle. Failures are returned as is; there is no retry.
func (p *Pipeline) Upload(ctx context.Context, ref Ref, kind Kind, progress PercentFunc) (models.UploadHandle, error) {
	a, err := p.attacher.Attach(ctx, ref, kind)
	if err != nil {
		return models.UploadHandle{}, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			p.log.Warn(ctx, "media not closed", "ref", string(ref), "error", err)
		}
	}()

	h, err := p.uploader.UploadMedia(ctx, a.Part, Percent(progress))
	if err != nil {
		p.log.Error(ctx, "media upload failed", "ref", string(ref), "kind", string(kind), "error", err)
		return models.UploadHandle{}, err
	}
	p.log.Info(ctx, "media uploaded", "file_path", h.FilePath, "file_type", h.FileType)
	return h, nil
}
