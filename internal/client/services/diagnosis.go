package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/history"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

var ErrNotFound = errors.New("diagnosis not found")

type DiagnosisAPI interface {
	Detect(ctx context.Context, req models.DetectRequest, image client.FilePart, progress client.ProgressFunc) (models.DiagnosisResult, error)
	DiagnosisHistory(ctx context.Context, page, perPage int) (models.DiagnosisPage, error)
	Diagnosis(ctx context.Context, id int64) (models.DiagnosisDetail, error)
}

// Attacher opens media for a multipart request. *media.Pipeline implements it.
type Attacher interface {
	Attach(ctx context.Context, ref media.Ref, kind media.Kind) (*media.Attachment, error)
}

// DiagnosisService runs the photo diagnosis flow and serves past results.
//
// Guests get their history from the session-scoped cache; signed-in users
// from the server.
type DiagnosisService interface {
	Submit(ctx context.Context, ref media.Ref, req models.DetectRequest, progress media.PercentFunc) (models.DiagnosisResult, error)
	History(ctx context.Context, page, perPage int) ([]models.HistoryEntry, error)
	Detail(ctx context.Context, id int64) (models.DiagnosisDetail, error)
	LocalEntry(ctx context.Context, id string) (models.HistoryEntry, error)
}

type diagnosisService struct {
	api      DiagnosisAPI
	attacher Attacher
	sessions Sessions
	langs    Languages
	history  *history.Cache
	gen      Generation
	log      logging.Logger
}

func NewDiagnosisService(api DiagnosisAPI, attacher Attacher, sessions Sessions, langs Languages, cache *history.Cache, log logging.Logger) DiagnosisService {
	return &diagnosisService{
		api:      api,
		attacher: attacher,
		sessions: sessions,
		langs:    langs,
		history:  cache,
		log:      log.With("service", "diagnosis"),
	}
}

// Submit uploads the photo for diagnosis. A newer Submit makes this one's
// result stale: it is then neither returned nor recorded.
func (s *diagnosisService) Submit(ctx context.Context, ref media.Ref, req models.DetectRequest, progress media.PercentFunc) (models.DiagnosisResult, error) {
	if err := s.sessions.WaitLoaded(ctx); err != nil {
		return models.DiagnosisResult{}, err
	}
	ticket := s.gen.Next()

	a, err := s.attacher.Attach(ctx, ref, media.KindImage)
	if err != nil {
		return models.DiagnosisResult{}, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			s.log.Warn(ctx, "image not closed", "error", err)
		}
	}()

	if req.Language == "" {
		req.Language = s.langs.Language()
	}

	result, err := s.api.Detect(ctx, req, a.Part, media.Percent(progress))
	if !s.gen.Current(ticket) {
		s.log.Debug(ctx, "stale diagnosis dropped", "ticket", ticket)
		return models.DiagnosisResult{}, ErrSuperseded
	}
	if err != nil {
		if msg, ok := IsImageQualityError(err); ok {
			s.log.Info(ctx, "image rejected", "reason", msg)
		} else {
			s.log.Error(ctx, "diagnosis failed", "error", err)
		}
		return models.DiagnosisResult{}, err
	}

	if s.sessions.Mode() == session.ModeGuest {
		s.history.Add(ctx, result, req.Crop)
	}
	return result, nil
}

func (s *diagnosisService) History(ctx context.Context, page, perPage int) ([]models.HistoryEntry, error) {
	if err := s.sessions.WaitLoaded(ctx); err != nil {
		return nil, err
	}
	if s.sessions.Mode() != session.ModeAuthenticated {
		return s.history.List(ctx), nil
	}

	p, err := s.api.DiagnosisHistory(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	out := make([]models.HistoryEntry, 0, len(p.History))
	for _, d := range p.History {
		out = append(out, models.HistoryEntry{
			ID:              strconv.FormatInt(d.ID, 10),
			Crop:            d.Crop,
			Disease:         d.Disease,
			Confidence:      d.Confidence,
			SeverityPercent: d.SeverityPercent,
			Stage:           d.Stage,
			CreatedAt:       d.CreatedAt,
		})
	}
	return out, nil
}

func (s *diagnosisService) Detail(ctx context.Context, id int64) (models.DiagnosisDetail, error) {
	return s.api.Diagnosis(ctx, id)
}

// LocalEntry looks id up in the guest cache.
func (s *diagnosisService) LocalEntry(ctx context.Context, id string) (models.HistoryEntry, error) {
	for _, e := range s.history.List(ctx) {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HistoryEntry{}, ErrNotFound
}
