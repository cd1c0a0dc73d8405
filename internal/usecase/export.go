package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cv-builder/internal/domain"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/pkg/apperror"

	"github.com/google/uuid"
)

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

type ShareRepo interface {
	Save(ctx context.Context, s *domain.SharedCV) error
	Get(ctx context.Context, id uuid.UUID) (*domain.SharedCV, error)
}

var pdfMagic = []byte("%PDF")

// Exporter turns documents into HTML pages, PDF files and shared snapshots.
// The PDF renderer and share repository are optional.
type Exporter struct {
	engine   *render.Engine
	renderer Renderer
	shares   ShareRepo
	attempts int
	backoff  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewExporter(engine *render.Engine, renderer Renderer, shares ShareRepo, attempts int, log *slog.Logger) *Exporter {
	if attempts <= 0 {
		attempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		engine:   engine,
		renderer: renderer,
		shares:   shares,
		attempts: attempts,
		backoff:  time.Second,
		now:      time.Now,
		log:      log,
	}
}

func (e *Exporter) Templates() []string {
	return e.engine.Available()
}

// HTML renders doc; an empty template name uses the document's own style.
func (e *Exporter) HTML(doc *model.Document, template string) (string, error) {
	html, err := e.engine.Render(doc, template)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return html, nil
}

// PDF renders doc to HTML and prints it, retrying with exponential backoff
// until the output carries a PDF signature.
func (e *Exporter) PDF(ctx context.Context, doc *model.Document, template string) ([]byte, error) {
	if e.renderer == nil {
		return nil, apperror.Unavailable("PDF export is not available")
	}
	html, err := e.HTML(doc, template)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	var renderErr error
	for i := 0; i < e.attempts; i++ {
		pdf, renderErr = e.renderer.RenderHTMLToPDF(ctx, html)
		if renderErr == nil {
			if bytes.HasPrefix(pdf, pdfMagic) {
				return pdf, nil
			}
			renderErr = fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
		}
		e.log.Warn("pdf render attempt failed", "attempt", i+1, "error", renderErr)
		if i < e.attempts-1 {
			select {
			case <-time.After(e.backoff << i):
			case <-ctx.Done():
				return nil, apperror.Internal(ctx.Err())
			}
		}
	}
	e.log.Error("pdf rendering failed", "attempts", e.attempts, "error", renderErr)
	return nil, apperror.New(http.StatusBadGateway, "Failed to generate PDF", renderErr)
}

// Share stores an immutable snapshot of doc rendered with template.
func (e *Exporter) Share(ctx context.Context, doc *model.Document, template string) (*domain.SharedCV, error) {
	if e.shares == nil {
		return nil, apperror.Unavailable("Sharing is not configured")
	}
	snap := &domain.SharedCV{
		ID:        uuid.New(),
		Template:  render.Resolve(doc, template),
		Document:  doc.Clone(),
		CreatedAt: e.now().UTC(),
	}
	if err := e.shares.Save(ctx, snap); err != nil {
		e.log.Error("save shared cv", "error", err)
		return nil, apperror.Internal(err)
	}
	return snap, nil
}

// SharedHTML renders a previously shared snapshot.
func (e *Exporter) SharedHTML(ctx context.Context, shareID string) (string, error) {
	if e.shares == nil {
		return "", apperror.Unavailable("Sharing is not configured")
	}
	id, err := uuid.Parse(shareID)
	if err != nil {
		return "", apperror.NotFound("Shared CV not found")
	}
	snap, err := e.shares.Get(ctx, id)
	if errors.Is(err, domain.ErrShareNotFound) {
		return "", apperror.NotFound("Shared CV not found")
	}
	if err != nil {
		e.log.Error("load shared cv", "share", shareID, "error", err)
		return "", apperror.Internal(err)
	}
	return e.HTML(snap.Document, snap.Template)
}
