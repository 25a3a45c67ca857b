// Package companies synchronizes listed-company reference data into the
// entity store.
package companies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/extract"
	"github.com/alperaydin/kapmirror/internal/mirror"
)

// Transport fetches platform pages by URL.
type Transport interface {
	CompanyListURL(language string) string
	GetURL(ctx context.Context, pageURL, language string) (*mirror.Document, error)
}

// Extractor parses the company list and detail pages.
type Extractor interface {
	CompanyList(doc *mirror.Document, hrefPrefix string) ([]extract.CompanyRef, error)
	CompanyDetail(doc *mirror.Document) (*mirror.Entity, error)
}

// Config controls the sync loop.
type Config struct {
	Language   string
	HrefPrefix string
	Throttle   time.Duration
}

// Syncer reads the listed-companies summary page and saves the general-info
// details of every company. Individual company failures are logged and
// skipped so one broken page cannot stop the whole sync.
type Syncer struct {
	transport Transport
	extractor Extractor
	store     mirror.EntityStore
	pauser    mirror.Pauser
	cfg       Config
	logger    *zap.Logger
}

// NewSyncer constructs a Syncer.
func NewSyncer(transport Transport, extractor Extractor, store mirror.EntityStore, cfg Config, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		transport: transport,
		extractor: extractor,
		store:     store,
		pauser:    mirror.TimerPauser{},
		cfg:       cfg,
		logger:    logger,
	}
}

// Run syncs every listed company, returning how many were saved and how many
// were skipped on error.
func (s *Syncer) Run(ctx context.Context) (saved, skipped int, err error) {
	listURL := s.transport.CompanyListURL(s.cfg.Language)
	doc, err := s.transport.GetURL(ctx, listURL, s.cfg.Language)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch company list: %w", err)
	}
	refs, err := s.extractor.CompanyList(doc, s.cfg.HrefPrefix)
	if err != nil {
		return 0, 0, fmt.Errorf("parse company list: %w", err)
	}
	s.logger.Info("company list read", zap.Int("companies", len(refs)))

	for _, ref := range refs {
		if ctx.Err() != nil {
			return saved, skipped, ctx.Err()
		}
		if err := s.syncOne(ctx, ref); err != nil {
			skipped++
			s.logger.Warn("company sync skipped",
				zap.String("code", ref.Code),
				zap.Error(err),
			)
		} else {
			saved++
		}
		if s.cfg.Throttle > 0 {
			s.pauser.Pause(ctx, s.cfg.Throttle)
		}
	}
	return saved, skipped, nil
}

// syncOne fetches one company's general-info page and replaces its stored
// entity. The summary link points at the "ozet" view; details live under
// "genel".
func (s *Syncer) syncOne(ctx context.Context, ref extract.CompanyRef) error {
	detailURL := strings.Replace(ref.URL, "ozet", "genel", 1)
	doc, err := s.transport.GetURL(ctx, detailURL, s.cfg.Language)
	if err != nil {
		return fmt.Errorf("fetch detail: %w", err)
	}
	ent, err := s.extractor.CompanyDetail(doc)
	if err != nil {
		return fmt.Errorf("parse detail: %w", err)
	}
	if err := s.store.SaveEntity(ctx, ent); err != nil {
		return fmt.Errorf("save entity: %w", err)
	}
	return nil
}
