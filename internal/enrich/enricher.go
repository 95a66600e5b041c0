// Package enrich resolves display metadata for shared links.
//
// Resolution runs in three layers, highest priority first: the enricher for
// the link's platform, the generic Open Graph scraper, and hints supplied by
// the sharing app. A lower layer only fills fields the layers above left empty.
package enrich

import (
	"context"

	"github.com/sirupsen/logrus"

	"savesense/internal/domain"
)

// Enricher produces metadata for links of one platform.
type Enricher interface {
	Platform() domain.Platform

	// Enrich returns nil metadata when the post yields nothing usable.
	Enrich(ctx context.Context, rawURL string) (*domain.Metadata, error)
}

// GenericScraper is the fallback used for every platform.
type GenericScraper interface {
	Scrape(ctx context.Context, pageURL string) domain.Metadata
}

// Observer is notified of which layer supplied the final title.
type Observer interface {
	ObserveEnrichment(platform domain.Platform, source string)
}

// Orchestrator combines platform enrichers with the generic fallback.
type Orchestrator struct {
	enrichers map[domain.Platform]Enricher
	fallback  GenericScraper
	observer  Observer
	log       logrus.FieldLogger
}

// NewOrchestrator creates a new orchestrator. observer may be nil.
func NewOrchestrator(fallback GenericScraper, observer Observer, logger logrus.FieldLogger, enrichers ...Enricher) *Orchestrator {
	o := &Orchestrator{
		enrichers: make(map[domain.Platform]Enricher, len(enrichers)),
		fallback:  fallback,
		observer:  observer,
		log:       logger.WithField("component", "enrichment"),
	}
	for _, e := range enrichers {
		o.enrichers[e.Platform()] = e
	}
	return o
}

// Enrich resolves metadata for rawURL. It never fails; errors only reduce
// the amount of metadata returned.
func (o *Orchestrator) Enrich(ctx context.Context, rawURL string, platform domain.Platform, hints *domain.Metadata) domain.Metadata {
	log := o.log.WithFields(logrus.Fields{
		"url":      rawURL,
		"platform": platform,
	})

	var md domain.Metadata

	if e, ok := o.enrichers[platform]; ok {
		got, err := e.Enrich(ctx, rawURL)
		switch {
		case err != nil:
			log.WithError(err).Warn("Platform enrichment failed")
		case got == nil:
			log.Debug("Platform enrichment returned nothing")
		default:
			md = *got
		}
	}

	if !md.HasTitle() && o.fallback != nil {
		md.FillFrom(o.fallback.Scrape(ctx, rawURL))
	}

	if hints != nil {
		md.FillFrom(*hints)
	}

	if md.Title == "" {
		md.Title = domain.UntitledLink
	}

	if o.observer != nil {
		o.observer.ObserveEnrichment(platform, md.Source)
	}
	log.WithFields(logrus.Fields{
		"title":  md.Title,
		"source": md.Source,
	}).Debug("Metadata resolved")
	return md
}
