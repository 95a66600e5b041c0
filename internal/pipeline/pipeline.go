// Package pipeline saves a single share: it normalizes the intent, classifies
// and enriches each payload, and persists it through the dedup gate.
//
// Both entry points (the chat bot and the headless share command) call
// Process; they differ only in the Reporter they pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"savesense/internal/auth"
	"savesense/internal/domain"
	"savesense/internal/intake"
	"savesense/internal/metrics"
	"savesense/internal/platform"
	"savesense/internal/storage"
)

// ErrUnauthenticated is returned when a share arrives without a signed-in user.
var ErrUnauthenticated = errors.New("user not logged in")

// State is a step of a pipeline invocation.
type State string

const (
	StateIdle          State = "idle"
	StateNormalizing   State = "normalizing"
	StateClassifying   State = "classifying"
	StateEnriching     State = "enriching"
	StatePersisting    State = "persisting"
	StateSuccess       State = "success"
	StateAlreadyExists State = "already_exists"
	StateError         State = "error"
)

// Terminal reports whether s ends an invocation.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateAlreadyExists || s == StateError
}

// Status is a state transition. Err is set only with StateError.
type Status struct {
	State State
	Err   error
}

// Reporter surfaces progress to the user.
type Reporter interface {
	Report(ctx context.Context, st Status)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, st Status)

func (f ReporterFunc) Report(ctx context.Context, st Status) { f(ctx, st) }

// MetadataEnricher resolves metadata for a link. It must not fail.
type MetadataEnricher interface {
	Enrich(ctx context.Context, rawURL string, p domain.Platform, hints *domain.Metadata) domain.Metadata
}

// Request is one share to process.
type Request struct {
	// Entrypoint labels logs and metrics, e.g. "bot" or "headless".
	Entrypoint string
	Session    auth.Provider
	Intent     intake.Intent
	Reporter   Reporter
}

// Result is the outcome of a successful invocation.
type Result struct {
	State      State
	Entries    []domain.SharedEntry
	Saved      int
	Duplicates int
}

// Pipeline holds the collaborators shared by all invocations.
type Pipeline struct {
	enricher MetadataEnricher
	gate     *Gate
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// New creates a new pipeline. m may be nil.
func New(enricher MetadataEnricher, repo storage.Repository, m *metrics.Metrics, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		enricher: enricher,
		gate:     NewGate(repo, logger),
		metrics:  m,
		log:      logger.WithField("component", "pipeline"),
	}
}

// Process runs one share through the pipeline. Steps run strictly in order and
// nothing is retried. The returned error is ErrUnauthenticated, intake.ErrNoContent,
// a context error when the invocation was abandoned, or a persistence error.
func (p *Pipeline) Process(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{
		"invocation_id": uuid.NewString(),
		"entrypoint":    req.Entrypoint,
	})
	report := func(st Status) {
		log.WithField("state", st.State).Debug("State changed")
		if req.Reporter != nil {
			req.Reporter.Report(ctx, st)
		}
	}
	fail := func(err error) (Result, error) {
		outcome := "error"
		if errors.Is(err, ErrUnauthenticated) {
			outcome = "unauthenticated"
		}
		log.WithError(err).Warn("Share failed")
		report(Status{State: StateError, Err: err})
		p.metrics.ObserveShare(req.Entrypoint, outcome, time.Since(start))
		return Result{State: StateError}, err
	}

	report(Status{State: StateIdle})

	if req.Session == nil {
		return fail(ErrUnauthenticated)
	}
	user, err := req.Session.CurrentUser(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return fail(ErrUnauthenticated)
	}
	if err != nil {
		return fail(fmt.Errorf("failed to resolve session: %w", err))
	}
	log = log.WithField("user_id", user.ID)

	report(Status{State: StateNormalizing})
	payloads := intake.Payloads(req.Intent)
	if len(payloads) == 0 {
		return fail(intake.ErrNoContent)
	}

	res := Result{}
	for _, pl := range payloads {
		entry, existed, err := p.processPayload(ctx, log, user, pl, report)
		if err != nil {
			return fail(err)
		}
		res.Entries = append(res.Entries, entry)
		if existed {
			res.Duplicates++
		} else {
			res.Saved++
		}
	}

	res.State = StateAlreadyExists
	if res.Saved > 0 {
		res.State = StateSuccess
	}
	log.WithFields(logrus.Fields{
		"saved":      res.Saved,
		"duplicates": res.Duplicates,
	}).Info("Share processed")
	report(Status{State: res.State})
	p.metrics.ObserveShare(req.Entrypoint, string(res.State), time.Since(start))
	return res, nil
}

func (p *Pipeline) processPayload(
	ctx context.Context,
	log logrus.FieldLogger,
	user domain.User,
	pl domain.SharedPayload,
	report func(Status),
) (domain.SharedEntry, bool, error) {
	report(Status{State: StateClassifying})
	plat := classify(pl)
	log = log.WithFields(logrus.Fields{"platform": plat, "content_type": pl.Kind})

	var md domain.Metadata
	switch pl.Kind {
	case domain.KindWebURL:
		report(Status{State: StateEnriching})
		md = p.enricher.Enrich(ctx, pl.RawValue, plat, pl.Hints)
	case domain.KindImage, domain.KindFile:
		md.OriginalFile = pl.File
	default:
		if pl.Hints != nil {
			md.FillFrom(*pl.Hints)
		}
	}

	// Work that outlived its deadline is dropped rather than saved half-enriched.
	if err := ctx.Err(); err != nil {
		return domain.SharedEntry{}, false, fmt.Errorf("share abandoned before saving: %w", err)
	}

	report(Status{State: StatePersisting})
	entry, existed, err := p.gate.Save(ctx, domain.SharedEntry{
		UserID:      user.ID,
		ContentType: pl.Kind,
		Value:       pl.RawValue,
		Platform:    plat,
		Metadata:    md,
	})
	if err != nil {
		return domain.SharedEntry{}, false, err
	}
	log.WithFields(logrus.Fields{"entry_id": entry.ID, "existed": existed}).Debug("Payload persisted")
	return entry, existed, nil
}

func classify(pl domain.SharedPayload) domain.Platform {
	switch pl.Kind {
	case domain.KindWebURL:
		return platform.Classify(pl.RawValue)
	case domain.KindImage, domain.KindFile:
		return domain.PlatformLocalFile
	}
	return domain.PlatformText
}
