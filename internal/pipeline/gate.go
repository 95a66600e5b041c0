package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"savesense/internal/domain"
	"savesense/internal/storage"
)

// Gate saves entries unless the user already saved the same value.
type Gate struct {
	repo storage.Repository
	log  logrus.FieldLogger
}

// NewGate creates a new dedup and persistence gate.
func NewGate(repo storage.Repository, logger logrus.FieldLogger) *Gate {
	return &Gate{repo: repo, log: logger.WithField("component", "gate")}
}

// Save returns the stored entry for (candidate.UserID, candidate.Value) and
// whether it already existed. The repository enforces uniqueness on insert, so
// the lookup only saves a write for the common duplicate case. Nothing is
// written once ctx is done.
func (g *Gate) Save(ctx context.Context, candidate domain.SharedEntry) (domain.SharedEntry, bool, error) {
	existing, err := g.repo.FindOne(ctx, candidate.UserID, candidate.Value)
	switch {
	case err == nil:
		return existing, true, nil
	case !errors.Is(err, storage.ErrNotFound):
		return domain.SharedEntry{}, false, fmt.Errorf("failed to check for duplicates: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.SharedEntry{}, false, fmt.Errorf("share abandoned before saving: %w", err)
	}

	saved, err := g.repo.Insert(ctx, candidate)
	if errors.Is(err, storage.ErrAlreadyExists) {
		g.log.WithField("user_id", candidate.UserID).Debug("Lost insert race, returning stored entry")
		existing, ferr := g.repo.FindOne(ctx, candidate.UserID, candidate.Value)
		if ferr != nil {
			return domain.SharedEntry{}, false, fmt.Errorf("failed to read existing entry: %w", ferr)
		}
		return existing, true, nil
	}
	if err != nil {
		return domain.SharedEntry{}, false, fmt.Errorf("failed to insert entry: %w", err)
	}
	return saved, false, nil
}
