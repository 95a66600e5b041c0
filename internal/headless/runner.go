// Package headless saves a share without any interactive UI. The whole
// invocation runs under a hard time budget and ends with a single
// notification.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"savesense/internal/auth"
	"savesense/internal/intake"
	"savesense/internal/pipeline"
)

// DefaultTimeout is the time budget for one headless invocation.
const DefaultTimeout = 5 * time.Second

// Notification texts shown to the user.
const (
	MsgSaved        = "Link Saved!"
	MsgAlreadySaved = "Link already saved!"
	MsgFailed       = "Failed to save link"
	MsgNotLoggedIn  = "Please login to SaveSense first"
)

const (
	entrypointLabel  = "headless"
	notifyTitleLabel = "SaveSense"
)

// Processor runs a share through the pipeline.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Notifier shows a one-shot notification.
type Notifier interface {
	Notify(title, message string) error
}

// WriterNotifier prints notifications as single lines.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(title, message string) error {
	_, err := fmt.Fprintf(n.W, "%s: %s\n", title, message)
	return err
}

// Runner is the headless entry point.
type Runner struct {
	proc     Processor
	session  auth.Provider
	notifier Notifier
	timeout  time.Duration
	log      logrus.FieldLogger

	inflight sync.WaitGroup
}

// NewRunner creates a new headless runner. A non-positive timeout selects
// DefaultTimeout.
func NewRunner(proc Processor, session auth.Provider, notifier Notifier, timeout time.Duration, logger logrus.FieldLogger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		proc:     proc,
		session:  session,
		notifier: notifier,
		timeout:  timeout,
		log:      logger.WithField("component", "headless"),
	}
}

type outcome struct {
	res pipeline.Result
	err error
}

// Run processes intent and notifies the user of the outcome. It returns once
// the pipeline finished or the time budget ran out, whichever comes first.
// Call Wait before releasing anything the pipeline uses.
func (r *Runner) Run(ctx context.Context, intent intake.Intent) (pipeline.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		res, err := r.proc.Process(ctx, pipeline.Request{
			Entrypoint: entrypointLabel,
			Session:    r.session,
			Intent:     intent,
		})
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{res: pipeline.Result{State: pipeline.StateError}, err: ctx.Err()}
	}

	msg := Message(out.res, out.err)
	if out.err != nil {
		r.log.WithError(out.err).Warn("Headless share failed")
	}
	if err := r.notifier.Notify(notifyTitleLabel, msg); err != nil {
		r.log.WithError(err).Error("Failed to show notification")
	}
	return out.res, out.err
}

// Wait blocks until every pipeline invocation started by Run has returned,
// including those abandoned at the deadline.
func (r *Runner) Wait() {
	r.inflight.Wait()
}

// Message maps a pipeline outcome to its notification text.
func Message(res pipeline.Result, err error) string {
	switch {
	case errors.Is(err, pipeline.ErrUnauthenticated):
		return MsgNotLoggedIn
	case err != nil:
		return MsgFailed
	case res.State == pipeline.StateAlreadyExists:
		return MsgAlreadySaved
	case res.State == pipeline.StateSuccess:
		return MsgSaved
	}
	return MsgFailed
}
