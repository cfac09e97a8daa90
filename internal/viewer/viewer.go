// Package viewer runs history searches for a session: it normalizes the
// number, queries the primary endpoint and then the secondary one, and
// records every outcome on the session.
package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/secondary"
	"github.com/matheus3301/wpp-history/internal/session"
	"go.uber.org/zap"
)

// Search results recorded by a Recorder.
const (
	ResultOK           = "ok"
	ResultInvalidInput = "invalid_input"
	ResultNoCredential = "no_credential"
	ResultUnauthorized = "unauthorized"
	ResultFailed       = "primary_error"
	ResultSuperseded   = "superseded"
)

// PrimaryFetcher looks up conversations by transport address.
type PrimaryFetcher interface {
	Fetch(ctx context.Context, address, password string) (*primary.Result, error)
	UsesPassword() bool
}

// SecondaryFetcher looks up the chatbot history of a bare number.
type SecondaryFetcher interface {
	Fetch(ctx context.Context, number string) (*history.WeniHistory, error)
	Configured() bool
}

// Recorder counts searches by result.
type Recorder interface {
	ObserveSearch(result string)
}

// Options tunes a Viewer.
type Options struct {
	SortNewestFirst bool
}

// Viewer is the search controller shared by every front end.
type Viewer struct {
	primary   PrimaryFetcher
	secondary SecondaryFetcher
	opts      Options
	recorder  Recorder
	logger    *zap.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New creates a Viewer. recorder may be nil.
func New(p PrimaryFetcher, s SecondaryFetcher, opts Options, recorder Recorder, logger *zap.Logger) *Viewer {
	base, stop := context.WithCancel(context.Background())
	return &Viewer{
		primary:   p,
		secondary: s,
		opts:      opts,
		recorder:  recorder,
		logger:    logger.Named("viewer"),
		base:      base,
		stop:      stop,
	}
}

// RequiresCredential reports whether sessions must pass the access gate.
func (v *Viewer) RequiresCredential() bool {
	return v.primary.UsesPassword()
}

// Search starts a search for raw on sess. The primary lookup completes
// before Search returns; the secondary lookup runs in the background and
// lands on the session unless another search has started meanwhile. The
// returned error is already recorded on the session.
func (v *Viewer) Search(ctx context.Context, sess *session.Session, raw string) error {
	task, cancel := context.WithCancel(v.base)
	id := sess.Begin(raw, cancel)
	log := v.logger.With(zap.String("session", sess.ID), zap.String("search", id))

	addr, err := phone.Normalize(raw)
	if errors.Is(err, phone.ErrEmpty) {
		cancel()
		sess.FailValidation(id, UserMessage(err))
		v.record(ResultInvalidInput)
		return err
	}

	var password string
	if v.RequiresCredential() {
		cred, ok := sess.Credential()
		if !ok {
			sess.Invalidate(MsgNoCredential)
			v.record(ResultNoCredential)
			log.Warn("search without credential")
			return ErrNoCredential
		}
		password = cred
	}

	if err != nil {
		cancel()
		sess.FailValidation(id, UserMessage(err))
		v.record(ResultInvalidInput)
		return err
	}

	sess.StartPrimary(id, addr)
	log.Debug("search started", zap.String("number", phone.Mask(addr.Secondary)))

	pctx, pcancel := context.WithCancel(task)
	defer pcancel()
	release := context.AfterFunc(ctx, pcancel)
	defer release()

	res, err := v.primary.Fetch(pctx, addr.Primary, password)
	if errors.Is(err, primary.ErrUnauthorized) {
		cancel()
		sess.Invalidate(MsgInvalidCredential)
		v.record(ResultUnauthorized)
		log.Warn("credential rejected, session invalidated")
		return err
	}
	if err != nil {
		cancel()
		if !sess.FailPrimary(id, UserMessage(err)) {
			v.record(ResultSuperseded)
			return nil
		}
		v.record(ResultFailed)
		return err
	}

	convs := res.Conversations
	if v.opts.SortNewestFirst {
		history.SortNewestFirst(convs)
	}
	if !sess.CompletePrimary(id, convs) {
		cancel()
		v.record(ResultSuperseded)
		return nil
	}
	v.record(ResultOK)

	if !v.secondary.Configured() {
		cancel()
		sess.SecondaryUnconfigured(id, UserMessage(secondary.ErrNotConfigured))
		return nil
	}

	sess.StartSecondary(id)
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer cancel()

		h, err := v.secondary.Fetch(task, addr.Secondary)
		var applied bool
		if err != nil {
			applied = sess.FailSecondary(id, UserMessage(err))
		} else {
			applied = sess.CompleteSecondary(id, h)
		}
		if !applied {
			log.Debug("discarded secondary result of superseded search")
		}
	}()
	return nil
}

// Wait blocks until every background lookup has finished.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

// Close cancels background lookups and waits for them.
func (v *Viewer) Close() {
	v.stop()
	v.wg.Wait()
}

func (v *Viewer) record(result string) {
	if v.recorder != nil {
		v.recorder.ObserveSearch(result)
	}
}
