package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/pipeline"
)

// Step reads one sample and runs one pipeline tick synchronously.
func (a *App) Step() (pipeline.Result, error) {
	a.mu.Lock()
	if !a.enabled {
		a.mu.Unlock()
		return pipeline.Result{}, ErrPaused
	}
	if a.source == nil {
		a.mu.Unlock()
		return pipeline.Result{}, ErrNoSource
	}

	sample, err := a.source.Read()
	if err != nil {
		a.mu.Unlock()
		return pipeline.Result{}, err
	}
	res := a.pipeline.Tick(sample)
	a.mu.Unlock()

	a.dispatch(res)
	return res, nil
}

// Start runs Step on every tick in the background until Stop is called,
// ctx is done or the source is exhausted. Starting a running App is a
// no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		select {
		case <-a.done:
		default:
			return nil
		}
	}
	if a.source == nil {
		return ErrNoSource
	}
	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go a.run(ctx, done)

	a.log.WithField("interval", a.config.TickInterval).Info("wand loop started")
	return nil
}

func (a *App) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := a.Step()
			switch {
			case err == nil, errors.Is(err, ErrPaused):
			case errors.Is(err, capture.ErrSourceClosed):
				a.log.Info("sample source exhausted")
				return
			default:
				a.log.WithError(err).Warn("failed to read sample")
			}
		}
	}
}

// Stop halts the loop and waits for it and any running plugin actions
// to finish.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		a.log.Info("wand loop stopped")
	}
	a.actions.Wait()
}

// Done returns a channel closed when the running loop exits. It is nil
// when the loop was never started.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Running reports whether the loop is active.
func (a *App) Running() bool {
	done := a.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
