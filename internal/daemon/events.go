package daemon

import (
	"context"

	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/status"
	"go.uber.org/zap"
)

// eventLog writes search and session events from the bus to the log.
type eventLog struct {
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func newEventLog(b *bus.Bus, logger *zap.Logger) *eventLog {
	return &eventLog{bus: b, logger: logger.Named("events")}
}

// Start subscribes to every event on the bus.
func (e *eventLog) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("", 256)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handle(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the subscription.
func (e *eventLog) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *eventLog) handle(evt bus.Event) {
	fields := []zap.Field{
		zap.String("kind", evt.Kind),
		zap.String("session", evt.SessionID),
	}
	if evt.SearchID != "" {
		fields = append(fields, zap.String("search", evt.SearchID))
	}

	switch evt.Kind {
	case bus.KindPaneStatusChanged:
		if sc, ok := evt.Payload.(status.StatusChange); ok {
			fields = append(fields, zap.String("pane", sc.Pane), zap.String("from", string(sc.From)), zap.String("to", string(sc.To)))
		}
		e.logger.Debug("pane status changed", fields...)
	case bus.KindSessionInvalidated, bus.KindSessionExpired:
		e.logger.Info("session closed", fields...)
	case bus.KindSecondaryDiscarded:
		e.logger.Debug("stale result discarded", fields...)
	default:
		e.logger.Debug("event", fields...)
	}
}
