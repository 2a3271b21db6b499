package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WithLogging logs every decision at debug level.
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next Engine) Engine {
		return EngineFunc(func(ctx context.Context, req *Request) (Decision, error) {
			l := logger.With().
				Int("history", len(req.History)).
				Int("pending", len(req.Pending)).
				Int("tools", len(req.Tools)).
				Logger()
			l.Debug().Msg("starting inference")

			start := time.Now()
			d, err := next.Decide(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				l.Error().Err(err).Dur("elapsed", elapsed).Msg("inference failed")
				return nil, err
			}

			switch v := d.(type) {
			case ToolCall:
				l.Debug().Dur("elapsed", elapsed).Str("tool", v.Name).Str("argument", v.Argument).Msg("backend requested tool")
			case FinalAnswer:
				l.Debug().Dur("elapsed", elapsed).Int("length", len(v.Text)).Msg("backend answered")
			}
			return d, nil
		})
	}
}
