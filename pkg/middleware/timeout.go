package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/KhaiTheTran/SystemsProgramming/pkg/logger"
)

// Timeout gives each request a deadline. If the handler has not begun its
// response when the deadline passes, the client gets 504 and later writes
// from the handler fail with http.ErrHandlerTimeout. A non-positive timeout
// disables the deadline.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
			}
			if gw.expire() {
				logger.FromContext(r.Context()).Warn("request timed out",
					"method", r.Method, "path", r.URL.Path, "timeout", timeout)
				writeError(w, http.StatusGatewayTimeout, "request timeout")
			}
			<-done
		})
	}
}

type writerState int

const (
	pending writerState = iota
	responding
	expired
)

// guardedWriter lets whichever of the handler and the deadline writes
// first own the response.
type guardedWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	state writerState
}

// expire claims the response for the deadline unless the handler already
// started it.
func (gw *guardedWriter) expire() bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.state == responding {
		return false
	}
	gw.state = expired
	return true
}

func (gw *guardedWriter) WriteHeader(code int) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.state == expired {
		return
	}
	gw.state = responding
	gw.ResponseWriter.WriteHeader(code)
}

func (gw *guardedWriter) Write(b []byte) (int, error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.state == expired {
		return 0, http.ErrHandlerTimeout
	}
	gw.state = responding
	return gw.ResponseWriter.Write(b)
}
