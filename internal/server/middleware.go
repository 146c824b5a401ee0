package server

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"invest-ledger-go/internal/pin"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const pinHeader = "X-Admin-Pin"

// requestLogger logs one structured line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		zap.L().Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// instrument records request counts and latency by route pattern, so path
// parameters do not explode label cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		s.metrics.RequestCount.WithLabelValues(r.Method, pattern, status).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}

// requirePin gates a route on the X-Admin-Pin header
func (s *Server) requirePin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.checkPin(w, r, r.Header.Get(pinHeader)) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkPin(w http.ResponseWriter, r *http.Request, candidate string) bool {
	err := s.pins.Check(s.clientKey(r), candidate)
	switch {
	case err == nil:
		return true
	case errors.Is(err, pin.ErrRateLimited):
		zap.L().Warn("Admin PIN attempts throttled", zap.String("client", s.clientKey(r)))
		writeMessage(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
	case errors.Is(err, pin.ErrNotConfigured):
		writeMessage(w, http.StatusForbidden, "Admin PIN is not configured")
	default:
		zap.L().Warn("Invalid admin PIN", zap.String("client", s.clientKey(r)))
		writeMessage(w, http.StatusForbidden, "Invalid PIN")
	}
	return false
}

// clientKey identifies the caller for PIN throttling. It is the socket peer
// unless that peer is a trusted proxy, in which case X-Forwarded-For is read
// right to left and the first hop outside the trusted set wins.
func (s *Server) clientKey(r *http.Request) string {
	peer, ok := remoteAddr(r)
	if !ok {
		return r.RemoteAddr
	}
	if !s.trusted(peer) {
		return peer.String()
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		hop = hop.Unmap()
		if !s.trusted(hop) {
			return hop.String()
		}
		peer = hop
	}
	return peer.String()
}

func (s *Server) trusted(addr netip.Addr) bool {
	for _, prefix := range s.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
