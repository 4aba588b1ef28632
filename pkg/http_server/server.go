package http_server

import (
	"net"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
)

// NewServer binds to the configured host only. The API has a single local
// consumer and must not be reachable from the network by default.
func NewServer(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
