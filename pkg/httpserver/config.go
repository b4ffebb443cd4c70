package httpserver

import "time"

// Config carries the server settings read from the environment.
type Config struct {
	Addr              string        `env:"NOTIFY_HTTP_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"NOTIFY_HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	IdleTimeout       time.Duration `env:"NOTIFY_HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownGrace     time.Duration `env:"NOTIFY_HTTP_SHUTDOWN_GRACE" envDefault:"10s"`
}

// NewFromConfig creates a Server from Config. Zero values fall back to
// the package defaults; extra options apply on top.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 4+len(opts))

	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadHeaderTimeout > 0 {
		configOpts = append(configOpts, WithReadHeaderTimeout(cfg.ReadHeaderTimeout))
	}
	if cfg.IdleTimeout > 0 {
		configOpts = append(configOpts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownGrace > 0 {
		configOpts = append(configOpts, WithShutdownGrace(cfg.ShutdownGrace))
	}
	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
