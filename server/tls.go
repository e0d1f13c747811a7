package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/crypto/acme/autocert"

	"latency.space/orrery/config"
)

// hostPolicy accepts certificate requests only for the configured hosts.
func hostPolicy(hosts []string, logger log.Logger) autocert.HostPolicy {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allowed[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return func(_ context.Context, host string) error {
		if allowed[strings.ToLower(host)] {
			level.Info(logger).Log("msg", "accepting certificate request", "host", host)
			return nil
		}
		level.Warn(logger).Log("msg", "rejecting certificate request", "host", host)
		return fmt.Errorf("host %s not configured", host)
	}
}

// setupTLS builds an autocert-backed TLS config. Certificates are obtained through the
// TLS-ALPN challenge on the serving port, so no port 80 listener is needed.
func setupTLS(cfg config.TLSConfig, logger log.Logger) (*tls.Config, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "certs"
	}
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating certificate cache: %w", err)
	}

	manager := &autocert.Manager{
		Cache:      autocert.DirCache(cacheDir),
		Prompt:     autocert.AcceptTOS,
		HostPolicy: hostPolicy(cfg.Hosts, logger),
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	tlsConfig.CurvePreferences = []tls.CurveID{tls.X25519, tls.CurveP256}
	return tlsConfig, nil
}
