package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caddyserver/certmagic"
	"github.com/spf13/viper"
)

// CertMagicConfig configures automatic certificate management with CertMagic.
type CertMagicConfig struct {
	Domains    []string
	Email      string
	StorageDir string // defaults to $XDG_CACHE_HOME/classkit/certmagic
	CA         string // defaults to Let's Encrypt prod
	// EnableHTTP01 returns a handler answering HTTP-01 challenges on :80.
	EnableHTTP01 bool
}

// BuildCertMagicTLS provisions or loads certificates for the configured
// domains and returns the TLS config plus an optional HTTP-01 handler that
// redirects everything else to HTTPS.
func BuildCertMagicTLS(ctx context.Context, cfg CertMagicConfig) (*tls.Config, http.Handler, error) {
	if len(cfg.Domains) == 0 {
		return nil, nil, errors.New("at least one domain is required")
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = defaultCertDir()
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: cfg.StorageDir}
	ai := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:                   ifEmpty(cfg.CA, certmagic.LetsEncryptProductionCA),
		Email:                cfg.Email,
		Agreed:               true,
		DisableHTTPChallenge: !cfg.EnableHTTP01,
	})
	cm.Issuers = []certmagic.Issuer{ai}

	if err := cm.ManageSync(ctx, cfg.Domains); err != nil {
		return nil, nil, err
	}
	tlsConf := cm.TLSConfig()
	tlsConf.NextProtos = append([]string{"h2", "http/1.1"}, tlsConf.NextProtos...)
	tlsConf.MinVersion = tls.VersionTLS12

	if cfg.EnableHTTP01 {
		return tlsConf, ai.HTTPChallengeHandler(http.HandlerFunc(redirectHTTPS)), nil
	}
	return tlsConf, nil, nil
}

func redirectHTTPS(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
}

func certStorageDir(v *viper.Viper) string {
	if dir := v.GetString("data_dir"); dir != "" {
		return filepath.Join(dir, "certmagic")
	}
	return defaultCertDir()
}

func defaultCertDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "classkit", "certmagic")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "classkit", "certmagic")
}

func ifEmpty(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
