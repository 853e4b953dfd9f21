package server

import (
	"net/http"
	"testing"

	"github.com/vrprouting/vrp-service/pkg/config"
	"github.com/vrprouting/vrp-service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Init("error")
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "test-app"},
		HTTP: config.HTTPConfig{Port: 18080},
		RateLimit: config.RateLimitConfig{
			Enabled: false,
		},
		Audit: config.AuditConfig{
			Enabled: false,
		},
	}

	srv := New(cfg, http.NewServeMux())
	assert.NotNil(t, srv)
	assert.Nil(t, srv.GetAuditLogger())
	assert.False(t, srv.Ready())
}

func TestNewServer_WithOptions(t *testing.T) {
	cfg := &config.Config{
		App:   config.AppConfig{Name: "test-app"},
		HTTP:  config.HTTPConfig{Port: 18081},
		Audit: config.AuditConfig{Enabled: true},
	}

	opts := &Options{
		AuditLogger: nil,
	}

	srv := NewWithOptions(cfg, http.NewServeMux(), opts)
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.GetAuditLogger())
}
