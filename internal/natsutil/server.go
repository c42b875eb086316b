package natsutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// ErrServerNotReady is returned when the embedded server does not accept
// connections within the start timeout.
var ErrServerNotReady = errors.New("embedded NATS server not ready")

// EmbeddedConfig configures an in-process NATS server.
type EmbeddedConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	StoreDir string `yaml:"storeDir"`

	// StartTimeout bounds the wait for the server to accept connections.
	StartTimeout time.Duration `yaml:"startTimeout"`
}

// StartEmbedded starts a single NATS server with JetStream enabled.
//
// The caller owns the returned server and must Shutdown it. Port 0 or -1
// picks a random free port; use ClientURL() to connect.
//
// Parameters:
//   - cfg: Listen address and JetStream storage directory
//
// Returns:
//   - *server.Server: Running server
//   - error: Creation failure or ErrServerNotReady
func StartEmbedded(cfg EmbeddedConfig) (*server.Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = -1
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 5 * time.Second
	}

	ns, err := server.NewServer(&server.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		JetStream: true,
		StoreDir:  cfg.StoreDir,
		NoLog:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(cfg.StartTimeout) {
		ns.Shutdown()
		return nil, ErrServerNotReady
	}

	return ns, nil
}
