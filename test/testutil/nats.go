package testutil

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/internal/natsutil"
)

// RestartableNATS is an embedded JetStream server that can be stopped and
// started again on the same port and storage directory, so file-backed KV
// data survives a restart.
type RestartableNATS struct {
	t   *testing.T
	cfg natsutil.EmbeddedConfig
	srv *server.Server
}

// StartRestartableNATS starts a server on a free port with file storage in
// a test temp directory. The server is shut down on test cleanup.
func StartRestartableNATS(t *testing.T) *RestartableNATS {
	t.Helper()

	r := &RestartableNATS{
		t: t,
		cfg: natsutil.EmbeddedConfig{
			Host:     "127.0.0.1",
			Port:     freePort(t),
			StoreDir: t.TempDir(),
		},
	}
	r.Start()

	t.Cleanup(r.Stop)

	return r
}

// Start starts the server if it is not running.
func (r *RestartableNATS) Start() {
	r.t.Helper()

	if r.srv != nil {
		return
	}

	srv, err := natsutil.StartEmbedded(r.cfg)
	require.NoError(r.t, err)
	r.srv = srv
}

// Stop shuts the server down and waits for it.
func (r *RestartableNATS) Stop() {
	if r.srv == nil {
		return
	}

	r.srv.Shutdown()
	r.srv.WaitForShutdown()
	r.srv = nil
}

// URL returns the client URL; it stays the same across restarts.
func (r *RestartableNATS) URL() string {
	return "nats://" + net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port))
}

// Connect opens a client that keeps reconnecting across restarts.
func (r *RestartableNATS) Connect() *nats.Conn {
	r.t.Helper()

	nc, err := nats.Connect(r.URL(),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(100*time.Millisecond),
		nats.RetryOnFailedConnect(true),
	)
	require.NoError(r.t, err)
	r.t.Cleanup(nc.Close)

	return nc
}

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}
