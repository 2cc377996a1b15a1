package workerpool

import (
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/redactqc/redactqc/internal/config"
)

// Serve runs the current process as a worker, blocking until the parent
// closes its end of the connection. cmd/redactqc/main.go calls this when
// re-exec'd with --worker-mode (spec.md §4.5 "spawned afresh").
func Serve(cfg *config.Config) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: handshakeConfig,
		Plugins:         pluginMap(newLocalWorker(cfg)),
	})
}
