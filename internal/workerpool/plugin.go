package workerpool

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"
)

// handshakeConfig gates which parent/child pairs will talk to each other;
// it is not a security boundary (spec.md scopes this as a local,
// single-user tool), only a protocol sanity check, mirroring
// hashicorp/go-plugin's own convention (see kadirpekel-hector's
// plugins/grpc/loader.go for the analogous gRPC-transport usage).
var handshakeConfig = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "REDACTQC_WORKER_PLUGIN",
	MagicCookieValue: "v1",
}

// WorkerPlugin implements goplugin.Plugin over net/rpc — no protobuf
// schema needed for a single request/response pair.
type WorkerPlugin struct {
	Impl Worker
}

func (p *WorkerPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *WorkerPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

func pluginMap(impl Worker) map[string]goplugin.Plugin {
	return map[string]goplugin.Plugin{"worker": &WorkerPlugin{Impl: impl}}
}

// rpcServer runs inside the worker subprocess, dispatching registered
// net/rpc calls to the local Worker implementation.
type rpcServer struct {
	impl Worker
}

func (s *rpcServer) ProcessDocument(req Request, resp *Response) error {
	r, err := s.impl.ProcessDocument(req)
	if err != nil {
		return err
	}
	*resp = r
	return nil
}

func (s *rpcServer) Cancel(_ struct{}, _ *struct{}) error {
	return s.impl.Cancel()
}

// rpcClient runs in the host process; it implements Worker by making
// blocking net/rpc calls into the corresponding worker subprocess.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) ProcessDocument(req Request) (Response, error) {
	var resp Response
	err := c.client.Call("Plugin.ProcessDocument", req, &resp)
	return resp, err
}

func (c *rpcClient) Cancel() error {
	return c.client.Call("Plugin.Cancel", struct{}{}, &struct{}{})
}
