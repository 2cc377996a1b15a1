// Package workerpool runs Pipeline in independent OS processes (spec.md
// §4.5). Detection is CPU-bound and the NER model holds process-global
// state unsafe to share across goroutines in one process, so each worker
// is a freshly spawned child re-exec of the current binary, generalized
// from kadirpekel-hector's gRPC plugin host/loader pair
// (plugins/grpc/loader.go, see DESIGN.md) onto hashicorp/go-plugin's simpler net/rpc transport — no
// protobuf codegen needed for a single typed RPC method.
package workerpool

import "github.com/redactqc/redactqc/internal/model"

// Job is one unit of work dispatched to a worker process.
type Job struct {
	DocID    string
	Filepath string
}

// Request is the RPC payload sent to a worker for one document.
type Request struct {
	DocID               string
	Filepath            string
	ConfidenceThreshold float64
}

// Response is the RPC payload a worker returns for one document. Outcome
// mirrors pipeline.Outcome as a plain string since net/rpc's gob wire
// format wants no cross-package named-type coupling.
type Response struct {
	Outcome    string
	PageCount  int
	Findings   []model.Finding
	ErrMessage string
}

const (
	OutcomeOk          = "ok"
	OutcomeCancelled   = "cancelled"
	OutcomeExtractFail = "extract_fail"
	OutcomeInternal    = "internal_error"
)

// Worker is the capability a worker process exposes over RPC: run one
// document, and accept a cooperative cancellation signal.
type Worker interface {
	ProcessDocument(req Request) (Response, error)
	Cancel() error
}
