package workerpool

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	hclog "github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/redactqc/redactqc/internal/config"
)

// workerSlot pairs a live plugin client with its dispensed RPC stub so a
// dead process can be replaced in place (spec.md §4.5 "a worker process
// that dies hard is replaced by the pool").
type workerSlot struct {
	client *goplugin.Client
	worker Worker
}

// Pool dispatches jobs to worker_count worker subprocesses, re-spawned
// fresh per spec.md §4.5 ("spawn", not "fork").
type Pool struct {
	exePath     string
	chunkSize   int
	workerCount int

	mu    sync.Mutex
	slots []*workerSlot

	cancelled atomic.Bool
}

// NewPool spawns worker_count worker processes, clamped to [1, CPU-1]
// (spec.md §4.5, via config.ClampWorkerCount).
func NewPool(workerCount, chunkSize int) (*Pool, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("workerpool.NewPool: resolve executable: %w", err)
	}

	p := &Pool{
		exePath:     exePath,
		chunkSize:   chunkSize,
		workerCount: config.ClampWorkerCount(workerCount),
	}

	for i := 0; i < p.workerCount; i++ {
		slot, err := p.spawn()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("workerpool.NewPool: spawn worker %d: %w", i, err)
		}
		p.slots = append(p.slots, slot)
	}
	return p, nil
}

func (p *Pool) spawn() (*workerSlot, error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  handshakeConfig,
		Plugins:          pluginMap(nil),
		Cmd:              exec.Command(p.exePath, "--worker-mode"),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           hclog.NewNullLogger(),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, err
	}
	raw, err := rpcClient.Dispense("worker")
	if err != nil {
		client.Kill()
		return nil, err
	}
	worker, ok := raw.(Worker)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed plugin does not implement Worker")
	}
	return &workerSlot{client: client, worker: worker}, nil
}

// respawn replaces a dead slot in place, holding p.mu for the duration.
func (p *Pool) respawn(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled.Load() {
		return
	}
	old := p.slots[index]
	if old.client != nil {
		old.client.Kill()
	}

	fresh, err := p.spawn()
	if err != nil {
		slog.Error("workerpool: failed to respawn worker, slot left dead", "index", index, "error", err)
		return
	}
	p.slots[index] = fresh
}

func (p *Pool) workerAt(index int) Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots[index].worker
}

type jobResult struct {
	docID string
	resp  Response
}

// Submit dispatches jobs across the pool's worker subprocesses and invokes
// onResult for each completion in arbitrary order (spec.md §4.5). It
// blocks until every worker has drained its share of jobs or Cancel() has
// been called and all in-flight documents have returned.
func (p *Pool) Submit(jobs []Job, confidenceThreshold float64, onResult func(docID string, resp Response)) {
	jobCh := make(chan Job)
	results := make(chan jobResult, p.chunkSize*2)

	var wg sync.WaitGroup
	for i := range p.slots {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			p.runWorker(index, jobCh, results, confidenceThreshold)
		}(i)
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			if p.cancelled.Load() {
				return
			}
			jobCh <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		onResult(r.docID, r.resp)
	}
}

// runWorker pulls jobs for a single slot until jobCh closes or the pool is
// cancelled, respawning its slot if the RPC call fails outright (process
// death) rather than returning a normal Response.
func (p *Pool) runWorker(index int, jobCh <-chan Job, results chan<- jobResult, confidenceThreshold float64) {
	for job := range jobCh {
		if p.cancelled.Load() {
			continue
		}

		worker := p.workerAt(index)
		resp, err := worker.ProcessDocument(Request{
			DocID:               job.DocID,
			Filepath:            job.Filepath,
			ConfidenceThreshold: confidenceThreshold,
		})
		if err != nil {
			slog.Error("workerpool: worker RPC failed, respawning", "doc_id", job.DocID, "index", index, "error", err)
			p.respawn(index)
			resp = Response{Outcome: OutcomeInternal, ErrMessage: err.Error()}
		}
		results <- jobResult{docID: job.DocID, resp: resp}
	}
}

// Cancel sets the shared cancellation flag and signals every live worker;
// in-flight documents finish their current page then return Cancelled
// (spec.md §4.5 "Cancellation").
func (p *Pool) Cancel() {
	p.cancelled.Store(true)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, slot := range p.slots {
		if err := slot.worker.Cancel(); err != nil {
			slog.Warn("workerpool: cancel RPC failed", "index", i, "error", err)
		}
	}
}

// Close kills every worker subprocess. Call once the pool is no longer
// needed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, slot := range p.slots {
		if slot != nil && slot.client != nil {
			slot.client.Kill()
		}
	}
}
