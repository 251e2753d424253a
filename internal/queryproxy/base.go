// Package queryproxy implements the base query proxy shared by every
// specialized proxy: one mutex-guarded answer queue, the finished/
// abort/count flags, and the proxy node that ties this proxy to its
// ephemeral RPC endpoint.
package queryproxy

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/metrics"
	"github.com/singnet/dasbus/internal/portpool"
	"github.com/singnet/dasbus/internal/proxynode"
	"github.com/singnet/dasbus/internal/starnode"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

var log = logging.Scope("proxy")

// Base holds every field and invariant the base query proxy owns. All
// mutable state lives behind mu, and every method that reads or changes it
// (Push, Pop, Abort, Finished and the other accessors) takes mu, matching
// the single-mutex concurrency model the rest of the runtime assumes.
type Base struct {
	mu sync.Mutex

	answerQueue        []string
	answerFlowFinished bool
	countFlag          bool
	abortFlag          bool
	evalFitnessQueue   []string
	serviceList        map[string]string
	contextCreated     bool

	answerCount atomic.Uint64

	Command     string
	Args        []string
	RequestorID string
	Serial      uint64
	ProxyPort   uint16
	ContextName string
	ContextKey  string
	Properties  *properties.Properties

	proxyNode *proxynode.Node

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Base for command with the given query parameters. Count-only
// queries (properties.CountFlag) start with countFlag already set.
func New(command string, props *properties.Properties, requestorID string) *Base {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Base{
		Command:     command,
		Properties:  props,
		RequestorID: requestorID,
		serviceList: map[string]string{},
		ctx:         ctx,
		cancel:      cancel,
	}
	if props != nil && props.Has(properties.CountFlag) {
		b.countFlag = props.Get(properties.CountFlag).AsBool()
	}
	metrics.ActiveProxies.Inc()
	return b
}

// Push appends one answer token to the queue and increments answer_count,
// unconditionally: answer_count must equal the total number of push calls
// regardless of pops, finished/abort state, or delivery ordering.
func (b *Base) Push(token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answerQueue = append(b.answerQueue, token)
	b.answerCount.Inc()
	metrics.AnswersPushed.Inc()
	return nil
}

// Pop removes and returns the oldest queued answer. It returns ("", false)
// when the queue is empty or when countFlag/abortFlag suppress delivery:
// once aborted, no further pops are ever served.
func (b *Base) Pop() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.countFlag || b.abortFlag {
		return "", false
	}
	if len(b.answerQueue) == 0 {
		return "", false
	}
	head := b.answerQueue[0]
	b.answerQueue = b.answerQueue[1:]
	return head, true
}

// GetCount returns the running total of answers ever pushed. It is
// monotonically non-decreasing for the life of the proxy.
func (b *Base) GetCount() uint64 {
	return b.answerCount.Load()
}

// Abort sets the abort flag; once set it is never cleared.
func (b *Base) Abort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abortFlag = true
}

// SetFinished marks the answer flow as complete (a finished/abort marker
// arrived on the wire).
func (b *Base) SetFinished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answerFlowFinished = true
}

// SetContextCreated records that a context_broker proxy's context is ready.
func (b *Base) SetContextCreated() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contextCreated = true
}

// ContextCreated reports whether SetContextCreated has been called.
func (b *Base) ContextCreated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contextCreated
}

// SetOwnership records a set_command_ownership announcement discovered via
// this proxy's inbound endpoint (the discovery proxy uses this to build up
// the command registry it periodically flushes into the bus node).
func (b *Base) SetOwnership(owner, command string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.serviceList[command] = owner
}

// ServiceList returns a snapshot of the owner map discovered so far.
func (b *Base) ServiceList() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.serviceList))
	for k, v := range b.serviceList {
		out[k] = v
	}
	return out
}

// QueueEvalFitness extends the eval_fitness queue (the evolution marker
// itself included, filtered out by internal/evolution when draining).
func (b *Base) QueueEvalFitness(args []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evalFitnessQueue = append(b.evalFitnessQueue, args...)
}

// DrainEvalFitness removes and returns everything queued so far.
func (b *Base) DrainEvalFitness() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.evalFitnessQueue
	b.evalFitnessQueue = nil
	return out
}

// Finished reports whether the answer flow is over: abortFlag
// short-circuits true; otherwise the flow must both be marked finished and
// have nothing left queued (or be in count-only mode, which never queues
// answers at all).
func (b *Base) Finished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.abortFlag {
		return true
	}
	return b.answerFlowFinished && (b.countFlag || len(b.answerQueue) == 0)
}

// SetRemotePeer updates the proxy node's outbound target, used when an
// eval_fitness frame arrives bearing a different sender than the peer this
// proxy was originally opened against.
func (b *Base) SetRemotePeer(peerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proxyNode != nil {
		b.proxyNode.SetPeerID(peerID)
	}
}

// Sink adapts Base's mutators to the closures internal/starnode dispatches
// into.
func (b *Base) Sink() starnode.Sink {
	return starnode.Sink{
		Push:             b.Push,
		SetOwnership:     b.SetOwnership,
		QueueEvalFitness: b.QueueEvalFitness,
		SetAbort:         b.Abort,
		SetFinished:      b.SetFinished,
		SetRemotePeer:    b.SetRemotePeer,
	}
}

// SetupProxyNode opens this proxy's ephemeral inbound endpoint and binds an
// outbound target. When clientID is empty this is the requestor side: the
// local bind address is derived from the requestor's own host combined
// with the already-leased ProxyPort. When clientID is non-empty this is the
// processor side, started directly against the given client/server ids.
func (b *Base) SetupProxyNode(host string, clientID, peerID string) error {
	dispatcher := starnode.NewDispatcher(b.Sink())

	bindHost := host
	port := b.ProxyPort
	target := peerID
	if clientID != "" {
		h, p, err := proxynode.ParseHostPort(clientID)
		if err != nil {
			return err
		}
		bindHost, port = h, p
	}

	node, err := proxynode.New(bindHost, port, target, dispatcher)
	if err != nil {
		return fmt.Errorf("queryproxy: setting up proxy node: %w", err)
	}
	b.mu.Lock()
	b.proxyNode = node
	b.mu.Unlock()
	return nil
}

// ToRemotePeer appends command to args and sends a fire-and-forget frame to
// this proxy's remote peer.
func (b *Base) ToRemotePeer(command string, args []string) error {
	b.mu.Lock()
	node := b.proxyNode
	b.mu.Unlock()
	if node == nil {
		return fmt.Errorf("queryproxy: proxy node not set up")
	}
	node.ToRemotePeer(command, args)
	return nil
}

// ProxyNodeID returns this proxy's own local node id ("host:port"), or ""
// if SetupProxyNode has not run yet.
func (b *Base) ProxyNodeID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proxyNode == nil {
		return ""
	}
	return b.proxyNode.LocalID()
}

// Close tears the proxy down: it cancels the internal context, then spawns
// exactly one goroutine that closes the proxy node (stopping its inbound
// server, closing its outbound connection and releasing its port).
// Outbound sends already started by ToRemotePeer are not waited for. The
// caller (a drain loop) never blocks on RPC server shutdown.
func (b *Base) Close() {
	b.cancel()
	metrics.ActiveProxies.Dec()
	go func() {
		b.wg.Wait()
		b.mu.Lock()
		node := b.proxyNode
		b.proxyNode = nil
		b.mu.Unlock()
		if node != nil {
			if err := node.Close(); err != nil {
				log.Warnw("error closing proxy node", "error", err)
			}
		}
	}()
}

// AcquirePort leases a fresh port for this proxy from the process pool.
func (b *Base) AcquirePort() error {
	pool, err := portpool.Instance()
	if err != nil {
		return err
	}
	port, err := pool.Acquire()
	if err != nil {
		metrics.PortPoolExhausted.Inc()
		return err
	}
	b.ProxyPort = port
	return nil
}

// Context returns the proxy's lifetime context, cancelled by Close.
func (b *Base) Context() context.Context { return b.ctx }
