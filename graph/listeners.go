package graph

import (
	"context"
	"sync"
	"time"

	"github.com/smallnest/collabgraph/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed and its delta was merged
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"

	// EventChainStart indicates the graph execution has started
	EventChainStart NodeEvent = "chain_start"

	// EventChainEnd indicates the graph execution has finished, successfully or not
	EventChainEnd NodeEvent = "chain_end"
)

// NodeListener defines the interface for node event listeners. Run details such
// as the thread ID and step are available through RunInfoFromContext.
type NodeListener interface {
	// OnNodeEvent is called when a node event occurs
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, nodeName string, state any, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error) {
	f(ctx, event, nodeName, state, err)
}

// LoggingListener logs node events through a log.Logger.
type LoggingListener struct {
	logger log.Logger

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewLoggingListener creates a listener writing to logger, or to the package
// default logger when logger is nil.
func NewLoggingListener(logger log.Logger) *LoggingListener {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &LoggingListener{logger: logger, starts: make(map[string]time.Time)}
}

// OnNodeEvent implements NodeListener. It is safe to share between threads.
func (l *LoggingListener) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, _ any, err error) {
	info, _ := RunInfoFromContext(ctx)
	key := info.RunID + "/" + nodeName

	l.mu.Lock()
	defer l.mu.Unlock()
	switch event {
	case EventChainStart:
		l.logger.Info("thread %s: run %s started", info.ThreadID, info.RunID)
	case NodeEventStart:
		l.starts[key] = time.Now()
		l.logger.Debug("thread %s: step %d node %s started", info.ThreadID, info.Step, nodeName)
	case NodeEventComplete:
		l.logger.Info("thread %s: step %d node %s completed in %v", info.ThreadID, info.Step, nodeName, time.Since(l.starts[key]))
		delete(l.starts, key)
	case NodeEventError:
		l.logger.Error("thread %s: step %d node %s failed: %v", info.ThreadID, info.Step, nodeName, err)
		delete(l.starts, key)
	case EventChainEnd:
		if err != nil {
			l.logger.Warn("thread %s: run %s stopped: %v", info.ThreadID, info.RunID, err)
			return
		}
		l.logger.Info("thread %s: run %s finished", info.ThreadID, info.RunID)
	}
}
