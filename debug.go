package bramble

import (
	"fmt"
	"log"
	"os"
	"time"
)

// logger receives warnings, failed assertions in release mode, and debug stats.
var logger = log.New(os.Stderr, "[bramble] ", 0)

// SetLogger replaces the package logger. A nil logger restores the default
// stderr logger.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(os.Stderr, "[bramble] ", 0)
	}
	logger = l
}

// globalDebug mirrors the most recently set Engine debug flag so that node
// operations can check it cheaply. Only valid with a single Engine; multiple
// engines with differing debug modes reflect whichever set it last.
var globalDebug bool

// warnf reports a soft condition. The caller turns the operation into a no-op.
func warnf(format string, args ...any) {
	logger.Printf("warning: "+format, args...)
}

// assertf checks a caller contract. In debug mode a violation panics; otherwise
// it is logged and false is returned so the caller can reject the mutation.
func assertf(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if globalDebug {
		panic("bramble: " + msg)
	}
	logger.Printf("assertion failed: %s", msg)
	return false
}

// tickStats holds per-tick timing metrics. Only populated in debug mode.
type tickStats struct {
	timerTime   time.Duration
	actionTime  time.Duration
	updateTime  time.Duration
	physicsTime time.Duration
	actions     int
	timers      int
	colliders   int
	dispatches  int
}

// debugLog prints timing stats for one tick.
func (e *Engine) debugLog(stats tickStats) {
	if !e.cfg.Debug {
		return
	}
	total := stats.timerTime + stats.actionTime + stats.updateTime + stats.physicsTime
	logger.Printf("timers: %v | actions: %v | update: %v | physics: %v | total: %v",
		stats.timerTime, stats.actionTime, stats.updateTime, stats.physicsTime, total)
	logger.Printf("running actions: %d | timers: %d | colliders: %d | dispatches: %d",
		stats.actions, stats.timers, stats.colliders, stats.dispatches)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("bramble debug: %s on disposed node %q", op, n.name))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		warnf("tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		warnf("node %q has %d children (threshold %d)", n.name, len(n.children), debugMaxChildCount)
	}
}
