package rank

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tracerank/internal/errors"
)

// RankLog appends outcome records to a log file. It is safe for concurrent use.
type RankLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenRankLog opens path for appending, creating it and its directory if needed.
func OpenRankLog(path string) (*RankLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.New(errors.IOError, "cannot create rank log directory", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.New(errors.IOError, "cannot open rank log "+path, err)
	}
	return &RankLog{path: path, f: f}, nil
}

// Path returns the log file path.
func (l *RankLog) Path() string { return l.path }

// Append writes one record.
func (l *RankLog) Append(o *Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.f, o.LogLine()); err != nil {
		return errors.New(errors.IOError, "cannot write rank log "+l.path, err)
	}
	return nil
}

// Close closes the log file.
func (l *RankLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// DefaultLogPath places the log in a result_log directory next to the
// directory holding the node-info file:
// <dir(dir(nodes))>/result_log/<unit>_<strategy><suffix>.log
func DefaultLogPath(nodesPath, unit, strategy, suffix string) string {
	root := filepath.Dir(filepath.Dir(nodesPath))
	return filepath.Join(root, "result_log", fmt.Sprintf("%s_%s%s.log", unit, strategy, suffix))
}
