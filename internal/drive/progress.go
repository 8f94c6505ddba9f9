package drive

import (
	"log/slog"
	"sync"
)

// ProgressLogger is an io.Writer that logs download progress every 5 percent.
type ProgressLogger struct {
	logger  *slog.Logger
	fileID  string
	total   int64
	written int64
	last    int64
	mu      sync.Mutex
}

// NewProgressLogger reports progress of a download of total bytes.
// A non-positive total disables reporting.
func NewProgressLogger(logger *slog.Logger, fileID string, total int64) *ProgressLogger {
	return &ProgressLogger{
		logger: logger,
		fileID: fileID,
		total:  total,
		last:   -1,
	}
}

func (p *ProgressLogger) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}

	pct := p.written * 100 / p.total
	if pct > 100 {
		pct = 100
	}
	if step := pct - pct%5; step > p.last {
		p.last = step
		p.logger.Info("downloading workbook", "file_id", p.fileID, "percent", step, "bytes", p.written)
	}

	return len(b), nil
}
