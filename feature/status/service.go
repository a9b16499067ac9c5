package status

import (
	"context"
	"net/http"
	"path"
	"time"

	"change-monitor/core/history"
	"change-monitor/core/storage"
	"change-monitor/feature/monitor"
)

// HistoryReader reads recorded runs. *history.Store satisfies it.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	GetRun(ctx context.Context, id string) (*history.Run, error)
}

// ArchiveReader reads archived run objects. *storage.Archive satisfies it.
type ArchiveReader interface {
	Folder(runID string, startedAt time.Time) string
	Read(ctx context.Context, name string) ([]byte, error)
}

// LastRun exposes the latest run. *monitor.Service satisfies it.
type LastRun interface {
	Last() *monitor.Result
}

// Service gathers the status sources. Every field is optional.
type Service struct {
	History HistoryReader
	Archive ArchiveReader
	Monitor LastRun
	Metrics http.Handler
	Version string
}

// Health is the liveness payload.
type Health struct {
	Status  string     `json:"status"`
	Version string     `json:"version,omitempty"`
	LastRun *RunStatus `json:"last_run,omitempty"`
}

// RunStatus summarizes the latest run.
type RunStatus struct {
	ID         string    `json:"id"`
	Outcome    string    `json:"outcome"`
	FinishedAt time.Time `json:"finished_at"`
	Commits    int       `json:"commits"`
}

// Health reports liveness and the latest run outcome.
func (s *Service) Health() Health {
	h := Health{Status: "ok", Version: s.Version}
	if s.Monitor == nil {
		return h
	}
	if last := s.Monitor.Last(); last != nil {
		h.LastRun = &RunStatus{ID: last.ID, Outcome: last.Outcome(), FinishedAt: last.FinishedAt, Commits: last.Commits}
	}
	return h
}

// ArchivedObject reads object (storage.ReportObject or storage.LogObject) of run id.
func (s *Service) ArchivedObject(ctx context.Context, id, object string) ([]byte, error) {
	run, err := s.History.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Archive.Read(ctx, path.Join(s.Archive.Folder(run.ID, run.StartedAt), object))
}

var _ ArchiveReader = (*storage.Archive)(nil)
var _ HistoryReader = (*history.Store)(nil)
