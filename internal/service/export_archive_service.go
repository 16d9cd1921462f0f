package service

import (
	"context"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
	"github.com/mowamiyya/leaveMangement/pkg/jobs"
	"github.com/mowamiyya/leaveMangement/pkg/storage"
)

type archivePayload struct {
	RelPath string
	Data    []byte
}

// ExportArchiveConfig tunes the archive worker pool and retention sweep.
type ExportArchiveConfig struct {
	Workers   int
	LinkTTL   time.Duration
	Retention time.Duration
}

// ExportArchiveService persists a copy of every generated leave export on
// disk via a background queue and hands out signed download tokens for the
// archived files. Archiving is best effort: a full queue never blocks the
// download that triggered it.
type ExportArchiveService struct {
	queue     *jobs.Queue
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	retention time.Duration
}

// NewExportArchiveService constructs the archive service. Call Start before
// enqueueing and Stop on shutdown.
func NewExportArchiveService(files *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, config ExportArchiveConfig) *ExportArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportArchiveService{
		files:     files,
		signer:    signer,
		logger:    logger,
		retention: config.Retention,
	}
	s.queue = jobs.NewQueue("export-archive", s.handle, jobs.QueueConfig{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the archive workers and the retention sweeper.
func (s *ExportArchiveService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.retention > 0 {
		go s.sweep(ctx)
	}
}

// Stop drains the workers.
func (s *ExportArchiveService) Stop() {
	s.queue.Stop()
}

// Archive schedules the rendered export for persistence and returns a signed
// token the owner can later redeem for the archived file.
func (s *ExportArchiveService) Archive(ownerID, filename string, data []byte) (string, time.Time, error) {
	jobID := uuid.NewString()
	relPath := path.Join(ownerID, filename)

	payload := archivePayload{RelPath: relPath, Data: data}
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "archive-export", Payload: payload}); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export archive")
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	return token, expiresAt, nil
}

// Open validates a signed token and returns the archived file. The file may
// not exist yet if the archive job is still queued, or anymore once the
// retention sweep removed it; both surface as not found.
func (s *ExportArchiveService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, http.StatusForbidden, "invalid or expired export link")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, "archived export not found")
	}
	return file, path.Base(relPath), nil
}

func (s *ExportArchiveService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(archivePayload)
	if !ok {
		s.logger.Warn("dropping archive job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if _, err := s.files.Save(payload.RelPath, payload.Data); err != nil {
		return err
	}
	s.logger.Debug("export archived", zap.String("job_id", job.ID), zap.String("path", payload.RelPath))
	return nil
}

func (s *ExportArchiveService) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.files.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Warn("export retention sweep failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
			}
		}
	}
}
