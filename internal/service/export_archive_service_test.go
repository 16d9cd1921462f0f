package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/pkg/storage"
)

func newArchiveService(t *testing.T) *ExportArchiveService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("archive-secret", time.Hour)
	return NewExportArchiveService(files, signer, zap.NewNop(), ExportArchiveConfig{Workers: 1})
}

func TestExportArchiveRoundTrip(t *testing.T) {
	svc := newArchiveService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	token, expiresAt, err := svc.Archive("teacher-1", "leaves.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	// The write happens on a worker goroutine.
	require.Eventually(t, func() bool {
		file, _, err := svc.Open(token)
		if err != nil {
			return false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		return err == nil && string(data) == "a,b\n1,2\n"
	}, time.Second, 10*time.Millisecond)
}

func TestExportArchiveRejectsForgedToken(t *testing.T) {
	svc := newArchiveService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	_, _, err := svc.Open("not-a-real-token")
	require.Error(t, err)

	token, _, err := svc.Archive("teacher-1", "leaves.csv", []byte("x"))
	require.NoError(t, err)
	_, _, err = svc.Open(token + "tampered")
	require.Error(t, err)
}

func TestExportArchiveRequiresStart(t *testing.T) {
	svc := newArchiveService(t)
	_, _, err := svc.Archive("teacher-1", "leaves.csv", []byte("x"))
	require.Error(t, err)
}
