package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Object names inside a run folder.
const (
	ReportObject = "report.json"
	LogObject    = "run.log"
)

// Archive stores run reports in a bucket under <prefix>/<yyyy>/<mm>/<dd>/<run id>/.
type Archive struct {
	client    Client
	bucket    string
	prefix    string
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewArchive creates an Archive on client.
func NewArchive(client Client, cfg Config, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	a.logger.Info("Creating bucket", zap.String("bucket", a.bucket))
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Folder returns the object folder of a run.
func (a *Archive) Folder(runID string, startedAt time.Time) string {
	return path.Join(a.prefix, startedAt.UTC().Format("2006/01/02"), runID)
}

// Store uploads the JSON report and, when not empty, the run log.
// It returns the folder the objects were written to.
func (a *Archive) Store(ctx context.Context, runID string, startedAt time.Time, report, log []byte) (string, error) {
	folder := a.Folder(runID, startedAt)
	if err := a.put(ctx, path.Join(folder, ReportObject), report, "application/json"); err != nil {
		return "", err
	}
	if len(log) > 0 {
		if err := a.put(ctx, path.Join(folder, LogObject), log, "text/plain; charset=utf-8"); err != nil {
			return "", err
		}
	}
	a.logger.Info("Archived run report", zap.String("bucket", a.bucket), zap.String("folder", folder))
	return folder, nil
}

func (a *Archive) put(ctx context.Context, name string, content []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// Read downloads one archived object.
func (a *Archive) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer obj.Close()
	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return content, nil
}

// Prune removes archived objects older than the retention period and returns
// how many were removed. A zero retention keeps everything.
func (a *Archive) Prune(ctx context.Context) (int, error) {
	if a.retention <= 0 {
		return 0, nil
	}
	cutoff := a.now().Add(-a.retention)

	var expired []minio.ObjectInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("list %s: %w", a.bucket, obj.Err)
		}
		if obj.LastModified.Before(cutoff) {
			expired = append(expired, obj)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	objects := make(chan minio.ObjectInfo, len(expired))
	for _, obj := range expired {
		objects <- obj
	}
	close(objects)

	var errs []error
	for rmErr := range a.client.RemoveObjects(ctx, a.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", rmErr.ObjectName, rmErr.Err))
	}
	removed := len(expired) - len(errs)
	a.logger.Info("Pruned archive", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return removed, errors.Join(errs...)
}
