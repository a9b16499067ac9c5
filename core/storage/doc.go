// Package storage archives run reports in S3 compatible object storage.
//
// It wraps the MinIO Go client behind the Client interface so the archive can
// be tested with the testify mock in core/storage/mocks. Both AWS S3 and
// self-hosted MinIO are supported.
//
// # Archive
//
// Every run is stored under
//
//	<prefix>/<yyyy>/<mm>/<dd>/<run id>/report.json
//	<prefix>/<yyyy>/<mm>/<dd>/<run id>/run.log
//
// Prune lists the prefix and removes the objects older than RetentionDays.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage, log)
//	if err := archive.EnsureBucket(ctx); err != nil {
//	    return err
//	}
//	folder, err := archive.Store(ctx, run.ID, run.StartedAt, reportJSON, runLog)
package storage
