// Package minio archives the corrected documents learning ran against, so
// a rule can always be traced back to the edit that produced it.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Archive stores corrected documents in an object bucket.
type Archive struct {
	client *minio.Client
	bucket string
	logger logging.Logger
}

// NewArchive connects and ensures the bucket exists.
func NewArchive(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "object store client failed")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "bucket check failed")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "bucket create failed")
		}
	}

	return &Archive{client: client, bucket: cfg.Bucket, logger: logger.Named("doc-archive")}, nil
}

// Store uploads a corrected document under the event that learned from it
// and returns the object key.
func (a *Archive) Store(ctx context.Context, workID, eventID string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s/%s.docx", workID, time.Now().UTC().Format("2006/01/02"), eventID)
	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: docxContentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "document archive failed")
	}
	a.logger.Debug("corrected document archived", logging.String("key", key))
	return key, nil
}

// Fetch downloads an archived document by key.
func (a *Archive) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "document fetch failed")
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "document read failed")
	}
	return buf.Bytes(), nil
}
