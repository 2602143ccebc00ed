package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Archive keeps a copy of every processed document, grouped by batch
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive creates the MinIO client and makes sure the bucket exists
func NewArchive(ctx context.Context, cfg config.MinIOConfig, secret string) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	a := &Archive{client: client, bucket: cfg.Bucket}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// ObjectName returns where a document of a batch is stored
func ObjectName(batchID string, doc models.Document) string {
	return path.Join(batchID, fmt.Sprintf("%03d_%s", doc.Index, path.Base(doc.Name)))
}

// ContentType maps a document format to its MIME type
func ContentType(f models.Format) string {
	switch f {
	case models.FormatPDF:
		return "application/pdf"
	case models.FormatJPEG:
		return "image/jpeg"
	case models.FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Store uploads the document and returns its object name
func (a *Archive) Store(ctx context.Context, batchID string, doc models.Document) (string, error) {
	name := ObjectName(batchID, doc)
	_, err := a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(doc.Data), int64(len(doc.Data)),
		minio.PutObjectOptions{ContentType: ContentType(doc.Format)})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return name, nil
}
