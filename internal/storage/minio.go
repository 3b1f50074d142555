// Package storage guarda os anexos (boleto, nota fiscal) no MinIO/S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Attachments struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinio conecta e cria o bucket (privado) se ainda não existir.
func NewMinio(ctx context.Context, o Options) (*Attachments, error) {
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &Attachments{client: client, bucket: o.Bucket, now: time.Now}, nil
}

// ObjectKey monta "<prefix>/<numero>/<unixnano>_<arquivo>".
func ObjectKey(prefix, numero, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "arquivo"
	}
	return fmt.Sprintf("%s/%s/%d_%s", prefix, numero, at.UnixNano(), name)
}

// Put envia o conteúdo e devolve a chave do objeto.
func (a *Attachments) Put(ctx context.Context, prefix, numero, filename string, r io.Reader, size int64) (string, error) {
	key := ObjectKey(prefix, numero, filename, a.now())
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	if _, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{ContentType: ct}); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (a *Attachments) Remove(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// URL gera um link temporário de download.
func (a *Attachments) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
