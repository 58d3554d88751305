// Package backup writes encrypted snapshots of the practice database,
// optionally shipping them to S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

// ErrNoPassphrase is returned when a backup is requested without a passphrase.
var ErrNoPassphrase = errors.New("backup passphrase not configured")

// objectStore is the part of the S3 client backups use.
type objectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether enough is set to upload.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Result describes a finished backup.
type Result struct {
	Path     string    `json:"path"`
	Key      string    `json:"key,omitempty"`
	Size     int64     `json:"size"`
	Uploaded bool      `json:"uploaded"`
	TakenAt  time.Time `json:"taken_at"`
}

type Runner struct {
	db         *sql.DB
	dir        string
	passphrase string
	bucket     string
	prefix     string
	client     objectStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner returns a Runner writing encrypted snapshots into dir. Uploads
// are skipped when s3cfg is not enabled.
func NewRunner(db *sql.DB, dir, passphrase string, s3cfg S3Config, logger *slog.Logger) *Runner {
	r := &Runner{
		db:         db,
		dir:        dir,
		passphrase: passphrase,
		bucket:     s3cfg.Bucket,
		prefix:     s3cfg.Prefix,
		logger:     logger,
		now:        time.Now,
	}
	if s3cfg.Enabled() {
		r.client = newS3Client(s3cfg)
	}
	return r
}

// Snapshot writes a consistent copy of the live database to dst, which must
// not exist yet.
func (r *Runner) Snapshot(ctx context.Context, dst string) error {
	if _, err := r.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	return nil
}

// Run snapshots, encrypts, and stores one backup.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.passphrase == "" {
		return nil, ErrNoPassphrase
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	takenAt := r.now().UTC()
	name := fmt.Sprintf("mcw-%s.db.enc", takenAt.Format("20060102T150405Z"))

	tmpDir, err := os.MkdirTemp("", "mcw-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if err := r.Snapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Seal(plaintext, r.passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	res := &Result{
		Path:    filepath.Join(r.dir, name),
		Size:    int64(len(sealed)),
		TakenAt: takenAt,
	}
	if err := os.WriteFile(res.Path, sealed, 0o600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	if r.client != nil {
		res.Key = path.Join(r.prefix, name)
		_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(r.bucket),
			Key:           aws.String(res.Key),
			Body:          bytes.NewReader(sealed),
			ContentLength: aws.Int64(res.Size),
		})
		if err != nil {
			return res, fmt.Errorf("upload to s3: %w", err)
		}
		res.Uploaded = true
	}

	r.logger.Info("backup complete", "path", res.Path, "size", res.Size, "uploaded", res.Uploaded)
	return res, nil
}

// Schedule runs a backup every interval until ctx is done. Failures are
// logged and retried at the next tick.
func (r *Runner) Schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil {
				r.logger.Error("scheduled backup failed", "error", err)
			}
		}
	}
}

// Download copies the encrypted object stored under key to dst.
func (r *Runner) Download(ctx context.Context, key, dst string) error {
	if r.client == nil {
		return errors.New("backup storage not configured")
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	return nil
}

// Restore decrypts the backup at src, checks its integrity, and replaces
// the database at dbPath. The server must not be running.
func Restore(ctx context.Context, src, dbPath, passphrase string) error {
	sealed, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return err
	}

	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(ctx, tmp); err != nil {
		return err
	}

	if err := os.Rename(tmp, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	return nil
}

func checkIntegrity(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
