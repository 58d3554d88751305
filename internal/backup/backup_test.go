package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/database"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/store"
)

// mockS3Client implements objectStore for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// liveDB opens a file database holding one location.
func liveDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "live.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := store.NewLocationStore(db).Create(context.Background(), "Main Office", "12 Elm St", true); err != nil {
		t.Fatalf("create location: %v", err)
	}
	return dbPath
}

func newTestRunner(t *testing.T, dbPath string, client objectStore) *Runner {
	t.Helper()
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := NewRunner(db, filepath.Join(t.TempDir(), "backups"), "s3cret", S3Config{Bucket: "practice", Prefix: "nightly"}, testLogger())
	r.client = client
	r.now = func() time.Time { return time.Date(2026, 2, 2, 3, 0, 0, 0, time.UTC) }
	return r
}

func TestS3ConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want bool
	}{
		{"empty", S3Config{}, false},
		{"bucket only", S3Config{Bucket: "b"}, false},
		{"complete", S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunLocalOnly(t *testing.T) {
	r := newTestRunner(t, liveDB(t), nil)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Uploaded || res.Key != "" {
		t.Errorf("uploaded = %v, key = %q; want local only", res.Uploaded, res.Key)
	}
	if filepath.Base(res.Path) != "mcw-20260202T030000Z.db.enc" {
		t.Errorf("path = %q", res.Path)
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if info.Size() != res.Size {
		t.Errorf("size = %d, want %d", info.Size(), res.Size)
	}
}

func TestRunWithoutPassphrase(t *testing.T) {
	r := newTestRunner(t, liveDB(t), nil)
	r.passphrase = ""

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("err = %v, want ErrNoPassphrase", err)
	}
}

func TestRunUploadAndRestore(t *testing.T) {
	mock := newMockS3()
	r := newTestRunner(t, liveDB(t), mock)
	ctx := context.Background()

	res, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Uploaded || res.Key != "nightly/mcw-20260202T030000Z.db.enc" {
		t.Fatalf("uploaded = %v, key = %q", res.Uploaded, res.Key)
	}

	downloaded := filepath.Join(t.TempDir(), "download.enc")
	if err := r.Download(ctx, res.Key, downloaded); err != nil {
		t.Fatalf("download: %v", err)
	}

	restored := filepath.Join(t.TempDir(), "restored.db")
	if err := Restore(ctx, downloaded, restored, "s3cret"); err != nil {
		t.Fatalf("restore: %v", err)
	}

	db, err := database.Open(restored)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer db.Close()

	locs, err := store.NewLocationStore(db).List(ctx)
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	if len(locs) != 1 || locs[0].Name != "Main Office" {
		t.Errorf("locations = %+v, want Main Office", locs)
	}
}

func TestRunUploadFailure(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("bucket gone")
	r := newTestRunner(t, liveDB(t), mock)

	res, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if res == nil || res.Uploaded {
		t.Fatalf("res = %+v, want local result without upload", res)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("local backup missing: %v", err)
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	r := newTestRunner(t, liveDB(t), nil)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	target := filepath.Join(t.TempDir(), "restored.db")
	err = Restore(context.Background(), res.Path, target, "guess")
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Error("target should not exist after failed restore")
	}
}

func TestDownloadWithoutStorage(t *testing.T) {
	r := newTestRunner(t, liveDB(t), nil)
	if err := r.Download(context.Background(), "k", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error without storage")
	}
}
