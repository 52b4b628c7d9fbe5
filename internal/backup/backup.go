// Package backup snapshots the household store, encrypts it with a
// passphrase and ships it to S3-compatible storage or a local file.
package backup

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/kidpoints/internal/store"
)

var ErrNotConfigured = errors.New("backup not configured")

// s3Client is the subset of *s3.Client the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3            S3Config
	Prefix        string
	Passphrase    string
	RetentionDays int
	// Interval between scheduled backups. Zero disables the schedule.
	Interval time.Duration
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	LastKey    string     `json:"lastKey,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"inProgress"`
}

// StatusCallback is called whenever the manager's state changes.
type StatusCallback func(Status)

// Object describes one stored backup.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Manager uploads encrypted snapshots of a KV store and restores them.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	client   s3Client

	kv     store.KV
	reload func() error
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager returns a manager over kv. reload is called after a restore so
// in-memory state picks up the restored slots.
func NewManager(cfg Config, kv store.KV, reload func() error, callback StatusCallback, logger *slog.Logger) *Manager {
	if cfg.Prefix == "" {
		cfg.Prefix = "kidpoints"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:      cfg,
		kv:       kv,
		reload:   reload,
		callback: callback,
		logger:   logger,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.complete() && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
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

func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
		s.LastKey = m.status.LastKey
	}
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(err error) error {
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

// Start runs a backup every Interval until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runScheduled(ctx)
			}
		}
	}()
}

// Stop waits for the schedule loop to exit. Safe to call more than once.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) runScheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
		return
	}
	if err := m.Cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow uploads a snapshot immediately and returns its object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.RLock()
	client := m.client
	cfg := m.cfg
	m.mu.RUnlock()
	if client == nil {
		return "", ErrNotConfigured
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	now := m.now().UTC()
	snap, err := TakeSnapshot(m.kv, now)
	if err != nil {
		return "", m.fail(err)
	}
	data, err := seal(snap, cfg.Passphrase)
	if err != nil {
		return "", m.fail(err)
	}

	key := fmt.Sprintf("%s/backup-%s.json.enc", cfg.Prefix, now.Format("2006-01-02T150405Z"))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now, LastKey: key})
	m.logger.Info("backup uploaded", "key", key, "bytes", len(data))
	return key, nil
}

// List returns stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	m.mu.RLock()
	client := m.client
	cfg := m.cfg
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConfigured
	}

	var out []Object
	p := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.S3.Bucket),
		Prefix: aws.String(cfg.Prefix + "/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json.enc") {
				continue
			}
			out = append(out, Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	slices.SortFunc(out, func(a, b Object) int {
		return cmp.Compare(b.Key, a.Key)
	})
	return out, nil
}

// Restore downloads key, replaces the store with it and reloads.
func (m *Manager) Restore(ctx context.Context, key string) error {
	m.mu.RLock()
	client := m.client
	cfg := m.cfg
	m.mu.RUnlock()
	if client == nil {
		return ErrNotConfigured
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	if err := Import(result.Body, m.kv, cfg.Passphrase); err != nil {
		return err
	}
	if m.reload != nil {
		if err := m.reload(); err != nil {
			return fmt.Errorf("reload after restore: %w", err)
		}
	}
	m.logger.Warn("backup restored", "key", key)
	return nil
}

// Download streams the encrypted object stored under key.
func (m *Manager) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConfigured
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, nil
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context) error {
	objects, err := m.List(ctx)
	if err != nil {
		return err
	}

	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	cutoff := m.now().AddDate(0, 0, -m.cfg.RetentionDays)
	m.mu.RUnlock()

	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(obj.Key),
		}); err != nil {
			m.logger.Warn("delete expired backup", "key", obj.Key, "error", err)
			continue
		}
		m.logger.Info("deleted expired backup", "key", obj.Key)
	}
	return nil
}
