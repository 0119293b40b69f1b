package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sellout/backend/internal/application/report"
)

var _ report.ReportArchive = (*MemoryReportArchive)(nil)

// StoredObject is an export held by MemoryReportArchive
type StoredObject struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// MemoryReportArchive keeps exports in process memory and hands out
// links under BaseURL. Used when object storage is disabled.
type MemoryReportArchive struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// NewMemoryReportArchive creates an empty archive. An empty baseURL defaults
// to http://localhost/exports.
func NewMemoryReportArchive(baseURL string) *MemoryReportArchive {
	if baseURL == "" {
		baseURL = "http://localhost/exports"
	}
	return &MemoryReportArchive{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]StoredObject),
	}
}

// Upload stores a copy of data under key
func (m *MemoryReportArchive) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	body := make([]byte, len(data))
	copy(body, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: body, ContentType: contentType, StoredAt: time.Now()}
	return nil
}

// GenerateDownloadURL builds a link for key. A non-positive ttl uses DefaultPresignExpiration.
func (m *MemoryReportArchive) GenerateDownloadURL(
	_ context.Context,
	key string,
	ttl time.Duration,
) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	if ttl <= 0 {
		ttl = DefaultPresignExpiration
	}
	expiresAt := time.Now().Add(ttl)
	link := m.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Get returns the stored object for key
func (m *MemoryReportArchive) Get(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// ObjectExists reports whether key was uploaded
func (m *MemoryReportArchive) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, ok := m.Get(key)
	return ok, nil
}

// Len returns the number of stored exports
func (m *MemoryReportArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
