package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kosen-tools/gyouji-cal/internal/event"
)

// Storage handles persistence of fetched pages
type Storage struct {
	dataDir string
}

// Page is a stored copy of a fetched page. Body is kept in its own file.
type Page struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	Body         []byte    `json:"-"`
}

// New creates a Storage rooted at dataDir, expanding a leading ~/ and
// creating the directory if needed.
func New(dataDir string) (*Storage, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

func urlKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

// pagePaths returns the metadata and body paths for a URL.
func (s *Storage) pagePaths(url string) (meta, body string) {
	key := urlKey(url)
	return filepath.Join(s.dataDir, "page_"+key+".json"), filepath.Join(s.dataDir, "page_"+key+".html")
}

func (s *Storage) snapshotPath(url string) string {
	return filepath.Join(s.dataDir, "snapshot_"+urlKey(url)+".json")
}

// LoadPage returns the stored page for url, or nil if none is stored.
func (s *Storage) LoadPage(url string) (*Page, error) {
	metaPath, bodyPath := s.pagePaths(url)

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading page metadata: %w", err)
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("parsing page metadata: %w", err)
	}
	if page.URL != url {
		// hash collision or hand-edited file
		return nil, nil
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading page body: %w", err)
	}
	page.Body = body

	return &page, nil
}

// SavePage stores page, writing the body before the metadata so metadata
// never points at a missing body.
func (s *Storage) SavePage(page *Page) error {
	if page == nil || page.URL == "" {
		return fmt.Errorf("saving page: missing URL")
	}
	metaPath, bodyPath := s.pagePaths(page.URL)

	if err := os.WriteFile(bodyPath, page.Body, 0o600); err != nil {
		return fmt.Errorf("writing page body: %w", err)
	}

	if page.FetchedAt.IsZero() {
		page.FetchedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding page metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, data, 0o600); err != nil {
		return fmt.Errorf("writing page metadata: %w", err)
	}

	return nil
}

// LoadSnapshot returns the last saved events for the page at url, or an
// empty snapshot if there is none.
func (s *Storage) LoadSnapshot(url string) (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(url))
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Canonical)
	}

	return &snapshot, nil
}

// SaveSnapshot stores snapshot as the latest state of the page at url.
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot, url string) error {
	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(s.snapshotPath(url), data, 0o600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}
