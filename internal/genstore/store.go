package genstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"vignette/internal/logging"
	"vignette/internal/media"
	"vignette/internal/services"
)

const (
	imagesSubdir = "images"
	logsSubdir   = "logs"
	dateLayout   = "2006-01-02"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MediaItem is one binary artifact to persist alongside a record.
type MediaItem struct {
	Data     []byte
	MimeType string
}

// MediaRef points at a persisted media blob, relative to the images root.
type MediaRef struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

// Entry is one immutable audit record covering a single capability call.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Endpoint     string         `json:"endpoint"`
	Prompt       string         `json:"prompt"`
	ResponseText string         `json:"response_text,omitempty"`
	Media        []MediaRef     `json:"media"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Store is an append-only, date-sharded audit log with an adjacent media
// blob area. Records and blobs persisted for the same call share an id so
// they can be cross-referenced. Nothing is ever updated or deleted.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore opens (creating if needed) a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("genstore: root directory required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, sub := range []string{imagesSubdir, logsSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("genstore: create %s dir: %w", sub, err)
		}
	}
	return &Store{root: dir, logger: logger, now: time.Now}, nil
}

// Record persists one audit entry plus its media blobs and returns the
// stored entry. A media blob that fails to persist is dropped from the
// entry with a warning; only the record write itself can fail the call.
func (s *Store) Record(endpoint, prompt, responseText string, items []MediaItem, metadata map[string]any) (Entry, error) {
	now := s.now()
	id := newID(now)
	day := now.Format(dateLayout)

	refs := make([]MediaRef, 0, len(items))
	for i, item := range items {
		blobID := id
		if len(items) > 1 {
			blobID = fmt.Sprintf("%s_%d", id, i)
		}
		ref, err := s.writeBlob(day, blobID, item)
		if err != nil {
			s.logger.Warn("media blob write failed",
				logging.String(logging.FieldGenerationID, id),
				logging.Int("index", i),
				logging.Error(err))
			continue
		}
		refs = append(refs, ref)
	}

	entry := Entry{
		ID:           id,
		Timestamp:    now,
		Endpoint:     endpoint,
		Prompt:       prompt,
		ResponseText: responseText,
		Media:        refs,
		Metadata:     metadata,
	}

	if err := s.writeEntry(day, entry); err != nil {
		return Entry{}, err
	}

	s.logger.Debug("generation recorded",
		logging.String(logging.FieldGenerationID, id),
		logging.String("endpoint", endpoint),
		logging.Int("media_count", len(refs)))
	return entry, nil
}

func (s *Store) writeBlob(day, blobID string, item MediaItem) (MediaRef, error) {
	dir := filepath.Join(s.root, imagesSubdir, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return MediaRef{}, fmt.Errorf("create image dir: %w", err)
	}
	mime := item.MimeType
	if mime == "" {
		mime = "image/png"
	}
	filename := fmt.Sprintf("img_%s.%s", blobID, media.ExtensionForMime(mime))
	if err := os.WriteFile(filepath.Join(dir, filename), item.Data, 0o644); err != nil {
		return MediaRef{}, fmt.Errorf("write image: %w", err)
	}
	return MediaRef{Path: day + "/" + filename, MimeType: mime}, nil
}

func (s *Store) writeEntry(day string, entry Entry) error {
	dir := filepath.Join(s.root, logsSubdir, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("genstore: create log dir: %w", err)
	}
	encoded, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("genstore: encode entry: %w", err)
	}
	path := filepath.Join(dir, "gen_"+entry.ID+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("genstore: write entry: %w", err)
	}
	return nil
}

// ListDay returns every entry recorded on day (YYYY-MM-DD), newest first.
// Entries that fail to parse are skipped with a warning.
func (s *Store) ListDay(day string) ([]Entry, error) {
	if !datePattern.MatchString(day) {
		return nil, services.Wrap(services.ErrValidation, "genstore", "list", fmt.Sprintf("invalid date %q", day), nil)
	}
	dir := filepath.Join(s.root, logsSubdir, day)
	names, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("genstore: read day dir: %w", err)
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if name.IsDir() || !strings.HasPrefix(name.Name(), "gen_") || !strings.HasSuffix(name.Name(), ".json") {
			continue
		}
		entry, err := s.readEntry(filepath.Join(dir, name.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable generation entry",
				logging.String("path", name.Name()),
				logging.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

// Days returns every date shard present in the store, newest first.
func (s *Store) Days() ([]string, error) {
	names, err := os.ReadDir(filepath.Join(s.root, logsSubdir))
	if err != nil {
		return nil, fmt.Errorf("genstore: read logs dir: %w", err)
	}
	days := make([]string, 0, len(names))
	for _, name := range names {
		if name.IsDir() && datePattern.MatchString(name.Name()) {
			days = append(days, name.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// Get returns the entry with the given id recorded on day.
func (s *Store) Get(day, id string) (Entry, error) {
	if !datePattern.MatchString(day) {
		return Entry{}, services.Wrap(services.ErrValidation, "genstore", "get", fmt.Sprintf("invalid date %q", day), nil)
	}
	path := filepath.Join(s.root, logsSubdir, day, "gen_"+id+".json")
	entry, err := s.readEntry(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, services.Wrap(services.ErrNotFound, "genstore", "get", fmt.Sprintf("generation %s/%s", day, id), nil)
		}
		return Entry{}, err
	}
	return entry, nil
}

// MediaPath resolves a MediaRef path to an absolute file path, refusing
// anything that escapes the images root.
func (s *Store) MediaPath(ref string) (string, error) {
	cleaned := filepath.Clean(ref)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", services.Wrap(services.ErrValidation, "genstore", "media", fmt.Sprintf("invalid media ref %q", ref), nil)
	}
	path := filepath.Join(s.root, imagesSubdir, cleaned)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "genstore", "media", fmt.Sprintf("media %q", ref), nil)
		}
		return "", fmt.Errorf("genstore: stat media: %w", err)
	}
	return path, nil
}

func (s *Store) readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("genstore: decode %s: %w", filepath.Base(path), err)
	}
	return entry, nil
}

// newID builds a time-prefixed unique generation id: HHMMSS plus six hex
// characters of randomness. The prefix keeps same-day listings roughly
// chronological when sorted lexically.
func newID(now time.Time) string {
	random := uuid.New()
	return fmt.Sprintf("%s_%x", now.Format("150405"), random[:3])
}
