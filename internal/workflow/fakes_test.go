package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/gmail"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/table"
)

var errNotFound = errors.New("not found")

type fakeMailbox struct {
	ids         []string
	searchErr   error
	messages    map[string]*gmail.Message
	attachments map[string][]byte

	queries []string
}

func (m *fakeMailbox) Search(_ context.Context, query string, _ int64) ([]string, error) {
	m.queries = append(m.queries, query)
	return m.ids, m.searchErr
}

func (m *fakeMailbox) GetMessage(_ context.Context, id string) (*gmail.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, errNotFound)
	}
	return msg, nil
}

func (m *fakeMailbox) GetAttachment(_ context.Context, msgID, attID string) ([]byte, error) {
	data, ok := m.attachments[msgID+"/"+attID]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", attID, errNotFound)
	}
	return data, nil
}

type upload struct {
	name, parent, mime string
	data               []byte
}

type fakeStorage struct {
	mu sync.Mutex

	folders     map[string]string
	ensureCalls []string
	ensureErr   error

	uploads []upload

	files    []*drive.FileInfo
	listErr  error
	listFrom time.Time
	listTo   time.Time
	listMime []string

	content map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{folders: map[string]string{}, content: map[string][]byte{}}
}

func (s *fakeStorage) EnsureFolder(_ context.Context, name, parentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCalls = append(s.ensureCalls, parentID+"/"+name)
	if s.ensureErr != nil {
		return "", s.ensureErr
	}
	key := parentID + "/" + name
	if id, ok := s.folders[key]; ok {
		return id, nil
	}
	id := fmt.Sprintf("folder-%d", len(s.folders)+1)
	s.folders[key] = id
	return id, nil
}

func (s *fakeStorage) Upload(_ context.Context, name, parentID, mimeType string, data []byte) (*drive.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, upload{name: name, parent: parentID, mime: mimeType, data: data})
	return &drive.FileInfo{ID: "up-" + name, Name: name, MimeType: mimeType}, nil
}

func (s *fakeStorage) ListCreatedBetween(_ context.Context, _ string, mimeTypes []string, from, to time.Time) ([]*drive.FileInfo, error) {
	s.listFrom, s.listTo, s.listMime = from, to, mimeTypes
	return s.files, s.listErr
}

func (s *fakeStorage) Download(_ context.Context, id string) ([]byte, error) {
	data, ok := s.content[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, errNotFound)
	}
	return data, nil
}

func (s *fakeStorage) addFile(id, name, content string) {
	s.files = append(s.files, &drive.FileInfo{ID: id, Name: name})
	s.content[id] = []byte(content)
}

// csvCascade parses CSV bytes and rejects anything starting with "garbage".
func csvCascade() *ingest.Cascade {
	return ingest.NewCascade([]ingest.Strategy{
		ingest.StrategyFunc{ID: "csv", Fn: func(_ context.Context, src ingest.Source, policy table.HeaderPolicy) (table.Table, error) {
			if bytes.HasPrefix(src.Data, []byte("garbage")) {
				return table.Table{}, errors.New("not a spreadsheet")
			}
			return ingest.ParseCSV(src.Data, policy)
		}},
	}, ingest.WithLogger(discardLogger()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore rejects every append.
type failingStore struct {
	*consolidate.MemoryStore
}

func (failingStore) Append(context.Context, string, int, [][]string) error {
	return errors.New("quota exceeded")
}

func hasLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
