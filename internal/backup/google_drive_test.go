package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/2beens/babymoves/internal/movement"
	"github.com/2beens/babymoves/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	promcl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections of the httptest client
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// fakeDriveAPI keeps the files of a drive in memory, it serves list, create and multipart upload.
type fakeDriveAPI struct {
	mu       sync.Mutex
	files    []*drive.File
	contents map[string][]byte
	nextId   int
}

func newFakeDriveAPI(files ...*drive.File) *fakeDriveAPI {
	return &fakeDriveAPI{
		files:    files,
		contents: map[string][]byte{},
		nextId:   len(files) + 1,
	}
}

func (f *fakeDriveAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/files") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.list(w, r.URL.Query().Get("q"))
	case http.MethodPost:
		f.create(w, r)
	default:
		http.Error(w, "unexpected request", http.StatusMethodNotAllowed)
	}
}

func (f *fakeDriveAPI) list(w http.ResponseWriter, q string) {
	listFolders := strings.Contains(q, "mimeType = '"+folderMimeType+"'")
	var files []*drive.File
	for _, file := range f.files {
		isFolder := file.MimeType == folderMimeType
		if isFolder != listFolders {
			continue
		}
		if !isFolder && !strings.Contains(q, "'"+file.Parents[0]+"' in parents") {
			continue
		}
		files = append(files, file)
	}
	writeJSON(w, &drive.FileList{Files: files})
}

func (f *fakeDriveAPI) create(w http.ResponseWriter, r *http.Request) {
	var file drive.File
	var content []byte

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r.Body, params["boundary"])
		metaPart, err := mr.NextPart()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(metaPart).Decode(&file); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mediaPart, err := mr.NextPart()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if content, err = io.ReadAll(mediaPart); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file.Id = fmt.Sprintf("file-%d", f.nextId)
	f.nextId++
	f.files = append(f.files, &file)
	if content != nil {
		f.contents[file.Name] = content
	}
	writeJSON(w, &file)
}

func (f *fakeDriveAPI) fileNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, file := range f.files {
		names = append(names, file.Name)
	}
	return names
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestDriveService(t *testing.T, api *fakeDriveAPI) *drive.Service {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	driveService, err := drive.NewService(
		context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return driveService
}

type testSource struct {
	events []movement.Event
	err    error
}

func (s *testSource) FetchAll(_ context.Context) ([]movement.Event, error) {
	return s.events, s.err
}

func fakeEvents(n int) []movement.Event {
	faker := gofakeit.New(7)
	types := []string{"kick", "twitch", "roll"}
	positions := []string{"high left", "middle centre", "low right"}

	events := make([]movement.Event, 0, n)
	for i := 0; i < n; i++ {
		date := faker.DateRange(
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		)
		events = append(events, movement.Event{
			Date:      date.Format(movement.DateLayout),
			Time:      date.Format("15:04:05") + " GMT+0000",
			Intensity: "gentle",
			Type:      faker.RandomString(types),
			Position:  faker.RandomString(positions),
		})
	}
	return events
}

func TestNewGoogleDriveBackupService_CreatesFolder(t *testing.T) {
	api := newFakeDriveAPI()
	s, err := NewGoogleDriveBackupService(context.Background(), newTestDriveService(t, api), nil)
	require.NoError(t, err)

	assert.Equal(t, "file-1", s.BackupsFolderId())
	assert.Equal(t, []string{RootBackupsFolderName}, api.fileNames())
}

func TestNewGoogleDriveBackupService_ExistingFolder(t *testing.T) {
	api := newFakeDriveAPI(&drive.File{Id: "existing", Name: RootBackupsFolderName, MimeType: folderMimeType})
	s, err := NewGoogleDriveBackupService(context.Background(), newTestDriveService(t, api), nil)
	require.NoError(t, err)

	assert.Equal(t, "existing", s.BackupsFolderId())
	assert.Len(t, api.fileNames(), 1)
}

func TestDoBackup(t *testing.T) {
	api := newFakeDriveAPI(&drive.File{Id: "folder", Name: RootBackupsFolderName, MimeType: folderMimeType})
	metricsManager, reg := metrics.NewTestManagerAndRegistry()
	s, err := NewGoogleDriveBackupService(context.Background(), newTestDriveService(t, api), metricsManager)
	require.NoError(t, err)

	events := fakeEvents(2*EventsFileChunkSize + 10)
	baseTime := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)

	created, err := s.DoBackup(context.Background(), &testSource{events: events}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"movements-5-3-2024_1.json",
		"movements-5-3-2024_2.json",
		"movements-5-3-2024_3.json",
	}, created)

	var restored []movement.Event
	for _, name := range created {
		var chunk []movement.Event
		require.NoError(t, json.Unmarshal(api.contents[name], &chunk))
		restored = append(restored, chunk...)
	}
	assert.Equal(t, events, restored)

	gathered, err := reg.Gather()
	require.NoError(t, err)
	var backedUp *promcl.MetricFamily
	for _, mf := range gathered {
		if mf.GetName() == "backend_test_server_movements_backed_up" {
			backedUp = mf
		}
	}
	require.NotNil(t, backedUp)
	require.Len(t, backedUp.Metric, 1)
	assert.Equal(t, float64(len(events)), backedUp.Metric[0].GetCounter().GetValue())

	// second run on the same day does not overwrite
	created, err = s.DoBackup(context.Background(), &testSource{events: events[:5]}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"movements-5-3-2024_2_1.json"}, created)
}

func TestDoBackup_NoEvents(t *testing.T) {
	api := newFakeDriveAPI(&drive.File{Id: "folder", Name: RootBackupsFolderName, MimeType: folderMimeType})
	s, err := NewGoogleDriveBackupService(context.Background(), newTestDriveService(t, api), nil)
	require.NoError(t, err)

	created, err := s.DoBackup(context.Background(), &testSource{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, api.fileNames(), 1)
}

func TestDoBackup_SourceError(t *testing.T) {
	api := newFakeDriveAPI(&drive.File{Id: "folder", Name: RootBackupsFolderName, MimeType: folderMimeType})
	s, err := NewGoogleDriveBackupService(context.Background(), newTestDriveService(t, api), nil)
	require.NoError(t, err)

	_, err = s.DoBackup(context.Background(), &testSource{err: movement.ErrStoreUnavailable}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, movement.ErrStoreUnavailable))
}

func TestNextBaseFileName(t *testing.T) {
	baseTime := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		existing []string
		expected string
	}{
		{name: "empty folder", expected: "movements-31-12-2024"},
		{name: "other days", existing: []string{"movements-30-12-2024_1.json"}, expected: "movements-31-12-2024"},
		{name: "same day", existing: []string{"movements-31-12-2024_1.json", "movements-31-12-2024_2.json"}, expected: "movements-31-12-2024_2"},
		{
			name:     "same day twice",
			existing: []string{"movements-31-12-2024_1.json", "movements-31-12-2024_2_1.json"},
			expected: "movements-31-12-2024_3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			existing := map[string]bool{}
			for _, name := range tc.existing {
				existing[name] = true
			}
			assert.Equal(t, tc.expected, NextBaseFileName(baseTime, existing))
		})
	}
}

func TestChunks(t *testing.T) {
	events := fakeEvents(7)

	chunks := Chunks(events, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)
	assert.Equal(t, events[6], chunks[2][0])

	assert.Len(t, Chunks(events, 7), 1)
	assert.Empty(t, Chunks(nil, 3))
	assert.Len(t, Chunks(events, 0), 1)
}
