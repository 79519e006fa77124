package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2beens/babymoves/internal/movement"
	"github.com/2beens/babymoves/internal/telemetry/metrics"
	"github.com/2beens/babymoves/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	RootBackupsFolderName = "movements-backup"
	// EventsFileChunkSize is the number of movement events in one backup file.
	EventsFileChunkSize = 350

	folderMimeType = "application/vnd.google-apps.folder"
	jsonMimeType   = "application/json"
)

type eventSource interface {
	FetchAll(ctx context.Context) ([]movement.Event, error)
}

type GoogleDriveBackupService struct {
	service         *drive.Service
	backupsFolderId string
	metrics         *metrics.Manager
}

// NewDriveService creates a drive client authorized with the service account credentials file.
func NewDriveService(ctx context.Context, credentialsFile string) (*drive.Service, error) {
	credentialsJson, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJson, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}
	return driveService, nil
}

// NewGoogleDriveBackupService finds the root backups folder, creating it when missing.
// metricsManager can be nil.
func NewGoogleDriveBackupService(
	ctx context.Context,
	driveService *drive.Service,
	metricsManager *metrics.Manager,
) (*GoogleDriveBackupService, error) {
	rootFolderQuery := fmt.Sprintf(
		"mimeType = '%s' and trashed = false and name = '%s'",
		folderMimeType, RootBackupsFolderName,
	)
	backupFolders, err := driveService.
		Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	s := &GoogleDriveBackupService{
		service: driveService,
		metrics: metricsManager,
	}

	switch len(backupFolders.Files) {
	case 0:
		log.Println("root backups folder not found, creating ...")
		s.backupsFolderId, err = s.createRootBackupsFolder(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", s.backupsFolderId)
	case 1:
		s.backupsFolderId = backupFolders.Files[0].Id
		log.Printf("found backups folder ID: %s", s.backupsFolderId)
	default:
		s.backupsFolderId = backupFolders.Files[0].Id
		log.Warnf("found %d root backups folders, will take the first one: %s", len(backupFolders.Files), s.backupsFolderId)
	}

	return s, nil
}

func (s *GoogleDriveBackupService) BackupsFolderId() string {
	return s.backupsFolderId
}

// DoBackup writes all the events of the source into new chunk files of the backups folder.
// It returns the names of the created files.
func (s *GoogleDriveBackupService) DoBackup(ctx context.Context, source eventSource, baseTime time.Time) (_ []string, err error) {
	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "backup.movements")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	events, err := source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch movements: %w", err)
	}
	span.SetAttributes(attribute.Int("events", len(events)))

	if len(events) == 0 {
		log.Println("no movements to backup, done")
		return nil, nil
	}

	currentBackupFiles, err := s.backupFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list backup files: %w", err)
	}
	existingNames := make(map[string]bool, len(currentBackupFiles))
	for _, file := range currentBackupFiles {
		existingNames[file.Name] = true
	}

	baseFileName := NextBaseFileName(baseTime, existingNames)
	log.Printf(" ---- backing up %d movements to [%s_*.json]", len(events), baseFileName)

	var created []string
	for i, chunk := range Chunks(events, EventsFileChunkSize) {
		fileName := fmt.Sprintf("%s_%d.json", baseFileName, i+1)
		if err := s.uploadChunk(ctx, fileName, chunk); err != nil {
			return created, err
		}
		created = append(created, fileName)

		if s.metrics != nil {
			s.metrics.CounterMovementsBackedUp.Add(float64(len(chunk)))
		}
	}

	return created, nil
}

func (s *GoogleDriveBackupService) uploadChunk(ctx context.Context, fileName string, events []movement.Event) error {
	eventsJson, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("%s: marshal movements: %w", fileName, err)
	}

	fileMeta := &drive.File{
		Name:     fileName,
		MimeType: jsonMimeType,
		Parents:  []string{s.backupsFolderId},
	}

	chunkFile, err := s.service.
		Files.Create(fileMeta).
		Fields("id, parents").
		Media(bytes.NewReader(eventsJson), googleapi.ContentType(jsonMimeType)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: create backup file: %w", fileName, err)
	}

	log.Printf("%s: backup file with %d movements saved: %s", fileName, len(events), chunkFile.Id)
	return nil
}

func (s *GoogleDriveBackupService) createRootBackupsFolder(ctx context.Context) (string, error) {
	backupsFolderMeta := &drive.File{
		Name:     RootBackupsFolderName,
		MimeType: folderMimeType,
	}

	created, err := s.service.
		Files.Create(backupsFolderMeta).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

func (s *GoogleDriveBackupService) backupFiles(ctx context.Context) ([]*drive.File, error) {
	query := fmt.Sprintf(
		"'%s' in parents and mimeType != '%s' and trashed = false",
		s.backupsFolderId, folderMimeType,
	)

	var files []*drive.File
	err := s.service.
		Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, createdTime)").
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// NextBaseFileName returns movements-<d>-<m>-<y>, with a counter suffix
// when chunk files of that name already exist.
func NextBaseFileName(baseTime time.Time, existingNames map[string]bool) string {
	dayName := fmt.Sprintf("movements-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())

	baseFileName := dayName
	for counter := 2; hasChunkFiles(baseFileName, existingNames); counter++ {
		baseFileName = fmt.Sprintf("%s_%d", dayName, counter)
	}
	return baseFileName
}

func hasChunkFiles(baseFileName string, existingNames map[string]bool) bool {
	prefix := baseFileName + "_"
	for name := range existingNames {
		// <base>_<n>.json only, <base>_<counter>_<n>.json belongs to another run
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		if rest = strings.TrimSuffix(rest, ".json"); rest != "" && !strings.Contains(rest, "_") {
			return true
		}
	}
	return false
}

// Chunks splits the events into consecutive slices of at most size events.
func Chunks(events []movement.Event, size int) [][]movement.Event {
	if size <= 0 {
		return [][]movement.Event{events}
	}

	chunks := make([][]movement.Event, 0, (len(events)+size-1)/size)
	for from := 0; from < len(events); from += size {
		to := min(from+size, len(events))
		chunks = append(chunks, events[from:to])
	}
	return chunks
}
