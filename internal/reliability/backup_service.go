package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/database"
)

// DefaultRetainedBackups is how many archives PruneOldBackups keeps.
const DefaultRetainedBackups = 14

// Uploader is the object-store surface the backup service uses.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context) ([]BackupInfo, error)
	Delete(ctx context.Context, key string) error
}

// BackupMetadata describes one backup archive.
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one database snapshot inside an archive.
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupService snapshots the databases and ships the archive off-host.
type BackupService struct {
	databases []*database.DB
	store     Uploader
	dataDir   string
	keep      int
	log       zerolog.Logger
}

// NewBackupService creates a backup service over the given databases.
func NewBackupService(databases []*database.DB, store Uploader, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		store:     store,
		dataDir:   dataDir,
		keep:      DefaultRetainedBackups,
		log:       log.With().Str("component", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots every database, archives the snapshots
// with a checksum manifest, and uploads the archive.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	started := time.Now()

	staging, err := os.MkdirTemp(s.dataDir, "backup-staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	metadata := BackupMetadata{
		Timestamp: started.UTC(),
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}

	var files []string
	for _, db := range s.databases {
		filename := db.Name() + ".db"
		snapshot := filepath.Join(staging, filename)

		if err := s.snapshotDatabase(db, snapshot); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		info, err := os.Stat(snapshot)
		if err != nil {
			return fmt.Errorf("failed to stat snapshot of %s: %w", db.Name(), err)
		}
		checksum, err := fileChecksum(snapshot)
		if err != nil {
			return fmt.Errorf("failed to checksum snapshot of %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, snapshot)
	}

	manifest := filepath.Join(staging, "backup-metadata.json")
	raw, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := os.WriteFile(manifest, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}
	files = append(files, manifest)

	archiveName := fmt.Sprintf("crivo-backup-%s.tar.gz", started.Format("2006-01-02-150405"))
	archivePath := filepath.Join(staging, archiveName)
	if err := createArchive(archivePath, files); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	if err := s.store.Upload(ctx, archiveName, archive); err != nil {
		return err
	}

	s.log.Info().
		Str("archive", archiveName).
		Int("databases", len(metadata.Databases)).
		Dur("took", time.Since(started)).
		Msg("backup uploaded")
	return nil
}

// PruneOldBackups deletes stored archives beyond the retention count.
func (s *BackupService) PruneOldBackups(ctx context.Context) error {
	backups, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= s.keep {
		return nil
	}
	for _, old := range backups[s.keep:] {
		if err := s.store.Delete(ctx, old.Key); err != nil {
			return err
		}
		s.log.Info().Str("key", old.Key).Msg("pruned old backup")
	}
	return nil
}

// snapshotDatabase writes a consistent point-in-time copy via VACUUM INTO,
// which works while the database is in active use.
func (s *BackupService) snapshotDatabase(db *database.DB, dest string) error {
	_, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(dest, "'", "''")))
	return err
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func createArchive(dest string, files []string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, path := range files {
		if err := addToArchive(tw, path); err != nil {
			return err
		}
	}
	return nil
}

func addToArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
