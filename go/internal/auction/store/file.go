package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// File names inside the data directory.
const (
	StateFile    = "auction_data.json"
	BackupFile   = "auction_data.backup.json"
	CatalogFile  = "player_database.json"
	SnapshotFile = "player_database.json.bak"
)

// FileStore keeps the records as JSON files in one directory. Writes go
// through a temp file and a rename so a crash never leaves half a record.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(name string) string { return filepath.Join(f.dir, name) }

func (f *FileStore) Load(ctx context.Context) (*models.AuctionState, models.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stateData, catalogData, err := f.current()
	if err != nil {
		return nil, nil, err
	}
	s, err := decodeState(stateData)
	if err != nil {
		return nil, nil, err
	}
	c, err := decodeCatalog(catalogData)
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

func (f *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stateData, catalogData, err := f.current()
	if err != nil {
		return err
	}
	newState, newCatalog, err := apply(stateData, catalogData, fn)
	if err != nil {
		return err
	}
	if newState != nil {
		if err := f.saveState(newState); err != nil {
			return err
		}
	}
	if newCatalog != nil {
		if err := writeFile(f.path(CatalogFile), newCatalog); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
	}
	return nil
}

func (f *FileStore) Undo(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	backup, found, err := readFile(f.path(BackupFile))
	if err != nil {
		return err
	}
	if !found {
		return ErrNoBackupAvailable
	}
	if err := writeFile(f.path(StateFile), backup); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	log.Info().Str("dir", f.dir).Msg("auction record restored from backup")
	return nil
}

func (f *FileStore) SnapshotCatalog(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, found, err := readFile(f.path(SnapshotFile))
	if err != nil || found {
		return err
	}
	_, catalogData, err := f.current()
	if err != nil {
		return err
	}
	if err := writeFile(f.path(SnapshotFile), catalogData); err != nil {
		return fmt.Errorf("snapshot catalog: %w", err)
	}
	log.Info().Str("dir", f.dir).Msg("catalog snapshot taken")
	return nil
}

func (f *FileStore) Reset(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	def, err := encodeState(models.NewAuctionState())
	if err != nil {
		return false, err
	}
	if err := f.saveState(def); err != nil {
		return false, err
	}

	snapshot, found, err := readFile(f.path(SnapshotFile))
	if err != nil {
		return false, err
	}
	catalog := emptyCatalog
	if found {
		catalog = snapshot
	}
	if err := writeFile(f.path(CatalogFile), catalog); err != nil {
		return false, fmt.Errorf("reset catalog: %w", err)
	}
	return found, nil
}

func (f *FileStore) Close() error { return nil }

// current returns valid encoded records, repairing missing or corrupt files.
func (f *FileStore) current() (stateData, catalogData []byte, err error) {
	raw, found, err := readFile(f.path(StateFile))
	if err != nil {
		return nil, nil, err
	}
	stateData, repaired, err := checkState(raw, found)
	if err != nil {
		return nil, nil, err
	}
	if repaired {
		if err := f.saveState(stateData); err != nil {
			return nil, nil, err
		}
	}

	raw, found, err = readFile(f.path(CatalogFile))
	if err != nil {
		return nil, nil, err
	}
	catalogData, repaired = checkCatalog(raw, found)
	if repaired {
		if err := writeFile(f.path(CatalogFile), catalogData); err != nil {
			return nil, nil, fmt.Errorf("save catalog: %w", err)
		}
	}
	return stateData, catalogData, nil
}

// saveState copies the record on disk into the backup slot, then replaces it.
func (f *FileStore) saveState(data []byte) error {
	prev, found, err := readFile(f.path(StateFile))
	if err != nil {
		return err
	}
	if found {
		if err := writeFile(f.path(BackupFile), prev); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}
	if err := writeFile(f.path(StateFile), data); err != nil {
		return fmt.Errorf("save auction record: %w", err)
	}
	return nil
}

func readFile(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return b, true, nil
}

func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
