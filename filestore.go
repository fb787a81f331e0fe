package folders

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/dustin/go-humanize"
)

// FolderStore exposes the folders under the configured base directory. Every
// lookup applies the prefix rule first.
type FolderStore struct {
	config *Config

	// statsLimit bounds how many files Stats counts before giving up.
	statsLimit int64
}

type Folder struct {
	Name  string
	Stats *FolderStats
}

type FolderEntry struct {
	Name      string
	IsDir     bool
	Size      int64
	HumanSize string
}

// StoredFile describes a file written by Save.
type StoredFile struct {
	Name   string
	Size   int64
	SHA256 string
}

func NewFolderStore(config *Config) *FolderStore {
	return &FolderStore{
		config:     config,
		statsLimit: defaultStatsLimit,
	}
}

func newFolderEntryFromStat(info fs.FileInfo) *FolderEntry {
	return &FolderEntry{
		Name:      info.Name(),
		IsDir:     info.IsDir(),
		Size:      info.Size(),
		HumanSize: humanize.Bytes(uint64(info.Size())),
	}
}

// folderPath resolves a folder name below the base directory without checking
// that it exists.
func (s *FolderStore) folderPath(name string) (string, error) {
	if !s.config.AllowsFolder(name) {
		return "", fmt.Errorf("folder %q: %w", name, ErrAccessDenied)
	}
	if !isPathElement(name) {
		return "", fmt.Errorf("folder %q: %w", name, ErrNotFound)
	}
	return securejoin.SecureJoin(s.config.BaseDirectory, name)
}

func (s *FolderStore) filePath(folder, filename string) (string, error) {
	dir, err := s.folderPath(folder)
	if err != nil {
		return "", err
	}
	if !isPathElement(filename) {
		return "", fmt.Errorf("file %q: %w", filename, ErrNotFound)
	}
	return securejoin.SecureJoin(dir, filename)
}

// Folders lists the directories directly under the base directory that pass
// the prefix rule, sorted by name. A missing base directory yields no folders.
func (s *FolderStore) Folders() ([]*Folder, error) {
	entries, err := os.ReadDir(s.config.BaseDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Folder{}, nil
		}
		return nil, fmt.Errorf("read base directory: %w", err)
	}

	result := []*Folder{}
	for _, e := range entries {
		if !s.config.AllowsFolder(e.Name()) {
			continue
		}

		path, err := securejoin.SecureJoin(s.config.BaseDirectory, e.Name())
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		result = append(result, &Folder{Name: e.Name()})
	}

	return result, nil
}

// Folder returns the on-disk path of an existing, allowed folder.
func (s *FolderStore) Folder(name string) (string, error) {
	path, err := s.folderPath(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("folder %q: %w", name, ErrNotFound)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("folder %q: %w", name, ErrNotFound)
	}

	return path, nil
}

// Entries lists the immediate children of a folder, files and directories alike.
func (s *FolderStore) Entries(name string) ([]*FolderEntry, error) {
	dir, err := s.Folder(name)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %q: %w", name, err)
	}

	result := []*FolderEntry{}
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			// dangling symlink
			info, err = e.Info()
			if err != nil {
				continue
			}
		}
		result = append(result, newFolderEntryFromStat(info))
	}

	return result, nil
}

// Save writes src into the folder under the sanitized form of filename,
// replacing any existing file with that name.
func (s *FolderStore) Save(folder, filename string, src io.Reader) (*StoredFile, error) {
	dir, err := s.Folder(folder)
	if err != nil {
		return nil, err
	}

	name := SecureFilename(filename)
	if name == "" {
		return nil, fmt.Errorf("file %q: %w", filename, ErrInvalidFilename)
	}

	path, err := securejoin.SecureJoin(dir, name)
	if err != nil {
		return nil, err
	}

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	defer dst.Close()

	size, sum, err := copyWithHash(dst, src)
	if err != nil {
		return nil, fmt.Errorf("write %q: %w", name, err)
	}

	err = dst.Close()
	if err != nil {
		return nil, fmt.Errorf("close %q: %w", name, err)
	}

	return &StoredFile{Name: name, Size: size, SHA256: sum}, nil
}

// Stat returns the info of a regular file inside an allowed folder.
func (s *FolderStore) Stat(folder, filename string) (os.FileInfo, error) {
	path, err := s.filePath(folder, filename)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %q: %w", filename, ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("file %q is a directory: %w", filename, ErrNotFound)
	}

	return info, nil
}

// Open opens a regular file inside an allowed folder for reading.
func (s *FolderStore) Open(folder, filename string) (*os.File, os.FileInfo, error) {
	info, err := s.Stat(folder, filename)
	if err != nil {
		return nil, nil, err
	}

	path, err := s.filePath(folder, filename)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("file %q: %w", filename, ErrNotFound)
		}
		return nil, nil, err
	}

	return f, info, nil
}
