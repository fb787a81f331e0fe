package folders

import (
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const defaultStatsLimit = 10000

var errStatsLimit = errors.New("stats limit reached")

type FolderStats struct {
	Files     int64
	Size      int64
	HumanSize string
	// Truncated is set when the walk stopped at the store's file limit, so
	// Files and Size are lower bounds.
	Truncated bool
}

// Stats walks a folder recursively and totals its regular files. The walk
// callback runs on several goroutines at once.
func (s *FolderStore) Stats(name string) (*FolderStats, error) {
	root, err := s.Folder(name)
	if err != nil {
		return nil, err
	}

	var files, size atomic.Int64
	err = fastwalk.Walk(&fastwalk.Config{Follow: false}, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size.Add(info.Size())
		if n := files.Add(1); s.statsLimit > 0 && n >= s.statsLimit {
			return errStatsLimit
		}
		return nil
	})
	truncated := errors.Is(err, errStatsLimit)
	if err != nil && !truncated {
		return nil, err
	}

	return &FolderStats{
		Files:     files.Load(),
		Size:      size.Load(),
		HumanSize: humanize.Bytes(uint64(size.Load())),
		Truncated: truncated,
	}, nil
}

// filterEntries keeps the entries whose name fuzzily matches query, ignoring
// case and diacritics. An empty query keeps everything.
func filterEntries(entries []*FolderEntry, query string) []*FolderEntry {
	if query == "" {
		return entries
	}

	result := []*FolderEntry{}
	for _, e := range entries {
		if fuzzy.MatchNormalizedFold(query, e.Name) {
			result = append(result, e)
		}
	}
	return result
}
