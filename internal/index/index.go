// Package index discovers benchmark datasets under a root directory, lists
// their files with pagination, and pairs instance files with solution files
// by matching stem (§4.5).
package index

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vrprouting/vrp-service/pkg/apperror"
)

var instanceExtensions = map[string]bool{".vrp": true, ".xml": true, ".txt": true}
var solutionExtensions = map[string]bool{".sol": true, ".xml": true, ".txt": true}

// Entry describes one file within a dataset.
type Entry struct {
	Name    string
	RelPath string
	AbsPath string
	Size    int64
}

// SortField selects what List orders by.
type SortField string

const (
	SortByName SortField = "name"
	SortBySize SortField = "size"
)

// Order selects ascending or descending.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Index enumerates datasets under Root, skipping any directory named in
// Blacklist.
type Index struct {
	Root      string
	Blacklist map[string]bool
}

// New constructs an Index over root, treating any name in blacklist as a
// dataset to exclude from enumeration.
func New(root string, blacklist []string) *Index {
	bl := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		bl[b] = true
	}
	return &Index{Root: root, Blacklist: bl}
}

// Datasets lists the immediate sub-directories of Root, excluding the
// blacklist, sorted lexicographically.
func (idx *Index) Datasets() ([]string, error) {
	entries, err := os.ReadDir(idx.Root)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeResourceNotFound, "index: read data root")
	}

	var datasets []string
	for _, e := range entries {
		if !e.IsDir() || idx.Blacklist[e.Name()] {
			continue
		}
		datasets = append(datasets, e.Name())
	}
	sort.Strings(datasets)
	return datasets, nil
}

// List returns a paginated, filtered, sorted page of files under dataset.
// filter, if non-empty, is a case-insensitive substring match against file
// name. limit <= 0 means unbounded.
func (idx *Index) List(dataset, filter string, sortField SortField, order Order, limit, offset int) ([]Entry, error) {
	root, err := idx.datasetRoot(dataset)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	filterLower := strings.ToLower(filter)
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filterLower != "" && !strings.Contains(strings.ToLower(info.Name()), filterLower) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, Entry{
			Name:    info.Name(),
			RelPath: rel,
			AbsPath: path,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeResourceNotFound, "index: walk dataset")
	}

	sortEntries(entries, sortField, order)
	return paginate(entries, limit, offset), nil
}

// ListOptions extends List with extension and kind filtering, applied before
// pagination. Kind, when non-empty, must be "instance" or "solution".
type ListOptions struct {
	Filter string
	Exts   []string
	Kind   string
	Sort   SortField
	Order  Order
	Limit  int
	Offset int
}

// ListFiltered is List plus extension/kind filtering (§6's `exts`/`kind`
// query parameters), applied to the full matched set before pagination so
// limit/offset count post-filter results.
func (idx *Index) ListFiltered(dataset string, opts ListOptions) ([]Entry, error) {
	entries, err := idx.List(dataset, opts.Filter, opts.Sort, opts.Order, 0, 0)
	if err != nil {
		return nil, err
	}

	extSet := make(map[string]bool, len(opts.Exts))
	for _, e := range opts.Exts {
		extSet[strings.ToLower(e)] = true
	}

	filtered := entries[:0]
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name))
		if len(extSet) > 0 && !extSet[ext] {
			continue
		}
		switch opts.Kind {
		case "instance":
			if !instanceExtensions[ext] {
				continue
			}
		case "solution":
			if !solutionExtensions[ext] {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	return paginate(filtered, opts.Limit, opts.Offset), nil
}

func sortEntries(entries []Entry, field SortField, order Order) {
	less := func(i, j int) bool {
		switch field {
		case SortBySize:
			return entries[i].Size < entries[j].Size
		default:
			return entries[i].Name < entries[j].Name
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if order == OrderDesc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func paginate(entries []Entry, limit, offset int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []Entry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// FindPair returns the first instance file and solution file anywhere under
// dataset whose stems match name case-insensitively. An instance or
// solution extension on name is ignored, so "c101" and "c101.vrp" pair alike.
func (idx *Index) FindPair(dataset, name string) (instance *Entry, solution *Entry, err error) {
	root, err := idx.datasetRoot(dataset)
	if err != nil {
		return nil, nil, err
	}

	wantStem := strings.ToLower(name)
	if ext := strings.ToLower(filepath.Ext(name)); instanceExtensions[ext] || solutionExtensions[ext] {
		wantStem = strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		stem := strings.ToLower(strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())))
		if stem != wantStem {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		entry := Entry{Name: info.Name(), RelPath: rel, AbsPath: path, Size: info.Size()}
		if instance == nil && instanceExtensions[ext] {
			instance = &entry
		}
		if solution == nil && solutionExtensions[ext] {
			solution = &entry
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, apperror.Wrap(walkErr, apperror.CodeResourceNotFound, "index: walk dataset for pairing")
	}
	if instance == nil && solution == nil {
		return nil, nil, apperror.New(apperror.CodeResourceNotFound, "index: no file with matching stem found")
	}
	return instance, solution, nil
}

func (idx *Index) datasetRoot(dataset string) (string, error) {
	if dataset == "" || strings.Contains(dataset, "..") {
		return "", apperror.NewWithField(apperror.CodeInputInvalid, "invalid dataset name", "dataset")
	}
	root := filepath.Join(idx.Root, dataset)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", apperror.New(apperror.CodeResourceNotFound, "index: unknown dataset "+dataset)
	}
	return root, nil
}
