// Package batch runs per-file work over the buckets of a registry with a
// bounded worker pool.
package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

// Registry maps a bucket id to the paths of the files in that bucket.
type Registry map[string][]string

// LoadRegistry decodes a JSON object of bucket id to path array.
func LoadRegistry(r io.Reader) (Registry, error) {
	var reg Registry
	if err := json.NewDecoder(r).Decode(&reg); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	if reg == nil {
		reg = make(Registry)
	}
	return reg, nil
}

// LoadRegistryFile is LoadRegistry over the file at path. A missing file is
// reported as kmer.ErrMissingArtifact.
func LoadRegistryFile(path string) (Registry, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("registry %s: %w", path, kmer.ErrMissingArtifact)
		}
		return nil, err
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(fh)

	reg, err := LoadRegistry(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Files returns the paths registered under id. If id is not a key but parses
// as a decimal integer, its canonical form is tried too, so "007" finds "7".
func (r Registry) Files(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if files, ok := r[id]; ok {
		return files, nil
	}
	if n, err := strconv.Atoi(id); err == nil {
		if files, ok := r[strconv.Itoa(n)]; ok {
			return files, nil
		}
	}
	return nil, fmt.Errorf("bucket %q: %w", id, kmer.ErrIdentifierNotFound)
}

// FilesInt is Files for an integer bucket id.
func (r Registry) FilesInt(id int) ([]string, error) {
	return r.Files(strconv.Itoa(id))
}

// Buckets returns the registry's bucket ids, numeric ids first in numeric
// order, then the rest lexically.
func (r Registry) Buckets() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}
