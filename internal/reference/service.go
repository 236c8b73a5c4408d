package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Service resolves region spellings to canonical names.
type Service struct {
	entries   []Entry
	canonical map[string]string // normalized spelling -> canonical region
	regions   map[string]bool
}

// NewService creates a Service from a slice of entries.
func NewService(entries []Entry) *Service {
	s := &Service{
		entries:   entries,
		canonical: make(map[string]string, len(entries)),
		regions:   make(map[string]bool),
	}
	for _, e := range entries {
		s.regions[e.Region] = true
		s.canonical[normalize(e.Region)] = e.Region
		if e.Alias != "" {
			s.canonical[normalize(e.Alias)] = e.Region
		}
	}
	return s
}

// Load reads a regions.csv file and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening regions: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading regions: %w", err)
	}
	return NewService(entries), nil
}

// Canonical returns the canonical region for a spelling. Matching ignores case
// and repeated whitespace.
func (s *Service) Canonical(name string) (string, bool) {
	r, ok := s.canonical[normalize(name)]
	return r, ok
}

// Exists reports whether region is a canonical region name.
func (s *Service) Exists(region string) bool {
	return s.regions[region]
}

// Regions returns the canonical names, sorted.
func (s *Service) Regions() []string {
	out := make([]string, 0, len(s.regions))
	for r := range s.regions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// All returns all entries.
func (s *Service) All() []Entry {
	return s.entries
}

// Save writes the table to path, creating parent directories.
func (s *Service) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating reference dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating regions file: %w", err)
	}
	defer f.Close()

	if err := WriteEntries(f, s.entries); err != nil {
		return fmt.Errorf("writing regions: %w", err)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
