// Validation and indexing of an orthogroup fasta directory as written by the
// gene family classification step.

package orthogroup

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrNotEquivalent = errors.New("protein and CDS fasta files not equivalent")

	peptideRe = regexp.MustCompile(`^(\d+)\.faa$`)
	cdsRe     = regexp.MustCompile(`^(\d+)\.fna$`)
	fastaRe   = regexp.MustCompile(`^\d+\.fasta$`)
)

type InvalidFilenameError struct {
	Dir  string
	Name string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("unexpected file %q in %s: orthogroup fasta directories hold only <id>.faa, <id>.fna or <id>.fasta files; "+
		"regenerate it with the gene family classification tool", e.Name, e.Dir)
}

// ID is the digit string naming an orthogroup. It is kept verbatim so that
// paths built from it match the files it was read from.
type ID string

// Less orders ids numerically without parsing, so ids of any length work.
func (id ID) Less(other ID) bool {
	a := strings.TrimLeft(string(id), "0")
	b := strings.TrimLeft(string(other), "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	if a != b {
		return a < b
	}
	return id < other
}

type Set map[ID]struct{}

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in numeric order.
func (s Set) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Sets holds the peptide (.faa) and coding sequence (.fna) ids of a directory.
type Sets struct {
	Peptide Set
	CDS     Set
}

// Conforming reports whether name may appear in an orthogroup directory.
// Hidden files are allowed and ignored.
func Conforming(name string) bool {
	return strings.HasPrefix(name, ".") ||
		peptideRe.MatchString(name) ||
		cdsRe.MatchString(name) ||
		fastaRe.MatchString(name)
}

// ValidateDir fails on the first entry (in directory order) that does not conform.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read orthogroup fasta directory: %w", err)
	}

	for _, entry := range entries {
		if !Conforming(entry.Name()) {
			return &InvalidFilenameError{Dir: dir, Name: entry.Name()}
		}
	}
	return nil
}

// Scan indexes the .faa and .fna files of dir. Other names, .fasta included,
// are skipped.
func Scan(dir string) (*Sets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read orthogroup fasta directory: %w", err)
	}

	sets := &Sets{Peptide: Set{}, CDS: Set{}}
	for _, entry := range entries {
		name := entry.Name()
		if m := peptideRe.FindStringSubmatch(name); m != nil {
			sets.Peptide[ID(m[1])] = struct{}{}
		} else if m := cdsRe.FindStringSubmatch(name); m != nil {
			sets.CDS[ID(m[1])] = struct{}{}
		}
	}
	return sets, nil
}

// CheckEquivalent compares set sizes only. An empty CDS set always passes.
func (s *Sets) CheckEquivalent() error {
	if len(s.CDS) > 0 && len(s.CDS) != len(s.Peptide) {
		return fmt.Errorf("%w: %d protein vs %d CDS files", ErrNotEquivalent, len(s.Peptide), len(s.CDS))
	}
	return nil
}

// HasCDS reports whether a .fna merge should follow the .faa merge of id.
func (s *Sets) HasCDS(id ID) bool {
	return len(s.CDS) > 0 && s.CDS.Has(id)
}
