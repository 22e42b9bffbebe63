package scaffold

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/yumyai/ggintegrate/internal/util"
	"github.com/yumyai/ggintegrate/pkg/orthogroup"
)

// Defining possible error
var ErrScaffoldNotFound = errors.New("scaffold fasta folder does not exist")

const (
	PeptideExt = ".faa"
	CDSExt     = ".fna"
)

// Folder which hosts fasta/[method]/[id].faa|fna for one scaffold.
type Reference struct {
	Name   string
	Dir    string
	Method string
}

func NewReference(name, dir, method string) (*Reference, error) {
	ref := &Reference{
		Name:   name,
		Dir:    dir,
		Method: method,
	}

	required_folders := []string{
		dir,
		ref.MethodDir(),
	}

	for _, folder := range required_folders {
		if !util.DirExists(folder) {
			return nil, fmt.Errorf("%w: %s", ErrScaffoldNotFound, folder)
		}
	}

	return ref, nil
}

func (ref *Reference) MethodDir() string {
	return filepath.Join(ref.Dir, "fasta", ref.Method)
}

func (ref *Reference) PeptidePath(id orthogroup.ID) string {
	return filepath.Join(ref.MethodDir(), string(id)+PeptideExt)
}

func (ref *Reference) CDSPath(id orthogroup.ID) string {
	return filepath.Join(ref.MethodDir(), string(id)+CDSExt)
}

func (ref *Reference) String() string {
	return fmt.Sprintf("%s (%s)", ref.Name, ref.Method)
}
