package merge

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

// ConcatFiles writes the bytes of srcs, in order, to dst and returns the
// number of bytes written. All sources are opened before dst is created, so
// a missing source leaves no destination behind. Every handle is closed on
// return.
func ConcatFiles(dst string, srcs ...string) (written int64, err error) {
	files := make([]*os.File, 0, len(srcs))
	defer func() {
		for _, f := range files {
			err = multierr.Append(err, f.Close())
		}
	}()

	for _, src := range srcs {
		f, openErr := os.Open(src)
		if openErr != nil {
			return 0, fmt.Errorf("open source: %w", openErr)
		}
		files = append(files, f)
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	for _, f := range files {
		n, copyErr := io.Copy(out, f)
		written += n
		if copyErr != nil {
			return written, fmt.Errorf("copy %s: %w", f.Name(), copyErr)
		}
	}

	return written, nil
}
