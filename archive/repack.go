package archive

import (
	"fmt"
	"io"
	"os"

	fixzip "github.com/hidez8891/zip"
)

// RepackFunc is called by Repack for every selected entry with its name and
// content. Returned data replaces entry content, nil keeps entry as is.
type RepackFunc func(name string, r io.Reader) ([]byte, error)

// Repack copies archive src to dst replacing content of entries selected by
// match with what fn returns. All other entries are copied without
// recompression. Entry order, names and headers are preserved.
func Repack(src, dst string, match func(name string) bool, fn RepackFunc) (err error) {

	r, err := fixzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", src, err)
	}
	defer r.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("unable to close target file (%s): %w", dst, cerr)
		}
	}()

	w := fixzip.NewWriter(out)
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("unable to finalize target file (%s): %w", dst, cerr)
		}
	}()

	for _, file := range r.File {
		if !isSafePath(file.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", file.Name)
		}

		var data []byte
		if !file.FileInfo().IsDir() && match(file.Name) {
			if data, err = transform(file, fn); err != nil {
				return fmt.Errorf("unable to process zip entry %q: %w", file.Name, err)
			}
		}

		if data == nil {
			// unset data descriptor flag.
			file.Flags &= ^fixzip.FlagDataDescriptor
			if err := w.CopyFile(file); err != nil {
				return fmt.Errorf("unable to write target file (%s): %w", dst, err)
			}
			continue
		}

		fh := file.FileHeader
		fw, err := w.CreateHeader(&fh)
		if err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", dst, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", dst, err)
		}
	}
	return nil
}

func transform(file *fixzip.File, fn RepackFunc) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return fn(file.Name, rc)
}
