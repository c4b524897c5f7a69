package io

import (
	"io"
	"os"
	"path/filepath"
)

type (
	// File is anything that can be written out as part of the synthesized output.
	File interface {
		Path() string
		WriteTo(io.Writer) (int64, error)
		Clone() File
	}

	// RawFile holds its content in memory. Synthesized templates are RawFiles.
	RawFile struct {
		FPath   string
		Content []byte
	}
)

func (r *RawFile) Clone() File {
	nf := &RawFile{
		FPath: r.FPath,
	}
	nf.Content = make([]byte, len(r.Content))
	copy(nf.Content, r.Content)
	return nf
}

func (r *RawFile) Path() string {
	return r.FPath
}

func (r *RawFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Content)
	return int64(n), err
}

// OutputTo writes each file under dest, creating parent directories as needed.
func OutputTo(files []File, dest string) error {
	errs := make(chan error)
	for idx := range files {
		go func(f File) {
			path := filepath.Join(dest, f.Path())
			dir := filepath.Dir(path)
			err := os.MkdirAll(dir, 0777)
			if err != nil {
				errs <- err
				return
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
			if err != nil {
				errs <- err
				return
			}
			_, err = f.WriteTo(file)
			file.Close()
			errs <- err
		}(files[idx])
	}

	for i := 0; i < len(files); i++ {
		err := <-errs
		if err != nil {
			return err
		}
	}
	return nil
}
