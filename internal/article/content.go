package article

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
)

var errStopScan = errors.New("stop scan")

// Head returns the header block: every line before the first blank line,
// terminators kept. A file with no blank line is all head.
func (a *Article) Head() ([]byte, error) {
	var head bytes.Buffer
	err := a.scan(func(line []byte, inHead bool) error {
		if !inHead {
			return errStopScan
		}
		head.Write(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return head.Bytes(), nil
}

// Body returns every line after the first blank line, terminators kept.
// It is empty when the file has no blank line.
func (a *Article) Body() ([]byte, error) {
	var body bytes.Buffer
	err := a.scan(func(line []byte, inHead bool) error {
		if !inHead {
			body.Write(line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body.Bytes(), nil
}

// Content returns the article file verbatim.
func (a *Article) Content() ([]byte, error) {
	data, err := fs.ReadFile(a.fsys, a.name)
	if err != nil {
		return nil, storageError(a.path, err)
	}
	return data, nil
}

// scan streams the file line by line. The first blank line is the
// separator and is passed to fn as neither head nor body.
func (a *Article) scan(fn func(line []byte, inHead bool) error) error {
	f, err := a.fsys.Open(a.name)
	if err != nil {
		return storageError(a.path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	inHead := true
	for {
		line, rerr := r.ReadBytes('\n')
		if len(line) > 0 {
			if inHead && isBlank(line) {
				inHead = false
			} else if err := fn(line, inHead); err != nil {
				if errors.Is(err, errStopScan) {
					return nil
				}
				return err
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return storageError(a.path, rerr)
		}
	}
}

// isBlank reports whether line is empty once its terminator is removed.
func isBlank(line []byte) bool {
	switch {
	case len(line) > 0 && line[len(line)-1] == '\n':
		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
	case len(line) > 0 && line[len(line)-1] == '\r':
		line = line[:len(line)-1]
	}
	return len(line) == 0
}
