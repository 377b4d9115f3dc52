package feed

import (
	"bufio"
	"os"
	"path/filepath"
)

const (
	dirPerm  os.FileMode = 0o775
	filePerm os.FileMode = 0o664
)

// DirMaker – "utwórz katalog rekurencyjnie, jeśli go nie ma"
type DirMaker interface {
	MkdirAll(path string, perm os.FileMode) error
}

// OSDirs – DirMaker na prawdziwym systemie plików
type OSDirs struct{}

func (OSDirs) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Sink to jeden otwarty plik feedu. Close trzeba wywołać na każdej ścieżce wyjścia.
type Sink struct {
	path string
	f    *os.File
	w    *bufio.Writer

	closed   bool
	closeErr error
}

// OpenSink tworzy katalog root/dir (0775) i otwiera root/dir/base.ext do zapisu (truncate).
func OpenSink(dirs DirMaker, root, dir, base, ext string) (*Sink, error) {
	if dirs == nil {
		dirs = OSDirs{}
	}
	feedDir := filepath.Join(root, dir)
	if err := dirs.MkdirAll(feedDir, dirPerm); err != nil {
		return nil, &Error{Phase: PhaseDirectory, Path: feedDir, Err: err}
	}

	path := filepath.Join(feedDir, base+"."+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, &Error{Phase: PhaseOpen, Path: path, Err: err}
	}
	return &Sink{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *Sink) Path() string { return s.path }

func (s *Sink) Write(p []byte) (int, error) { return s.w.Write(p) }

// Close zrzuca bufor i zamyka plik. Kolejne wywołanie zwraca wynik pierwszego.
func (s *Sink) Close() error {
	if s.closed {
		return s.closeErr
	}
	s.closed = true

	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	if flushErr != nil {
		s.closeErr = flushErr
	} else {
		s.closeErr = closeErr
	}
	return s.closeErr
}
