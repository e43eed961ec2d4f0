package ingest

import (
	"bytes"
	"context"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// exported knowledge base files sometimes carry a UTF-8 BOM
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DirSource reads a local knowledge base directory. Only .txt and .md files
// at the top level are picked up; the file name becomes the document name.
type DirSource struct {
	dir string
}

// NewDirSource creates a source for a local directory
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Name() string {
	return "dir:" + s.dir
}

// Documents yields one document per readable corpus file, in directory order.
// Unreadable files are yielded as errors so the caller can count them without
// aborting the rest of the directory.
func (s *DirSource) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			yield(nil, goerr.Wrap(err, "failed to read knowledge base directory", goerr.V("dir", s.dir)))
			return
		}

		for _, entry := range entries {
			if entry.IsDir() || !IsCorpusFile(entry.Name()) {
				continue
			}

			if ctx.Err() != nil {
				yield(nil, goerr.Wrap(ctx.Err(), "document listing cancelled", goerr.V("dir", s.dir)))
				return
			}

			raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
			if err != nil {
				if !yield(nil, goerr.Wrap(err, "failed to read document", goerr.V("file", entry.Name()))) {
					return
				}
				continue
			}

			raw = bytes.TrimPrefix(raw, utf8BOM)

			if !yield(&model.Document{Name: entry.Name(), Text: string(raw)}, nil) {
				return
			}
		}
	}
}

// IsCorpusFile reports whether a file name is part of the knowledge base.
// The corpus is plain text: .txt and .md only.
func IsCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
