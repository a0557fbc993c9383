// Package hclmodel loads class model declarations from .hcl files and
// translates them into the raw class structures the registry compiles.
package hclmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/fsutil"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Loader reads model files into raw classes. One Loader may load many
// paths; the underlying parser caches file contents for diagnostics.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new model file loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl file under the given paths (files are taken as-is,
// directories are walked) and returns the declared classes in file order.
// Duplicate class names are the registry's concern, not the loader's.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*model.RawClass, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := l.findModelFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered model files", "count", len(files))

	var classes []*model.RawClass
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, cmerr.Newf(cmerr.BadParameter, "failed to parse %s: %v", file, diags)
		}
		fileClasses, err := l.decode(file, hclFile)
		if err != nil {
			return nil, err
		}
		classes = append(classes, fileClasses...)
	}

	logger.Debug("model loading complete", "classes", len(classes))
	return classes, nil
}

// LoadBytes parses one in-memory model source, for tests and piped input.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) ([]*model.RawClass, error) {
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, cmerr.Newf(cmerr.BadParameter, "failed to parse %s: %v", filename, diags)
	}
	return l.decode(filename, hclFile)
}

func (l *Loader) decode(filename string, hclFile *hcl.File) ([]*model.RawClass, error) {
	var root classFile
	// Strict decoding: an unrecognized block or attribute anywhere in the
	// file is a model declaration error.
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, cmerr.Newf(cmerr.BadParameter, "failed to decode %s: %v", filename, diags)
	}

	classes := make([]*model.RawClass, 0, len(root.Classes))
	for _, cb := range root.Classes {
		rc, err := translateClass(cb)
		if err != nil {
			return nil, err
		}
		classes = append(classes, rc)
	}
	return classes, nil
}

func (l *Loader) findModelFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; !ok {
			files = append(files, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}
		if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	return files, nil
}
