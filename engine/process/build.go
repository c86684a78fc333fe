package process

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/designspace"
)

// Options configure a Build run.
type Options struct {
	UFOVersion    int  // format version for generated instances (default 3)
	RoundGeometry bool // round interpolated geometry to integers
	SkipRules     bool // do not evaluate substitution rules
}

// documentPaths expands a path into the designspace documents it
// names: the path itself for a file, every *.designspace entry for a
// directory. A missing path is an error.
func documentPaths(documentPath string) ([]string, error) {
	info, err := os.Stat(documentPath)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "no designspace document at %s", documentPath)
	}
	if !info.IsDir() {
		return []string{documentPath}, nil
	}
	entries, err := os.ReadDir(documentPath)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read directory %s", documentPath)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".designspace") {
			paths = append(paths, filepath.Join(documentPath, entry.Name()))
		}
	}
	return paths, nil
}

// Build processes a designspace document, or every *.designspace
// document in a directory, and generates all instances. Per-document
// and per-instance failures are recorded on the returned processors'
// problem logs; a missing path is an error.
func Build(documentPath string, opts Options) ([]*Processor, error) {
	paths, err := documentPaths(documentPath)
	if err != nil {
		return nil, err
	}
	var procs []*Processor
	for _, path := range paths {
		proc, err := buildDocument(path, opts)
		if err != nil {
			if len(paths) == 1 {
				return nil, err
			}
			tracer().Errorf("skipping document %s: %v", path, err)
			continue
		}
		procs = append(procs, proc)
	}
	return procs, nil
}

// Load reads documents and their master fonts like Build, but does not
// generate any instances.
func Load(documentPath string) ([]*Processor, error) {
	paths, err := documentPaths(documentPath)
	if err != nil {
		return nil, err
	}
	var procs []*Processor
	for _, path := range paths {
		doc, err := designspace.Read(path)
		if err != nil {
			if len(paths) == 1 {
				return nil, err
			}
			tracer().Errorf("skipping document %s: %v", path, err)
			continue
		}
		proc := New(doc)
		if err := proc.LoadFonts(false); err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return procs, nil
}

func buildDocument(path string, opts Options) (*Processor, error) {
	tracer().Infof("processing designspace document %s", path)
	doc, err := designspace.Read(path)
	if err != nil {
		return nil, err
	}
	proc := New(doc)
	if opts.UFOVersion > 0 {
		proc.UFOVersion = opts.UFOVersion
	}
	proc.RoundGeometry = opts.RoundGeometry
	if err := proc.Generate(!opts.SkipRules); err != nil {
		return nil, err
	}
	return proc, nil
}
