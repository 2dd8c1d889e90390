package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/stepgrid/internal/config"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Runners  []*runnerBlock   `hcl:"runner,block"`
	Gates    []*gateBlock     `hcl:"gate,block"`
	HTTP     []*httpBlock     `hcl:"http,block"`
	SocketIO []*socketioBlock `hcl:"socketio,block"`
	Remain   hcl.Body         `hcl:",remain"`
}

type runnerBlock struct {
	Suite              *string `hcl:"suite,optional"`
	Workers            *int    `hcl:"workers,optional"`
	UnimplementedFatal *bool   `hcl:"unimplemented_fatal,optional"`
	MatchTimeout       *string `hcl:"match_timeout,optional"`
}

type gateBlock struct {
	Name    string `hcl:"name,label"`
	Permits int    `hcl:"permits"`
}

type httpBlock struct {
	BaseURL *string `hcl:"base_url,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type socketioBlock struct {
	URL                *string `hcl:"url,optional"`
	Namespace          *string `hcl:"namespace,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
	ConnectTimeout     *string `hcl:"connect_timeout,optional"`
}

// Load orchestrates the HCL settings loading process. Files are applied in
// lexical order; later files override earlier scalar values.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	settings := config.New()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	gateSources := make(map[string]string)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, rb := range root.Runners {
			if err := applyRunner(&settings.Runner, rb); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		for _, gb := range root.Gates {
			if prev, ok := gateSources[gb.Name]; ok {
				return nil, fmt.Errorf("gate '%s' is defined in both %s and %s", gb.Name, prev, file)
			}
			gateSources[gb.Name] = file
			settings.Gates[gb.Name] = gb.Permits
		}
		for _, hb := range root.HTTP {
			if err := applyHTTP(&settings.HTTP, hb); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		for _, sb := range root.SocketIO {
			if err := applySocketIO(&settings.SocketIO, sb); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
	}

	logger.Debug("HCL loading complete.", "gates", len(settings.Gates), "suite", settings.Runner.Suite)
	return settings, nil
}

func applyRunner(r *config.Runner, b *runnerBlock) error {
	if b.Suite != nil {
		r.Suite = *b.Suite
	}
	if b.Workers != nil {
		if *b.Workers < 1 {
			return fmt.Errorf("runner: workers must be at least 1, got %d", *b.Workers)
		}
		r.Workers = *b.Workers
	}
	if b.UnimplementedFatal != nil {
		r.UnimplementedFatal = *b.UnimplementedFatal
	}
	return parseDuration("runner.match_timeout", b.MatchTimeout, &r.MatchTimeout)
}

func applyHTTP(h *config.HTTP, b *httpBlock) error {
	if b.BaseURL != nil {
		h.BaseURL = *b.BaseURL
	}
	return parseDuration("http.timeout", b.Timeout, &h.Timeout)
}

func applySocketIO(s *config.SocketIO, b *socketioBlock) error {
	if b.URL != nil {
		s.URL = *b.URL
	}
	if b.Namespace != nil {
		s.Namespace = *b.Namespace
	}
	if b.InsecureSkipVerify != nil {
		s.InsecureSkipVerify = *b.InsecureSkipVerify
	}
	return parseDuration("socketio.connect_timeout", b.ConnectTimeout, &s.ConnectTimeout)
}

func parseDuration(field string, raw *string, dst *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
