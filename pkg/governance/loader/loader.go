package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"mercator-hq/minerva/pkg/governance"
)

// Config controls how policy files are discovered and read.
type Config struct {
	// MaxFileSize caps the size of a single policy file in bytes.
	// Default: 1 MiB
	MaxFileSize int64

	// AllowedExtensions lists the file extensions treated as policy
	// files. Default: .yaml, .yml
	AllowedExtensions []string

	// SkipHidden skips dotfiles and dot-directories during directory
	// walks. Default: true
	SkipHidden bool
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:       1 << 20,
		AllowedExtensions: []string{".yaml", ".yml"},
		SkipHidden:        true,
	}
}

// Loader reads policy files into compiled governance policies.
type Loader struct {
	config *Config
}

// NewLoader creates a loader. A nil config uses defaults.
func NewLoader(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Loader{config: config}
}

// policyFile is the on-disk YAML document shape.
type policyFile struct {
	Layer    string               `yaml:"layer"`
	Policies []*governance.Policy `yaml:"policies"`
}

// LoadFromFile loads and compiles the policies in a single file.
func (l *Loader) LoadFromFile(path string) ([]*governance.Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	var doc policyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{FilePath: path, Message: "YAML parsing failed", Cause: err}
	}

	layer, err := governance.ParseLayer(doc.Layer)
	if err != nil {
		return nil, &ParseError{FilePath: path, Message: "invalid layer", Cause: err}
	}
	if len(doc.Policies) == 0 {
		return nil, &ParseError{FilePath: path, Message: "file declares no policies"}
	}

	for _, p := range doc.Policies {
		if p.ID == "" {
			return nil, &ParseError{FilePath: path, Message: "policy id cannot be empty"}
		}
		p.Layer = layer
		if p.Mode == "" {
			p.Mode = governance.ModeOptional
		}
		if p.MergeStrategy == "" {
			p.MergeStrategy = governance.MergeStrategyMerge
		}
		if err := p.Compile(); err != nil {
			return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("policy %s has an invalid rule", p.ID), Cause: err}
		}
	}

	return doc.Policies, nil
}

// LoadFromDirectory loads every policy file under dir recursively. It
// returns the successfully loaded policies together with an ErrorList
// when some files failed; it fails outright when every file failed.
func (l *Loader) LoadFromDirectory(dir string) ([]*governance.Policy, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: dir, Message: "directory not found", Cause: err}
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to access directory", Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	files, err := l.collectPolicyFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &LoadError{FilePath: dir, Message: "no policy files found in directory"}
	}

	var policies []*governance.Policy
	errList := &ErrorList{}
	for _, path := range files {
		loaded, err := l.LoadFromFile(path)
		if err != nil {
			errList.Add(err)
			continue
		}
		policies = append(policies, loaded...)
	}

	if len(policies) == 0 && errList.HasErrors() {
		return nil, errList
	}
	if errList.HasErrors() {
		return policies, errList
	}
	return policies, nil
}

// collectPolicyFiles walks dir and returns paths with allowed extensions.
func (l *Loader) collectPolicyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if l.hasValidExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

func (l *Loader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range l.config.AllowedExtensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}
