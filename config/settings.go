package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yaroher/protoc-gen-go-micropb/logger"
	"github.com/yaroher/protoc-gen-go-micropb/protopath"
)

const DefaultSuffix = ".micropb.go"

// Settings is the whole plugin configuration.
type Settings struct {
	// ConfigFile is the YAML file the overrides were loaded from, if any.
	ConfigFile string
	// DumpIR is a path to write the type graph to as JSON.
	DumpIR string
	// Suffix is appended to the proto file name to name the output.
	Suffix string
	Tree   *Tree
}

// File is the layout of the YAML configuration file.
type File struct {
	DumpIR    string              `yaml:"dump_ir"`
	Suffix    string              `yaml:"suffix"`
	Overrides map[string]Override `yaml:"overrides"`
}

// protogen consumes these itself.
var protogenParams = []string{"paths", "module", "import_path", "annotate_code"}

func isProtogenParam(key string) bool {
	if strings.HasPrefix(key, "M") {
		return true
	}
	for _, p := range protogenParams {
		if key == p {
			return true
		}
	}
	return false
}

// Parse reads the plugin parameter string. Entries are comma separated
// key=value pairs; a key of the form "<path>:<name>" sets an override for
// that proto path. When the config key names a YAML file it is loaded first
// so the parameters win over it.
func Parse(param string) (*Settings, error) {
	log := logger.Logger.Named("config")
	log.Debug("plugin parameter", zap.String("param", param))

	s := &Settings{Suffix: DefaultSuffix, Tree: NewTree()}

	type entry struct{ key, value string }
	var entries []entry
	for _, raw := range strings.Split(param, ",") {
		if raw == "" {
			continue
		}
		key, value, _ := strings.Cut(raw, "=")
		if key == "config" {
			s.ConfigFile = value
			continue
		}
		entries = append(entries, entry{key, value})
	}

	if s.ConfigFile != "" {
		if err := s.LoadFile(s.ConfigFile); err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		switch {
		case e.key == "dump_ir":
			s.DumpIR = e.value
		case e.key == "suffix":
			if e.value == "" {
				return nil, errors.New("suffix must not be empty")
			}
			s.Suffix = e.value
		case strings.Contains(e.key, ":"):
			path, name, _ := strings.Cut(e.key, ":")
			var o Override
			if err := o.Set(name, e.value); err != nil {
				return nil, errors.Wrapf(err, "parameter %q", e.key)
			}
			s.Tree.Add(protopath.Parse(path), o)
		case isProtogenParam(e.key):
		default:
			return nil, errors.Errorf("unknown parameter %q", e.key)
		}
	}
	log.Debug("settings parsed",
		zap.String("config", s.ConfigFile),
		zap.String("dump_ir", s.DumpIR),
		zap.Int("paths", len(s.Tree.Paths())),
	)
	return s, nil
}

// LoadFile merges the YAML file at path into s.
func (s *Settings) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	if err := s.Load(data); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

// Load merges a YAML document into s. Unknown keys are rejected.
func (s *Settings) Load(data []byte) error {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode config")
	}
	if f.DumpIR != "" {
		s.DumpIR = f.DumpIR
	}
	if f.Suffix != "" {
		s.Suffix = f.Suffix
	}
	if s.Tree == nil {
		s.Tree = NewTree()
	}
	for path, o := range f.Overrides {
		s.Tree.Add(protopath.Parse(path), o)
	}
	return nil
}
