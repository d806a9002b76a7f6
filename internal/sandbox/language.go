package sandbox

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var defaultLanguages []byte

const binaryName = "main.bin"

type Language struct {
	ID     string `yaml:"id"`
	Source string `yaml:"source"`
	// Compile is empty for interpreted languages.
	Compile string `yaml:"compile"`
	Run     string `yaml:"run"`
	// LimitAddressSpace applies RLIMIT_AS; runtimes that reserve large
	// virtual heaps (the JVM) rely on the cgroup memory limit instead.
	LimitAddressSpace bool `yaml:"limit_address_space"`
}

func (l Language) Compiled() bool {
	return strings.TrimSpace(l.Compile) != ""
}

// CompileCmd expands the compile template for a scratch dir.
func (l Language) CompileCmd(dir string) ([]string, error) {
	return expand(l.Compile, l.placeholders(dir))
}

// RunCmd expands the run template for a scratch dir.
func (l Language) RunCmd(dir string) ([]string, error) {
	return expand(l.Run, l.placeholders(dir))
}

func (l Language) placeholders(dir string) map[string]string {
	return map[string]string{
		"{src}": filepath.Join(dir, l.Source),
		"{bin}": filepath.Join(dir, binaryName),
		"{dir}": dir,
	}
}

// expand splits the template first so substituted paths stay single arguments.
func expand(template string, vars map[string]string) ([]string, error) {
	parts, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("parse command template %q: %w", template, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command template")
	}
	for i, p := range parts {
		for k, v := range vars {
			p = strings.ReplaceAll(p, k, v)
		}
		parts[i] = p
	}
	return parts, nil
}

// Languages is the registry of supported languages keyed by id.
type Languages map[string]Language

type languageFile struct {
	Languages []Language `yaml:"languages"`
}

// LoadLanguages parses the built-in table, then overlays path when set.
func LoadLanguages(path string) (Languages, error) {
	langs, err := ParseLanguages(defaultLanguages)
	if err != nil {
		return nil, fmt.Errorf("parse built-in languages: %w", err)
	}
	if path == "" {
		return langs, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read languages file: %w", err)
	}
	extra, err := ParseLanguages(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for id, l := range extra {
		langs[id] = l
	}
	return langs, nil
}

func ParseLanguages(data []byte) (Languages, error) {
	var file languageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	langs := make(Languages, len(file.Languages))
	for _, l := range file.Languages {
		if l.ID == "" || l.Source == "" || l.Run == "" {
			return nil, fmt.Errorf("language %q: id, source and run are required", l.ID)
		}
		if strings.ContainsAny(l.Source, `/\`) {
			return nil, fmt.Errorf("language %q: source must be a bare file name", l.ID)
		}
		langs[l.ID] = l
	}
	return langs, nil
}

func (ls Languages) Get(id string) (Language, bool) {
	l, ok := ls[id]
	return l, ok
}

func (ls Languages) IDs() []string {
	ids := make([]string, 0, len(ls))
	for id := range ls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
