package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"rpgm-translator/internal/fsio"

	"gopkg.in/yaml.v3"
)

// Directory and file names inside a project.
const (
	ProgramDataDir      = ".rpgmtranslate"
	TranslationDir      = "translation"
	TempMapsDir         = "temp-maps"
	MatchesDir          = "matches"
	BackupDir           = "backups"
	LogFile             = "replacement-log.json"
	GlossaryFile        = "glossary.json"
	ProjectSettingsFile = "project-settings.yaml"
)

const defaultColumnWidth = 768

// Column describes one translation column.
type Column struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
}

// Project holds per-project settings stored under the program data directory.
type Project struct {
	Root string `yaml:"-"`

	Columns        []Column          `yaml:"columns"`
	SourceLanguage string            `yaml:"source_language"`
	TargetLanguage string            `yaml:"target_language"`
	LineLengthHint int               `yaml:"line_length_hint"`
	ProjectContext string            `yaml:"project_context"`
	FileContexts   map[string]string `yaml:"file_contexts"`
}

// DefaultProject returns settings for a project rooted at root.
func DefaultProject(root string) *Project {
	return &Project{
		Root:           root,
		Columns:        []Column{{Name: "Translation", Width: defaultColumnWidth}},
		SourceLanguage: "ja",
		TargetLanguage: "en",
		LineLengthHint: 50,
		FileContexts:   make(map[string]string),
	}
}

// LoadProject reads the settings file of the project at root. A missing file
// yields the defaults.
func LoadProject(fsys fsio.FS, root string) (*Project, error) {
	p := DefaultProject(root)

	data, err := fsys.ReadTextFile(p.SettingsPath())
	if errors.Is(err, fsio.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load project settings: %w", err)
	}

	if err := yaml.Unmarshal([]byte(data), p); err != nil {
		return nil, fmt.Errorf("parse project settings: %w", err)
	}
	p.Root = root

	if len(p.Columns) == 0 {
		p.Columns = DefaultProject(root).Columns
	}
	if p.FileContexts == nil {
		p.FileContexts = make(map[string]string)
	}

	return p, nil
}

// Save writes the settings file.
func (p *Project) Save(fsys fsio.FS) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project settings: %w", err)
	}
	if err := fsys.WriteTextFile(p.SettingsPath(), string(data)); err != nil {
		return fmt.Errorf("save project settings: %w", err)
	}
	return nil
}

// AddColumn appends a translation column and returns its column number.
func (p *Project) AddColumn(name string, width int) int {
	if width <= 0 {
		width = defaultColumnWidth
	}
	p.Columns = append(p.Columns, Column{Name: name, Width: width})
	return len(p.Columns)
}

// ColumnName returns the name of translation column n (1-based).
func (p *Project) ColumnName(n int) string {
	if n >= 1 && n <= len(p.Columns) && p.Columns[n-1].Name != "" {
		return p.Columns[n-1].Name
	}
	return fmt.Sprintf("Translation %d", n)
}

// FileContext returns the context note for a file, if any.
func (p *Project) FileContext(file string) string {
	return p.FileContexts[file]
}

func (p *Project) ProgramDataPath() string {
	return filepath.Join(p.Root, ProgramDataDir)
}

func (p *Project) TranslationPath() string {
	return filepath.Join(p.ProgramDataPath(), TranslationDir)
}

func (p *Project) TempMapsPath() string {
	return filepath.Join(p.ProgramDataPath(), TempMapsDir)
}

func (p *Project) MatchesPath() string {
	return filepath.Join(p.ProgramDataPath(), MatchesDir)
}

func (p *Project) BackupPath() string {
	return filepath.Join(p.ProgramDataPath(), BackupDir)
}

func (p *Project) LogPath() string {
	return filepath.Join(p.ProgramDataPath(), LogFile)
}

func (p *Project) GlossaryPath() string {
	return filepath.Join(p.ProgramDataPath(), GlossaryFile)
}

func (p *Project) SettingsPath() string {
	return filepath.Join(p.ProgramDataPath(), ProjectSettingsFile)
}
