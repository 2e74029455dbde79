package config

import "path/filepath"

// ArchiveConfig holds per-archive overrides from the configuration file.
type ArchiveConfig struct {
	// Priority overrides the policy: speed, balanced or thorough.
	Priority string `yaml:"priority,omitempty"`

	// MinLength and MaxLength override the dictionary length bounds.
	MinLength int `yaml:"minLength,omitempty"`
	MaxLength int `yaml:"maxLength,omitempty"`

	// Keywords are added to the contextual mode's tokens.
	Keywords []string `yaml:"keywords,omitempty"`

	// Hints are image paths whose EXIF metadata is used as context.
	Hints []string `yaml:"hints,omitempty"`

	// Dictionary is a word list appended to the built-in dictionary.
	Dictionary string `yaml:"dictionary,omitempty"`

	// Oracle overrides the archive test command.
	Oracle []string `yaml:"oracle,omitempty"`

	// BatchSize overrides the verification batch size.
	BatchSize int `yaml:"batchSize,omitempty"`

	// Model is a compiled neural transition graph.
	Model string `yaml:"model,omitempty"`
}

// File represents the structure of the .arcrack configuration file.
type File struct {
	// Archives maps archive paths or base names to overrides.
	Archives map[string]ArchiveConfig `yaml:"archives,omitempty"`

	// Defaults apply to every archive unless overridden.
	Defaults ArchiveConfig `yaml:"defaults,omitempty"`
}

// ArchiveConfig returns the merged configuration for an archive.
// The lookup tries the path as given, its cleaned absolute form and its
// base name, in that order.
func (f *File) ArchiveConfig(path string) ArchiveConfig {
	result := f.Defaults

	override, ok := f.lookup(path)
	if !ok {
		return result
	}

	if override.Priority != "" {
		result.Priority = override.Priority
	}
	if override.MinLength != 0 {
		result.MinLength = override.MinLength
	}
	if override.MaxLength != 0 {
		result.MaxLength = override.MaxLength
	}
	if len(override.Keywords) > 0 {
		result.Keywords = append(append([]string(nil), result.Keywords...), override.Keywords...)
	}
	if len(override.Hints) > 0 {
		result.Hints = append(append([]string(nil), result.Hints...), override.Hints...)
	}
	if override.Dictionary != "" {
		result.Dictionary = override.Dictionary
	}
	if len(override.Oracle) > 0 {
		result.Oracle = override.Oracle
	}
	if override.BatchSize != 0 {
		result.BatchSize = override.BatchSize
	}
	if override.Model != "" {
		result.Model = override.Model
	}

	return result
}

func (f *File) lookup(path string) (ArchiveConfig, bool) {
	if f.Archives == nil || path == "" {
		return ArchiveConfig{}, false
	}
	if ac, ok := f.Archives[path]; ok {
		return ac, true
	}
	if abs, err := filepath.Abs(path); err == nil {
		if ac, ok := f.Archives[abs]; ok {
			return ac, true
		}
	}
	if ac, ok := f.Archives[filepath.Base(path)]; ok {
		return ac, true
	}
	return ArchiveConfig{}, false
}
