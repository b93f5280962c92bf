package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the YAML document accepted by the settings import command.
type SettingsFile struct {
	StartTime         string   `yaml:"startTime"`
	EndTime           string   `yaml:"endTime"`
	ClassBlockMinutes int      `yaml:"classBlockMinutes"`
	OperatingDays     []int    `yaml:"operatingDays"`
	ClassBlocks       []Block  `yaml:"classBlocks"`
	Breaks            []Block  `yaml:"breaks"`
	ResourceTags      []string `yaml:"resourceTags"`
}

// LoadSettingsFile reads and decodes a settings document from disk.
func LoadSettingsFile(path string) (SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SettingsFile{}, fmt.Errorf("read settings file: %w", err)
	}
	return DecodeSettings(bytes.NewReader(data))
}

// DecodeSettings decodes a settings document, rejecting unknown keys.
func DecodeSettings(r io.Reader) (SettingsFile, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file SettingsFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return SettingsFile{}, fmt.Errorf("decode settings: empty document")
		}
		return SettingsFile{}, fmt.Errorf("decode settings: %w", err)
	}
	return file, nil
}

// GeneratedBlocks runs the generator over the file's day bounds and breaks.
func (f SettingsFile) GeneratedBlocks() ([]Block, error) {
	return GenerateFromSettings(f.StartTime, f.EndTime, f.ClassBlockMinutes, f.Breaks)
}
