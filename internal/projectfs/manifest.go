package projectfs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// ManifestFormat names a manifest encoding
type ManifestFormat string

const (
	ManifestYAML ManifestFormat = "yaml"
	ManifestTOML ManifestFormat = "toml"
	ManifestJSON ManifestFormat = "json"
)

// Manifest is a whole project in one document
type Manifest struct {
	Name  string              `json:"name" yaml:"name" toml:"name"`
	Entry string              `json:"entry,omitempty" yaml:"entry,omitempty" toml:"entry,omitempty"`
	Files []types.ProjectFile `json:"files" yaml:"files" toml:"files"`
}

// ParseManifestFormat accepts a format name or a file name ending in one
func ParseManifestFormat(s string) (ManifestFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "yaml", s == "yml", strings.HasSuffix(s, ".yaml"), strings.HasSuffix(s, ".yml"):
		return ManifestYAML, nil
	case s == "toml", strings.HasSuffix(s, ".toml"):
		return ManifestTOML, nil
	case s == "", s == "json", strings.HasSuffix(s, ".json"):
		return ManifestJSON, nil
	}
	return "", fmt.Errorf("%w: manifest %q", ErrFormat, s)
}

// NewManifest describes files. The entry is the markup file a preview
// would start from.
func NewManifest(name string, files []types.ProjectFile) Manifest {
	m := Manifest{Name: name, Files: files}
	for _, f := range files {
		if f.Path == "index.html" {
			m.Entry = f.Path
			return m
		}
		if m.Entry == "" && types.KindOf(f.Path) == types.KindMarkup {
			m.Entry = f.Path
		}
	}
	return m
}

// EncodeManifest writes m to w
func EncodeManifest(w io.Writer, m Manifest, format ManifestFormat) error {
	var data []byte
	var err error
	switch format {
	case ManifestYAML:
		data, err = yaml.Marshal(m)
	case ManifestTOML:
		data, err = toml.Marshal(m)
	case ManifestJSON, "":
		data, err = sonic.ConfigStd.MarshalIndent(m, "", "  ")
	default:
		return fmt.Errorf("%w: manifest %q", ErrFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode %s manifest: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// DecodeManifest parses and validates a manifest
func DecodeManifest(data []byte, format ManifestFormat) (Manifest, error) {
	if err := utils.ValidateSize(data, utils.MaxProjectSize); err != nil {
		return Manifest{}, err
	}

	var m Manifest
	var err error
	switch format {
	case ManifestYAML:
		err = yaml.Unmarshal(data, &m)
	case ManifestTOML:
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&m)
	case ManifestJSON, "":
		err = sonic.ConfigStd.Unmarshal(data, &m)
	default:
		return Manifest{}, fmt.Errorf("%w: manifest %q", ErrFormat, format)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: decode %s manifest: %w", ErrFormat, format, err)
	}

	total := 0
	for i, f := range m.Files {
		norm, err := paths.Normalize(f.Path)
		if err != nil {
			return Manifest{}, err
		}
		if err := CheckContent(norm, []byte(f.Content)); err != nil {
			return Manifest{}, err
		}
		m.Files[i].Path = norm
		total += len(f.Content)
	}
	if err := utils.ValidateProjectSize(len(m.Files), total); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
