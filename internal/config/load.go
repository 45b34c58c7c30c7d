package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"certify/internal/pkg/errors"
)

// Sections is the raw key/value form both file formats decode into.
type Sections map[string]map[string]string

// Load reads the configuration file at path. Files ending in .yaml or .yml
// are YAML; anything else is read as INI, the format of the original
// input.dat files.
func Load(path string) (*Options, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.Validation("configuration file not specified").WithOp("config.load")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("configuration file", path).WithOp("config.load")
		}
		return nil, errors.Wrapf(err, "config.load", "read %s", path)
	}

	var sections Sections
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sections, err = decodeYAML(data)
	default:
		sections, err = decodeINI(data)
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "config.load", "parse "+path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return FromSections(abs, sections)
}

func decodeINI(data []byte) (Sections, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		InsensitiveSections:        true,
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
	}, data)
	if err != nil {
		return nil, err
	}

	out := make(Sections)
	for _, s := range f.Sections() {
		if strings.EqualFold(s.Name(), ini.DefaultSection) && len(s.Keys()) == 0 {
			continue
		}
		kv := make(map[string]string, len(s.Keys()))
		for _, k := range s.Keys() {
			kv[k.Name()] = strings.TrimSpace(k.String())
		}
		out[s.Name()] = kv
	}
	return out, nil
}

func decodeYAML(data []byte) (Sections, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := make(Sections, len(doc))
	for name, kv := range doc {
		sec := make(map[string]string, len(kv))
		for k, v := range kv {
			sec[strings.ToLower(k)] = scalar(v)
		}
		out[strings.ToLower(name)] = sec
	}
	return out, nil
}

// scalar flattens a YAML value to the string form the INI format uses.
// Lists become comma separated, so coords may be written as [0.5, 0.3].
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = scalar(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// FromSections builds Options from decoded sections. path is the absolute
// configuration file path; relative paths in [settings] resolve against its
// directory.
func FromSections(path string, sections Sections) (*Options, error) {
	o := &Options{
		Path: path,
		Settings: Settings{
			FontsFolder: ".",
			WrapWidth:   defaultWrapWidth,
			Storage:     "localfs",
		},
		Layout: Layout{
			PaperSize:   "A4",
			Orientation: "vertical",
			CustomSize:  "10.0 10.0",
		},
		Info: Info{Fields: make(map[string]FieldSpec, len(FieldNames))},
	}
	for _, name := range FieldNames {
		o.Info.Fields[name] = FieldSpec{Name: name, Text: defaultText[name]}
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		kv := sections[name]
		var apply func(o *Options, key, val string) (bool, error)
		switch name {
		case SectionSettings:
			apply = applySetting
		case SectionLayout:
			apply = applyLayout
		case SectionInfo:
			apply = applyInfo
		default:
			o.Diagnostics = append(o.Diagnostics, Diagnostic{Section: name})
			continue
		}

		for _, key := range sortedKeys(kv) {
			known, err := apply(o, key, kv[key])
			if err != nil {
				return nil, err
			}
			if !known {
				o.Diagnostics = append(o.Diagnostics, Diagnostic{Section: name, Key: key})
			}
		}
	}

	for _, name := range OptionalFieldNames {
		if o.Info.Field(name).partial() {
			o.Diagnostics = append(o.Diagnostics, Diagnostic{
				Section: SectionInfo,
				Key:     name,
				Reason:  reasonPartialField,
			})
		}
	}

	base := filepath.Dir(path)
	o.Settings.ParticipantsData = resolve(base, o.Settings.ParticipantsData)
	o.Settings.Workdir = resolve(base, o.Settings.Workdir)
	o.Settings.FontsFolder = resolve(base, o.Settings.FontsFolder)
	o.Settings.Template = resolve(base, o.Settings.Template)
	if o.Settings.Basename == "" && o.Settings.Template != "" {
		o.Settings.Basename = templateStem(o.Settings.Template)
	}

	return o, nil
}

const reasonPartialField = "needs text, coords, font and font size to be drawn; skipped"

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
