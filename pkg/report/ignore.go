package report

import (
	"os"

	yaml "gopkg.in/yaml.v2"
)

// IgnoreFileName is the conventional ignore-list location, resolved
// against the working directory.
const IgnoreFileName = ".assetline-ignore.yaml"

// IgnoreList holds asset keys excluded from rollups and dashboards.
// Keys are stored in redacted form, the same form reports display.
type IgnoreList struct {
	Ignored []string `yaml:"ignored"`
}

// LoadIgnoreList reads the ignore file at path. A missing file is not
// an error; it yields an empty list.
func LoadIgnoreList(path string) (*IgnoreList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreList{}, nil
		}
		return nil, err
	}

	var list IgnoreList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Has reports whether key is on the list. Safe on a nil receiver.
func (l *IgnoreList) Has(key string) bool {
	if l == nil {
		return false
	}
	for _, existing := range l.Ignored {
		if existing == key {
			return true
		}
	}
	return false
}

// Add appends key if not already present and reports whether the list
// changed.
func (l *IgnoreList) Add(key string) bool {
	if l.Has(key) {
		return false
	}
	l.Ignored = append(l.Ignored, key)
	return true
}

// Save writes the list back to path.
func (l *IgnoreList) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AppendIgnore adds key to the ignore file at path, creating the file
// if needed. The write is read-modify-write so concurrent manual edits
// survive, and duplicates are dropped.
func AppendIgnore(path, key string) error {
	list, err := LoadIgnoreList(path)
	if err != nil {
		return err
	}
	if !list.Add(key) {
		return nil
	}
	return list.Save(path)
}
