package capture

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ImportFile is the YAML document accepted by LoadEntries.
type ImportFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadEntries decodes capture entries from YAML. Entries without an
// indicator are rejected.
func LoadEntries(r io.Reader) ([]Entry, error) {
	var f ImportFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "capture: decode yaml")
	}
	for i, e := range f.Entries {
		if strings.TrimSpace(e.Indicator) == "" {
			return nil, eris.Errorf("capture: entry %d has no indicador", i+1)
		}
	}
	return f.Entries, nil
}

// WriteEntries encodes entries in the format read by LoadEntries.
func WriteEntries(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ImportFile{Entries: entries}); err != nil {
		return eris.Wrap(err, "capture: encode yaml")
	}
	return eris.Wrap(enc.Close(), "capture: flush yaml")
}
