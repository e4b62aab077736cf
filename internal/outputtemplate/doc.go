// Package outputtemplate renders a RaceResult against an external
// field-mapping document instead of the engine's built-in text/JSON
// writers (spec §4.7 "HTML / SQL-template" output variant). A document
// names an output kind ("html" or "sql") and a list of field descriptors;
// each descriptor's Value names a key from Rider.FieldValues, the same
// indirection the original reaches via rider.__getitem__/getattr.
//
// Grounded on original_source/mkresults.py's http() and mysql()
// functions and the external JSON template they're driven by (loaded via
// json.load(open(args.output))).
package outputtemplate

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldSpec describes one output column: Name is the header/column label,
// Value is the Rider.FieldValues key to read, Class is an optional CSS
// class for the HTML variant, and Type is an optional SQL column type for
// the SQL variant (e.g. "varchar(64)", "int").
type FieldSpec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Class string `json:"class,omitempty"`
	Type  string `json:"type,omitempty"`
}

// TemplateDoc is the external field-mapping document. Table, DB, and User
// are only meaningful for the "sql" output kind.
type TemplateDoc struct {
	Output string      `json:"output"`
	Table  string      `json:"table,omitempty"`
	DB     string      `json:"db,omitempty"`
	User   string      `json:"user,omitempty"`
	Fields []FieldSpec `json:"fields"`
}

// Load reads and parses a field-mapping document from path.
func Load(path string) (*TemplateDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outputtemplate: read %s: %w", path, err)
	}
	var doc TemplateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("outputtemplate: parse %s: %w", path, err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("outputtemplate: %s: no fields declared", path)
	}
	return &doc, nil
}
