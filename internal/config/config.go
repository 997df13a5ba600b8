// Package config defines the JSON-serializable pipeline model for trialetl.
// Field names in Go mirror the JSON structure used in pipeline files under
// configs/pipelines/*.json; decoding is done by encoding/json, with a light
// Options helper for the per-kind settings whose shape varies.
//
// Example (trimmed):
//
//	{
//	  "job":      "nsclc-2024",
//	  "source":   { "kind": "file", "file": { "path": "responses.jsonl" } },
//	  "parser":   { "kind": "trialtext", "options": { "html": true } },
//	  "transform":[
//	    { "kind": "normalize", "options": { "max_length": 100 } },
//	    { "kind": "dedupe", "options": { "keys": ["NCT_Number"] } }
//	  ],
//	  "storage":  { "kind": "csv", "file": { "path": "out/trials.csv" } }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job"`

	// Source describes where model responses come from.
	Source Source `json:"source"`

	// Parser configures how a response text becomes trial records.
	Parser Parser `json:"parser"`

	// Transform lists the ordered transformations applied to parsed records.
	Transform []Transform `json:"transform"`

	// Storage describes where the unified table is written.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls concurrency and batching. Zero values fall back to
// environment variables and then to built-in defaults.
type RuntimeConfig struct {
	ParseWorkers int `json:"parse_workers"`
	BatchSize    int `json:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is a response file, a directory of *.txt responses, a JSONL dump
	// or a list file.
	Path string `json:"path"`

	// Format is one of "auto" (default), "text", "dir", "jsonl", "list".
	Format string `json:"format"`
}

// Parser selects how responses are parsed.
type Parser struct {
	// Kind selects the parser implementation. Current value: "trialtext".
	Kind string `json:"kind"`

	// Options for trialtext:
	//   html (bool)            convert HTML/Markdown responses to plain text first
	//   max_group_index (int)  ignore GroupN headers above this index; 0 = no limit
	Options Options `json:"options"`
}

// Transform defines a single transformation step.
type Transform struct {
	// Kind is one of "normalize", "trial_id", "dedupe", "require".
	Kind string `json:"kind"`

	// Options is interpreted by the selected transform.
	Options Options `json:"options"`
}

// Storage selects the sink for the unified table.
type Storage struct {
	// Kind is one of "csv" (default), "sqlite", "postgres", "mssql", "mysql".
	Kind string `json:"kind"`

	// File configures the "csv" sink.
	File FileConfig `json:"file"`

	// DB configures the SQL sinks.
	DB DBConfig `json:"db"`
}

// FileConfig configures a file sink.
type FileConfig struct {
	// Path of the output file; parent directories are created.
	Path string `json:"path"`
}

// DBConfig configures a SQL sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`

	// AutoCreateTable creates the table from the unified columns (all TEXT)
	// when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default when
// a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		if n, ok := toInt(v); ok {
			return n
		}
	}
	return def
}

// IntMap returns a map[string]int for key when the value is an object whose
// values are numbers. Other values are ignored. Returns an empty map when the
// key is missing or the value is not an object.
func (o Options) IntMap(key string) map[string]int {
	res := map[string]int{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if n, ok := toInt(vv); ok {
					res[k] = n
				}
			}
		}
	}
	return res
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
