package config

import (
	"fmt"
	"strings"

	"trialetl/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline. Path is a
// dotted path into the config (e.g. "storage.kind",
// "transform[1].options.keys").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Known kinds. Unknown kinds are warnings so that a backend registered by a
// separate build can still be selected.
var (
	knownSources    = map[string]struct{}{"file": {}}
	knownParsers    = map[string]struct{}{"trialtext": {}}
	knownTransforms = map[string]struct{}{"normalize": {}, "trial_id": {}, "dedupe": {}, "require": {}}
	knownStorage    = map[string]struct{}{"csv": {}, "sqlite": {}, "postgres": {}, "mssql": {}, "mysql": {}}
	knownFormats    = map[string]struct{}{"": {}, "auto": {}, "text": {}, "dir": {}, "jsonl": {}, "list": {}}
	dedupePolicies  = map[string]struct{}{"": {}, "keep-first": {}, "keep-last": {}, "most-complete": {}}
)

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	}
	if _, ok := knownSources[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
		if _, ok := knownFormats[strings.ToLower(s.File.Format)]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.format",
				Message:  fmt.Sprintf("unknown format %q; use auto, text, dir, jsonl or list", s.File.Format),
			})
		}
	}

	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
	}
	if _, ok := knownParsers[p.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
	}

	if p.Kind == "trialtext" && p.Options.Int("max_group_index", 0) < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.max_group_index",
			Message:  "max_group_index must not be negative",
		})
	}

	return issues
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	if len(ts) == 0 {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "no transforms configured; parsed values will be written without normalization",
		})
	}

	for i, t := range ts {
		path := fmt.Sprintf("transform[%d]", i)
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  "transform kind must not be empty",
			})
			continue
		}
		if _, ok := knownTransforms[t.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown transform kind %q; ensure a matching implementation exists", t.Kind),
			})
		}

		switch t.Kind {
		case "normalize":
			if t.Options.Has("max_length") && t.Options.Int("max_length", 0) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     path + ".options.max_length",
					Message:  "max_length 0 falls back to the default limit; use a negative value to disable truncation",
				})
			}
			for k := range t.Options.IntMap("max_lengths") {
				if !knownFieldName(k) {
					issues = append(issues, Issue{
						Severity: SeverityWarning,
						Path:     path + ".options.max_lengths." + k,
						Message:  fmt.Sprintf("%q is not a fixed field, group field or group key", k),
					})
				}
			}
		case "dedupe":
			if len(t.Options.StringSlice("keys")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".options.keys",
					Message:  "dedupe requires at least one key field",
				})
			}
			policy := strings.ToLower(t.Options.String("policy", ""))
			if _, ok := dedupePolicies[policy]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".options.policy",
					Message:  fmt.Sprintf("unknown policy %q; use keep-first, keep-last or most-complete", policy),
				})
			}
		case "require":
			if len(t.Options.StringSlice("fields")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     path + ".options.fields",
					Message:  "require has no fields; it will not drop anything",
				})
			}
		}
	}

	return issues
}

func knownFieldName(k string) bool {
	if schema.IsFixedField(k) || schema.IsGroupField(k) {
		return true
	}
	_, field, ok := schema.SplitGroupKey(k)
	return ok && schema.IsGroupField(field)
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		kind = "csv"
	}
	if _, ok := knownStorage[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if kind == "csv" {
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.file.path",
				Message:  "csv storage requires an output path",
			})
		}
		return issues
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ParseWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.parse_workers",
			Message:  "parse_workers must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}
