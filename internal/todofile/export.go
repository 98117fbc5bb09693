package todofile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/amirbrooks/taskline/internal/dsl"
)

const ExportSchemaVersion = 1

// ExportTask is the JSON shape of one task. Field order and names are part
// of the export contract.
type ExportTask struct {
	Status          string            `json:"status"`
	ID              string            `json:"id,omitempty"`
	Title           string            `json:"title"`
	Priority        bool              `json:"priority,omitempty"`
	BlockedExplicit bool              `json:"blocked_explicit,omitempty"`
	Assignees       []string          `json:"assignees,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Contexts        []string          `json:"contexts,omitempty"`
	Dependencies    []string          `json:"dependencies,omitempty"`
	Recurrence      string            `json:"recurrence,omitempty"`
	Due             string            `json:"due,omitempty"`
	EstimateMinutes int               `json:"estimate_minutes,omitempty"`
	PriorityLevel   *int              `json:"priority_level,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
}

type ExportDoc struct {
	SchemaVersion int          `json:"schema_version"`
	Title         string       `json:"title,omitempty"`
	Zone          string       `json:"zone,omitempty"`
	Tasks         []ExportTask `json:"tasks"`
}

// Export renders the file as a stable JSON document.
func (f *File) Export() ([]byte, error) {
	doc := ExportDoc{
		SchemaVersion: ExportSchemaVersion,
		Title:         f.Title,
		Zone:          f.Zone,
		Tasks:         make([]ExportTask, 0, len(f.Tasks)),
	}
	for _, t := range f.Tasks {
		doc.Tasks = append(doc.Tasks, exportTask(t))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func exportTask(t *dsl.Task) ExportTask {
	out := ExportTask{
		Status:          t.Status.String(),
		ID:              t.ID,
		Title:           t.Title,
		Priority:        t.Priority,
		BlockedExplicit: t.BlockedExplicit,
		Assignees:       t.Assignees.Sorted(),
		Tags:            t.Tags.Sorted(),
		Contexts:        t.Contexts.Sorted(),
		Dependencies:    append([]string(nil), t.Dependencies...),
		Meta:            t.Meta,
	}
	if !t.Recurrence.IsEmpty() {
		out.Recurrence = t.Recurrence.String()
	}
	if t.Due != nil {
		out.Due = t.Due.Format(time.RFC3339)
	}
	if t.Estimate != nil {
		out.EstimateMinutes = int(t.Estimate.Minutes())
	}
	out.PriorityLevel = t.PriorityLevel
	return out
}

// ValidateExport checks an export document. With a schema file it validates
// against it; without one it falls back to minimal structural checks.
func ValidateExport(data []byte, schemaPath string) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("export is not valid JSON: %w", err)
	}
	if schemaPath != "" {
		schema, err := jsonschema.Compile(expandHome(schemaPath))
		if err != nil {
			return fmt.Errorf("compile schema: %w", err)
		}
		return schema.Validate(doc)
	}
	return validateExportShape(doc)
}

func validateExportShape(doc interface{}) error {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return fmt.Errorf("export root must be an object")
	}
	if _, ok := root["schema_version"].(float64); !ok {
		return fmt.Errorf("export is missing a numeric schema_version")
	}
	tasks, ok := root["tasks"].([]interface{})
	if !ok {
		return fmt.Errorf("export is missing a tasks array")
	}
	for i, raw := range tasks {
		task, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("task %d is not an object", i)
		}
		status, _ := task["status"].(string)
		if status != "open" && status != "done" {
			return fmt.Errorf("task %d has invalid status %q", i, status)
		}
		if _, ok := task["title"].(string); !ok {
			return fmt.Errorf("task %d is missing a title", i)
		}
	}
	return nil
}
