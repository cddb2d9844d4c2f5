package nomadjob

import (
	"encoding/json"
	"fmt"
	"strings"

	nomad "github.com/hashicorp/nomad/api"
	"github.com/xeipuuv/gojsonschema"
)

// jobSchema is the structural contract a job file must satisfy before the
// bytes are handed to the Nomad API. It catches the usual hand-editing
// mistakes (missing ID, task groups that aren't arrays) with a readable
// message instead of a server-side 400.
const jobSchema = `{
  "type": "object",
  "required": ["ID", "Name", "TaskGroups"],
  "properties": {
    "ID": {"type": "string", "minLength": 1},
    "Name": {"type": "string", "minLength": 1},
    "Type": {"type": "string", "enum": ["service", "batch", "system", "sysbatch"]},
    "Priority": {"type": "integer", "minimum": 1, "maximum": 100},
    "Datacenters": {"type": "array", "items": {"type": "string"}},
    "TaskGroups": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["Name"],
        "properties": {
          "Name": {"type": "string", "minLength": 1},
          "Count": {"type": "integer", "minimum": 0},
          "Tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["Name", "Driver"],
              "properties": {
                "Name": {"type": "string", "minLength": 1},
                "Driver": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

// ParseJobFile validates raw job JSON against the schema and decodes it.
func ParseJobFile(data []byte) (*nomad.Job, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(jobSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("job file is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("job file failed validation:\n  %s", strings.Join(problems, "\n  "))
	}

	var job nomad.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job file: %w", err)
	}
	return &job, nil
}
