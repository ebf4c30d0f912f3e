// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"planning-workers/internal/common/validation"
)

func LoadRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the definition registered for a task type.
func (r *TaskRegistry) Find(taskType string) (*TaskDefinition, bool) {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i], true
		}
	}
	return nil, false
}

// ValidateInput checks job variables against the registered input schema for
// a task type. Unknown task types pass: the registry documents contracts, it
// does not gate execution.
func (r *TaskRegistry) ValidateInput(taskType string, variables map[string]interface{}) error {
	def, ok := r.Find(taskType)
	if !ok {
		return nil
	}
	if err := validation.ValidateAgainstSchema(def.InputSchema, variables); err != nil {
		return fmt.Errorf("task %s: %w", taskType, err)
	}
	return nil
}
