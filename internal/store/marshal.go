package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/syncmodel/internal/ir"
)

// marshalSchedule converts a schedule to canonical JSON TEXT for storage.
func marshalSchedule(schedule []string) (string, error) {
	arr := make(ir.IRArray, len(schedule))
	for i, c := range schedule {
		arr[i] = ir.IRString(c)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}
	return string(data), nil
}

// unmarshalSchedule parses a stored schedule.
func unmarshalSchedule(data string) ([]string, error) {
	var schedule []string
	if err := json.Unmarshal([]byte(data), &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	if schedule == nil {
		schedule = []string{}
	}
	return schedule, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
