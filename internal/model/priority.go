package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority is an ordinal task importance level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = [...]string{"Low", "Medium", "High"}

var priorityDisplayNames = [...]string{"Низкий", "Средний", "Высокий"}

// Valid reports whether p is one of the known levels.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// String returns the enum name (Low, Medium, High).
func (p Priority) String() string {
	if !p.Valid() {
		return strconv.Itoa(int(p))
	}
	return priorityNames[p]
}

// DisplayName returns the human-readable label shown in task listings.
func (p Priority) DisplayName() string {
	if !p.Valid() {
		return p.String()
	}
	return priorityDisplayNames[p]
}

// ParsePriority accepts the ordinal, the enum name or the display name.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, fmt.Errorf("unknown priority %d", n)
		}
		return p, nil
	}
	for i := range priorityNames {
		if strings.EqualFold(raw, priorityNames[i]) || strings.EqualFold(raw, priorityDisplayNames[i]) {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", raw)
}
