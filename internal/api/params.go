package api

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"todolist/internal/model"
)

// param is a scalar input that may arrive as a JSON string, a JSON number or
// a form value.
type param string

func (p *param) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = param(s)
	default:
		*p = param(data)
	}
	return nil
}

func (p *param) UnmarshalParam(src string) error {
	*p = param(src)
	return nil
}

func (p param) blank() bool {
	return strings.TrimSpace(string(p)) == ""
}

func (p param) priority() (model.Priority, error) {
	return model.ParsePriority(string(p))
}

func (p param) id() (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(string(p)), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
