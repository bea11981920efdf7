package base

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// ParseGraded decodes a native attribute value. Revealed attributes arrive
// as a number; hidden ones as a letter grade string such as "B+".
// A missing or null value yields a hidden attribute with no grade.
func ParseGraded(name string, raw json.RawMessage) (models.GradedAttribute, error) {
	attr := models.GradedAttribute{Name: name}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return attr, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return attr, fmt.Errorf("failed to decode grade for %s: %w", name, err)
		}
		// Some feeds quote revealed numbers.
		if v, err := strconv.Atoi(s); err == nil {
			attr.Value = v
			attr.Revealed = true
			return attr, nil
		}
		attr.Grade = s
		return attr, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return attr, fmt.Errorf("failed to decode value for %s: %w", name, err)
	}
	attr.Value = int(f)
	attr.Revealed = true
	return attr, nil
}

// ParseAttributes decodes the named fields of a native record in policy order.
func ParseAttributes(names []string, fields map[string]json.RawMessage) ([]models.GradedAttribute, error) {
	attrs := make([]models.GradedAttribute, 0, len(names))
	for _, name := range names {
		attr, err := ParseGraded(name, fields[name])
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}
