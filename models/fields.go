package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// StringList stores an ordered list of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into StringList", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

// JSONMap stores free-form key/value data as a JSON column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into JSONMap", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, m)
}

// CriteriaType enumerates the metrics a badge or milestone can be gated on.
type CriteriaType string

const (
	CriteriaStreak               CriteriaType = "streak"
	CriteriaActivityCount        CriteriaType = "activity_count"
	CriteriaRelationshipDuration CriteriaType = "relationship_duration"
)

// BadgeCriteria is the typed unlock predicate stored on Badge rows,
// e.g. {"type": "streak", "value": 7}.
type BadgeCriteria struct {
	Type      CriteriaType `json:"type"`
	Threshold int          `json:"value"`
}

func (c BadgeCriteria) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *BadgeCriteria) Scan(src interface{}) error {
	if src == nil {
		return errors.New("badge criteria must not be null")
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into BadgeCriteria", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, c)
}
