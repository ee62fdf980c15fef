// Package tpa contains one adapter per third-party insurance administrator.
// Every adapter follows the same skeleton: obtain a credential if the TPA
// requires one, iterate target policies (or pages), call the administrator's
// API through the shared gateway, audit-log the raw exchange, guard-parse the
// response, validate the TPA's success indicator, map each hospital item
// through a fixed field dictionary, and replace the destination table
// snapshot. The eight response schemas are deliberately kept separate; the
// field differences between administrators are real data differences.
package tpa

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

// Adapter synchronizes one TPA's network-hospital directory.
type Adapter interface {
	// Name is the short identifier used in logs, events, and CLI selection.
	Name() string
	// Company is the directory segment for audit log files.
	Company() string
	// Run executes a full fetch-and-replace cycle.
	Run(ctx context.Context) (entities.RunResult, error)
}

// TPA identifiers as used in policy_master.tpa_id.
const (
	TPAIDVidal      = 65
	TPAIDFHPL       = 66
	TPAIDMediassist = 67
	TPAIDSafeway    = 68
	TPAIDICICI      = 69
	TPAIDCare       = 70
	TPAIDEWA        = 71
	TPAIDEricson    = 73
)

// Destination tables, one per TPA, fully replaced on each run.
const (
	vidalTable      = "vidal_network_hospitals"
	ericsonTable    = "ericson_network_hospitals"
	mediassistTable = "mediassist_network_hospitals"
	ewaTable        = "ewa_network_hospitals"
	iciciTable      = "icici_network_hospitals"
	careTable       = "care_network_hospitals"
	safewayTable    = "safeway_network_hospitals"
	fhplTable       = "fhpl_network_hospitals"
)

// guardPrefix is the anti-JSON-hijacking sequence some TPA gateways prepend
// to response bodies. It must be stripped before decoding.
const guardPrefix = ")]}',"

// StripGuardPrefix removes a leading guard sequence and surrounding
// whitespace from a raw response body.
func StripGuardPrefix(body string) string {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	trimmed = strings.TrimPrefix(trimmed, guardPrefix)
	return strings.TrimLeft(trimmed, " \t\r\n")
}

// DecodeObject guard-strips and JSON-decodes a response body into a generic
// object. Adapters never decode into typed structs because each TPA's schema
// is preserved as received.
func DecodeObject(body string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(StripGuardPrefix(body)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// asArray reports whether the value is a JSON array and returns its items.
func asArray(value interface{}) ([]interface{}, bool) {
	items, ok := value.([]interface{})
	return items, ok
}

// dig walks a nested object path, returning false if any segment is missing
// or not an object.
func dig(obj map[string]interface{}, path ...string) (interface{}, bool) {
	var current interface{} = obj
	for _, key := range path {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// fieldMap binds one external response field to one destination column.
type fieldMap struct {
	src    string
	column string
}

// mapRow applies a field dictionary to one hospital item. Absent fields map
// to empty strings rather than failing the row.
func mapRow(item map[string]interface{}, mapping []fieldMap) entities.HospitalRow {
	row := make(entities.HospitalRow, len(mapping))
	for _, field := range mapping {
		row[field.column] = stringValue(item[field.src])
	}
	return row
}

// stringValue renders a decoded JSON value as the flat text form stored in
// the hospital tables.
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
