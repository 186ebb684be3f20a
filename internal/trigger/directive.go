// Package trigger implements the trigger directive engine: validation and
// normalization of trigger definitions, name uniqueness rules, column
// rebinding after container layout changes, and best-effort notification
// delivery for the embedded engine.
package trigger

import (
	"net/url"
	"strings"

	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/pkg/types"
)

// Validate checks a trigger definition against the bound schema. The name
// must be non-empty, at least one monitored operation kind must be set,
// the destination URI must parse as method://host[:port][/path] (http only
// for REST triggers), message-queue triggers need destination type and
// name, and every monitored column must resolve.
func Validate(schema *codec.Schema, info types.TriggerInfo) error {
	if info.Name == "" {
		return errors.NewTriggerValidationError("trigger name must not be empty")
	}
	if len(info.Events) == 0 {
		return errors.NewTriggerValidationError(
			"at least one monitored operation kind must be set")
	}

	u, err := url.Parse(info.URI)
	if err != nil || u.Scheme == "" || u.Hostname() == "" || u.User != nil ||
		u.RawQuery != "" || u.Fragment != "" {
		return errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
			"destination URI %q does not match method://host[:port][/path]", info.URI)
	}

	switch info.Type {
	case types.TriggerREST:
		if u.Scheme != "http" {
			return errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
				"REST trigger URI must use the http method, got %q", u.Scheme)
		}
	case types.TriggerMQ:
		switch info.DestinationType {
		case "queue", "topic":
		default:
			return errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
				"message-queue destination type must be queue or topic, got %q", info.DestinationType)
		}
		if info.DestinationName == "" {
			return errors.NewTriggerValidationError(
				"message-queue destination name must not be empty")
		}
	default:
		return errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
			"unknown trigger type %d", info.Type)
	}

	for _, col := range info.Columns {
		if _, _, ok := schema.ColumnByName(col); !ok {
			return errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
				"monitored column %q does not exist", col)
		}
	}
	return nil
}

// PlanCreate decides how a validated definition lands in the existing
// trigger set. A trigger with the exact same name is overwritten
// (replace >= 0); a name that collides only case-insensitively with a
// different name is a conflict. replace < 0 means append.
func PlanCreate(existing []types.TriggerInfo, info types.TriggerInfo) (int, error) {
	for i, have := range existing {
		if have.Name == info.Name {
			return i, nil
		}
		if strings.EqualFold(have.Name, info.Name) {
			return 0, errors.Newf(errors.ErrCategoryTrigger, errors.CodeTriggerValidation,
				"trigger name %q collides case-insensitively with existing trigger %q",
				info.Name, have.Name)
		}
	}
	return -1, nil
}

// PlanDrop locates the trigger with the given name, case-insensitively.
// A missing name is not an error; ok is false.
func PlanDrop(existing []types.TriggerInfo, name string) (int, bool) {
	for i, have := range existing {
		if strings.EqualFold(have.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Rebind prunes monitored-column references that no longer resolve in the
// new column layout. The trigger definition itself is always retained,
// possibly with a reduced column set.
func Rebind(info types.TriggerInfo, columns []types.ColumnInfo) types.TriggerInfo {
	out := info.Clone()
	if len(out.Columns) == 0 {
		return out
	}
	kept := out.Columns[:0]
	for _, name := range out.Columns {
		for _, col := range columns {
			if strings.EqualFold(col.Name, name) {
				kept = append(kept, name)
				break
			}
		}
	}
	out.Columns = kept
	return out
}
