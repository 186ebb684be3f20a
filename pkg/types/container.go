package types

import (
	"time"

	"github.com/tesserdb/tesser/internal/errors"
)

// ContainerType identifies the kind of a container.
type ContainerType int

const (
	// ContainerCollection is a flat row collection addressed by an
	// arbitrary row key.
	ContainerCollection ContainerType = iota

	// ContainerTimeSeries is a time-series container whose row key, when
	// assigned, is the TIMESTAMP column 0.
	ContainerTimeSeries
)

// String returns the canonical name of the container type.
func (t ContainerType) String() string {
	switch t {
	case ContainerCollection:
		return "COLLECTION"
	case ContainerTimeSeries:
		return "TIME_SERIES"
	default:
		return "UNKNOWN"
	}
}

// MaxColumns is the largest column count a container may declare.
const MaxColumns = 1024

// maxAffinityLen bounds the data affinity symbol length.
const maxAffinityLen = 8

// TimeSeriesProperties holds the optional time-series settings of a
// container.
type TimeSeriesProperties struct {
	// RowExpiration is how long rows are retained; zero means no expiry
	RowExpiration time.Duration

	// ExpirationDivisionCount is the number of expiry division units
	ExpirationDivisionCount int
}

// Clone returns a copy of the properties.
func (p *TimeSeriesProperties) Clone() *TimeSeriesProperties {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ContainerInfo describes a container: its name, type, column layout, row
// key presence, indexes, triggers, time-series options and data affinity.
//
// It does not guarantee global validity of the combination of settings;
// column count and row key invariants are checked when a container is
// materialized against the info, not at construction.
type ContainerInfo struct {
	name                 string
	typ                  ContainerType
	columns              []ColumnInfo
	rowKeyAssigned       bool
	indexes              []IndexInfo
	triggers             []TriggerInfo
	tsProps              *TimeSeriesProperties
	columnOrderIgnorable bool
	dataAffinity         string
}

// NewContainerInfo creates container information from a column layout.
// The column list is copied; later mutation of the argument does not
// affect the stored state.
func NewContainerInfo(name string, typ ContainerType, columns []ColumnInfo, rowKeyAssigned bool) *ContainerInfo {
	info := &ContainerInfo{
		name:           name,
		typ:            typ,
		rowKeyAssigned: rowKeyAssigned,
	}
	info.SetColumns(columns)
	return info
}

// Clone duplicates the container information, deep-copying the column,
// index and trigger lists and the time-series properties.
func (c *ContainerInfo) Clone() *ContainerInfo {
	cp := &ContainerInfo{
		name:                 c.name,
		typ:                  c.typ,
		rowKeyAssigned:       c.rowKeyAssigned,
		columnOrderIgnorable: c.columnOrderIgnorable,
		dataAffinity:         c.dataAffinity,
		tsProps:              c.tsProps.Clone(),
	}
	cp.SetColumns(c.columns)
	cp.SetIndexes(c.indexes)
	cp.SetTriggers(c.triggers)
	return cp
}

// Name returns the container name, or "" if unspecified.
func (c *ContainerInfo) Name() string { return c.name }

// SetName sets the container name.
func (c *ContainerInfo) SetName(name string) { c.name = name }

// Type returns the container type.
func (c *ContainerInfo) Type() ContainerType { return c.typ }

// SetType sets the container type.
func (c *ContainerInfo) SetType(typ ContainerType) { c.typ = typ }

// ColumnCount returns the number of columns, 0 if the layout is unspecified.
func (c *ContainerInfo) ColumnCount() int { return len(c.columns) }

// Column returns the column at the given index.
func (c *ContainerInfo) Column(i int) (ColumnInfo, bool) {
	if i < 0 || i >= len(c.columns) {
		return ColumnInfo{}, false
	}
	return c.columns[i], true
}

// Columns returns a copy of the column list.
func (c *ContainerInfo) Columns() []ColumnInfo {
	cp := make([]ColumnInfo, len(c.columns))
	copy(cp, c.columns)
	return cp
}

// SetColumns replaces the column layout. The list is copied at assignment
// time.
func (c *ContainerInfo) SetColumns(columns []ColumnInfo) {
	if len(columns) == 0 {
		c.columns = nil
		return
	}
	c.columns = make([]ColumnInfo, len(columns))
	copy(c.columns, columns)
}

// RowKeyAssigned reports whether column 0 is the row key.
func (c *ContainerInfo) RowKeyAssigned() bool { return c.rowKeyAssigned }

// SetRowKeyAssigned sets row key presence.
func (c *ContainerInfo) SetRowKeyAssigned(assigned bool) { c.rowKeyAssigned = assigned }

// ColumnOrderIgnorable reports whether column order may be ignored when the
// info is matched against an existing container.
func (c *ContainerInfo) ColumnOrderIgnorable() bool { return c.columnOrderIgnorable }

// SetColumnOrderIgnorable sets whether column order may be ignored.
func (c *ContainerInfo) SetColumnOrderIgnorable(ignorable bool) { c.columnOrderIgnorable = ignorable }

// Indexes returns a copy of the index list.
func (c *ContainerInfo) Indexes() []IndexInfo {
	cp := make([]IndexInfo, len(c.indexes))
	copy(cp, c.indexes)
	return cp
}

// SetIndexes replaces the index list. The list is copied at assignment time.
func (c *ContainerInfo) SetIndexes(indexes []IndexInfo) {
	if len(indexes) == 0 {
		c.indexes = nil
		return
	}
	c.indexes = make([]IndexInfo, len(indexes))
	copy(c.indexes, indexes)
}

// Triggers returns a deep copy of the trigger list.
func (c *ContainerInfo) Triggers() []TriggerInfo {
	cp := make([]TriggerInfo, len(c.triggers))
	for i, t := range c.triggers {
		cp[i] = t.Clone()
	}
	return cp
}

// SetTriggers replaces the trigger list. The list is deep-copied at
// assignment time.
func (c *ContainerInfo) SetTriggers(triggers []TriggerInfo) {
	if len(triggers) == 0 {
		c.triggers = nil
		return
	}
	c.triggers = make([]TriggerInfo, len(triggers))
	for i, t := range triggers {
		c.triggers[i] = t.Clone()
	}
}

// TimeSeriesProperties returns a copy of the time-series options, or nil.
func (c *ContainerInfo) TimeSeriesProperties() *TimeSeriesProperties {
	return c.tsProps.Clone()
}

// SetTimeSeriesProperties sets the time-series options. The argument is
// cloned; nil cancels the setting.
func (c *ContainerInfo) SetTimeSeriesProperties(props *TimeSeriesProperties) {
	c.tsProps = props.Clone()
}

// DataAffinity returns the data affinity hint, or "" as default.
func (c *ContainerInfo) DataAffinity() string { return c.dataAffinity }

// SetDataAffinity sets the data affinity hint used by the cluster to
// co-locate related containers. The string must satisfy the symbol
// grammar: first character a letter or underscore, remaining characters
// alphanumeric or underscore, at most 8 characters. An empty string
// cancels the setting. Violations fail immediately, not at use time.
func (c *ContainerInfo) SetDataAffinity(affinity string) error {
	if affinity != "" {
		if err := CheckSymbol(affinity, "data affinity"); err != nil {
			return err
		}
	}
	c.dataAffinity = affinity
	return nil
}

// CheckSymbol validates a symbol string against the affinity/name grammar.
func CheckSymbol(s, what string) error {
	if s == "" {
		return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSymbol,
			"empty %s", what)
	}
	if len(s) > maxAffinityLen {
		return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSymbol,
			"%s %q exceeds %d characters", what, s, maxAffinityLen)
	}
	for i, r := range s {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if i == 0 && !letter {
			return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSymbol,
				"%s %q must start with a letter or underscore", what, s)
		}
		if !letter && !digit {
			return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidSymbol,
				"%s %q contains invalid character %q", what, s, r)
		}
	}
	return nil
}
