package engine

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/index"
	"github.com/tesserdb/tesser/pkg/types"
)

// snapshotter persists committed container state to SQLite. Flush writes
// a full replacement of the container's rows; reload happens once at
// engine startup.
type snapshotter struct {
	db *sql.DB
}

func openSnapshotter(dbPath string) (*snapshotter, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeInvalidConfig,
			"failed to open snapshot database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS containers (
		name           TEXT PRIMARY KEY,
		container_type INTEGER NOT NULL,
		row_key        INTEGER NOT NULL,
		columns        TEXT NOT NULL,
		affinity       TEXT NOT NULL DEFAULT '',
		indexes        TEXT NOT NULL DEFAULT '[]',
		triggers       TEXT NOT NULL DEFAULT '[]',
		version        INTEGER NOT NULL DEFAULT 0,
		updated_at     INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS container_rows (
		container TEXT NOT NULL,
		row_key   TEXT NOT NULL,
		data      TEXT NOT NULL,
		PRIMARY KEY (container, row_key)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewStorageError(errors.CodeInvalidConfig,
			"failed to create snapshot tables", err)
	}
	return &snapshotter{db: db}, nil
}

func (s *snapshotter) close() error {
	return s.db.Close()
}

type columnRecord struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Nullable bool   `json:"nullable"`
}

type indexRecord struct {
	Column string `json:"column"`
	Type   int    `json:"type"`
	Name   string `json:"name,omitempty"`
}

// persist replaces the container's stored definition and rows. Callers
// hold the container's row mutex.
func (s *snapshotter) persist(ctx context.Context, state *containerState) error {
	cols := make([]columnRecord, 0, state.schema.ColumnCount())
	for _, c := range state.schema.Columns() {
		cols = append(cols, columnRecord{Name: c.Name, Type: int(c.Type), Nullable: c.Nullable})
	}
	colJSON, err := json.Marshal(cols)
	if err != nil {
		return errors.NewInternalError("failed to encode column layout", err)
	}
	layout := state.schema.Columns()
	idx := make([]indexRecord, 0, len(state.indexes))
	for _, i := range state.indexes {
		if i.Column < 0 || i.Column >= len(layout) {
			continue
		}
		idx = append(idx, indexRecord{Column: layout[i.Column].Name, Type: int(i.Type), Name: i.Name})
	}
	idxJSON, err := json.Marshal(idx)
	if err != nil {
		return errors.NewInternalError("failed to encode indexes", err)
	}
	trigJSON, err := json.Marshal(state.triggers)
	if err != nil {
		return errors.NewInternalError("failed to encode triggers", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to begin snapshot", err)
	}
	defer tx.Rollback()

	rowKey := 0
	if state.schema.HasRowKey() {
		rowKey = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO containers (name, container_type, row_key, columns, affinity, indexes, triggers, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			container_type = excluded.container_type,
			row_key        = excluded.row_key,
			columns        = excluded.columns,
			affinity       = excluded.affinity,
			indexes        = excluded.indexes,
			triggers       = excluded.triggers,
			version        = excluded.version,
			updated_at     = excluded.updated_at`,
		state.name, int(state.schema.ContainerType()), rowKey, string(colJSON),
		state.info.DataAffinity(), string(idxJSON), string(trigJSON),
		state.version.Load(), time.Now().UnixMilli())
	if err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to persist container", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM container_rows WHERE container = ?`, state.name); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to clear old rows", err)
	}
	for _, key := range sortKeys(state.order) {
		data, err := encodeRowJSON(state.rows[key])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO container_rows (container, row_key, data) VALUES (?, ?, ?)`,
			state.name, key, data); err != nil {
			return errors.NewStorageError(errors.CodeUploadFailed, "failed to persist row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "failed to commit snapshot", err)
	}
	return nil
}

func (s *snapshotter) drop(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM containers WHERE name = ?`, name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM container_rows WHERE container = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *snapshotter) loadAll() ([]*containerState, error) {
	rows, err := s.db.Query(
		`SELECT name, container_type, row_key, columns, affinity, indexes, triggers, version FROM containers`)
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed, "failed to load containers", err)
	}
	defer rows.Close()

	var states []*containerState
	for rows.Next() {
		var (
			name, colJSON, affinity, idxJSON, trigJSON string
			ctype, rowKey                              int
			version                                    uint64
		)
		if err := rows.Scan(&name, &ctype, &rowKey, &colJSON, &affinity,
			&idxJSON, &trigJSON, &version); err != nil {
			return nil, errors.NewStorageError(errors.CodeDownloadFailed, "failed to scan container", err)
		}
		state, err := s.loadContainer(name, ctype, rowKey == 1, colJSON, affinity, idxJSON, trigJSON, version)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

func (s *snapshotter) loadContainer(name string, ctype int, hasKey bool,
	colJSON, affinity, idxJSON, trigJSON string, version uint64) (*containerState, error) {
	var cols []columnRecord
	if err := json.Unmarshal([]byte(colJSON), &cols); err != nil {
		return nil, errors.NewInternalError("failed to decode column layout", err)
	}
	columns := make([]types.ColumnInfo, 0, len(cols))
	for _, c := range cols {
		columns = append(columns, types.ColumnInfo{
			Name: c.Name, Type: types.ColumnType(c.Type), Nullable: c.Nullable,
		})
	}
	info := types.NewContainerInfo(name, types.ContainerType(ctype), columns, hasKey)
	if affinity != "" {
		if err := info.SetDataAffinity(affinity); err != nil {
			return nil, err
		}
	}
	schema, err := codec.Bind(info)
	if err != nil {
		return nil, err
	}

	state := &containerState{
		name:   name,
		info:   info.Clone(),
		schema: schema,
		rows:   make(map[string]types.Row),
	}
	state.version.Store(version)

	var idx []indexRecord
	if err := json.Unmarshal([]byte(idxJSON), &idx); err != nil {
		return nil, errors.NewInternalError("failed to decode indexes", err)
	}
	for _, rec := range idx {
		at, _, ok := schema.ColumnByName(rec.Column)
		if !ok {
			return nil, errors.NewInternalError(
				"snapshot index references unknown column "+rec.Column, nil)
		}
		state.indexes = append(state.indexes, index.Resolved{
			Column: at, Type: types.IndexType(rec.Type), Name: rec.Name,
		})
	}
	if err := json.Unmarshal([]byte(trigJSON), &state.triggers); err != nil {
		return nil, errors.NewInternalError("failed to decode triggers", err)
	}

	rowRows, err := s.db.Query(
		`SELECT row_key, data FROM container_rows WHERE container = ? ORDER BY row_key`, name)
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed, "failed to load rows", err)
	}
	defer rowRows.Close()
	for rowRows.Next() {
		var key, data string
		if err := rowRows.Scan(&key, &data); err != nil {
			return nil, errors.NewStorageError(errors.CodeDownloadFailed, "failed to scan row", err)
		}
		row, err := decodeRowJSON(data, schema)
		if err != nil {
			return nil, err
		}
		state.rows[key] = row
		state.order = append(state.order, key)
	}
	return state, rowRows.Err()
}

// encodeRowJSON serializes a row for the snapshot: timestamps as epoch
// milliseconds, binary payloads as base64, arrays elementwise, nulls as
// JSON null.
func encodeRowJSON(row types.Row) (string, error) {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = encodeValueJSON(v)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", errors.NewInternalError("failed to encode row", err)
	}
	return string(data), nil
}

func encodeValueJSON(v types.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == types.String || t == types.Geometry:
		return v.AsString()
	case t == types.Bool:
		return v.AsBool()
	case t == types.Float || t == types.Double:
		return v.AsFloat()
	case t == types.Timestamp:
		return v.AsTime().UnixMilli()
	case t == types.Blob:
		return base64.StdEncoding.EncodeToString(v.AsBytes())
	case t.IsArray():
		elems := v.AsArray()
		out := make([]interface{}, len(elems))
		for i, el := range elems {
			out[i] = encodeValueJSON(el)
		}
		return out
	default:
		return v.AsInt()
	}
}

func decodeRowJSON(data string, schema *codec.Schema) (types.Row, error) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, errors.NewInternalError("failed to decode row", err)
	}
	cols := schema.Columns()
	if len(raw) != len(cols) {
		return nil, errors.NewInternalError(
			fmt.Sprintf("snapshot row has %d fields, layout has %d", len(raw), len(cols)), nil)
	}
	row := make(types.Row, 0, len(cols))
	for i, col := range cols {
		v, err := decodeValueJSON(raw[i], col.Type)
		if err != nil {
			return nil, err
		}
		row = append(row, v)
	}
	return row, nil
}

func decodeValueJSON(raw interface{}, t types.ColumnType) (types.Value, error) {
	if raw == nil {
		return types.NewNull(t), nil
	}
	switch {
	case t == types.String:
		s, ok := raw.(string)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewString(s), nil
	case t == types.Geometry:
		s, ok := raw.(string)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewGeometry(s), nil
	case t == types.Bool:
		b, ok := raw.(bool)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewBool(b), nil
	case t == types.Float:
		f, ok := raw.(float64)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewFloat(float32(f)), nil
	case t == types.Double:
		f, ok := raw.(float64)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewDouble(f), nil
	case t == types.Timestamp:
		f, ok := raw.(float64)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		return types.NewTimestamp(time.UnixMilli(int64(f)).UTC()), nil
	case t == types.Blob:
		s, ok := raw.(string)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return types.Value{}, errors.NewInternalError("failed to decode blob field", err)
		}
		return types.NewBlob(data), nil
	case t.IsArray():
		elems, ok := raw.([]interface{})
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		values := make([]types.Value, 0, len(elems))
		for _, el := range elems {
			v, err := decodeValueJSON(el, t.Element())
			if err != nil {
				return types.Value{}, err
			}
			values = append(values, v)
		}
		return types.NewArray(t, values)
	default:
		f, ok := raw.(float64)
		if !ok {
			return types.Value{}, badField(raw, t)
		}
		switch t {
		case types.Byte:
			return types.NewByte(int8(f)), nil
		case types.Short:
			return types.NewShort(int16(f)), nil
		case types.Integer:
			return types.NewInteger(int32(f)), nil
		default:
			return types.NewLong(int64(f)), nil
		}
	}
}

func badField(raw interface{}, t types.ColumnType) error {
	return errors.NewInternalError(
		fmt.Sprintf("snapshot field %v does not decode as %s", raw, t), nil)
}
