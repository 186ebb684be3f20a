package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/pkg/types"
)

// Statement is a parsed row query. The supported form is
//
//	SELECT * [WHERE col op literal] [ORDER BY col [ASC|DESC]] [LIMIT n [OFFSET m]]
//
// with =, !=, <>, <, <=, > and >= comparisons on scalar columns.
type Statement struct {
	where    *predicate
	orderCol int
	desc     bool
	ordered  bool
	limit    int
	offset   int
	limited  bool
}

type predicate struct {
	column int
	op     string
	value  types.Value
}

// ParseQuery parses a query against the bound schema. Malformed queries
// report a parse error; callers surface it at fetch time.
func ParseQuery(schema *codec.Schema, tql string) (*Statement, error) {
	toks, err := tokenize(tql)
	if err != nil {
		return nil, err
	}
	p := &parser{schema: schema, toks: toks}
	return p.parse()
}

type parser struct {
	schema *codec.Schema
	toks   []string
	at     int
}

func (p *parser) parse() (*Statement, error) {
	if err := p.expect("SELECT"); err != nil {
		return nil, err
	}
	if err := p.expect("*"); err != nil {
		return nil, err
	}

	st := &Statement{}
	if p.peekIs("WHERE") {
		p.at++
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		st.where = pred
	}
	if p.peekIs("ORDER") {
		p.at++
		if err := p.expect("BY"); err != nil {
			return nil, err
		}
		col, _, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		st.orderCol = col
		st.ordered = true
		if p.peekIs("ASC") {
			p.at++
		} else if p.peekIs("DESC") {
			p.at++
			st.desc = true
		}
	}
	if p.peekIs("LIMIT") {
		p.at++
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		st.limit = n
		st.limited = true
		if p.peekIs("OFFSET") {
			p.at++
			m, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			st.offset = m
		}
	}
	if p.at != len(p.toks) {
		return nil, parseErr("unexpected token %q", p.toks[p.at])
	}
	return st, nil
}

func (p *parser) parsePredicate() (*predicate, error) {
	col, info, err := p.parseColumn()
	if err != nil {
		return nil, err
	}
	if p.at >= len(p.toks) {
		return nil, parseErr("expected comparison operator")
	}
	op := p.toks[p.at]
	p.at++
	switch op {
	case "=", "!=", "<>", "<", "<=", ">", ">=":
	default:
		return nil, parseErr("unsupported operator %q", op)
	}
	if op == "<>" {
		op = "!="
	}
	if p.at >= len(p.toks) {
		return nil, parseErr("expected literal after operator")
	}
	value, err := parseLiteral(p.toks[p.at], info.Type)
	if err != nil {
		return nil, err
	}
	p.at++
	return &predicate{column: col, op: op, value: value}, nil
}

func (p *parser) parseColumn() (int, types.ColumnInfo, error) {
	if p.at >= len(p.toks) {
		return 0, types.ColumnInfo{}, parseErr("expected column name")
	}
	name := p.toks[p.at]
	p.at++
	at, info, ok := p.schema.ColumnByName(name)
	if !ok {
		return 0, types.ColumnInfo{}, errors.NewQueryError(errors.CodeUnknownColumn,
			"no column named "+name)
	}
	if info.Type.IsArray() || info.Type == types.Blob || info.Type == types.Geometry {
		return 0, types.ColumnInfo{}, parseErr("column %s is not comparable", name)
	}
	return at, info, nil
}

func (p *parser) parseInt() (int, error) {
	if p.at >= len(p.toks) {
		return 0, parseErr("expected number")
	}
	n, err := strconv.Atoi(p.toks[p.at])
	if err != nil || n < 0 {
		return 0, parseErr("expected non-negative number, got %q", p.toks[p.at])
	}
	p.at++
	return n, nil
}

func (p *parser) expect(tok string) error {
	if !p.peekIs(tok) {
		got := "end of query"
		if p.at < len(p.toks) {
			got = strconv.Quote(p.toks[p.at])
		}
		return parseErr("expected %s, got %s", tok, got)
	}
	p.at++
	return nil
}

func (p *parser) peekIs(tok string) bool {
	return p.at < len(p.toks) && strings.EqualFold(p.toks[p.at], tok)
}

// Evaluate applies the statement to the rows of one scan.
func (st *Statement) Evaluate(rows []types.Row) ([]types.Row, error) {
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if st.where != nil {
			keep, err := st.where.matches(row)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		out = append(out, row)
	}
	if st.ordered {
		var sortErr error
		col := st.orderCol
		sort.SliceStable(out, func(i, j int) bool {
			c, err := compareValues(out[i][col], out[j][col])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			if st.desc {
				return c > 0
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}
	if st.limited {
		if st.offset >= len(out) {
			return nil, nil
		}
		out = out[st.offset:]
		if st.limit < len(out) {
			out = out[:st.limit]
		}
	}
	return out, nil
}

func (pr *predicate) matches(row types.Row) (bool, error) {
	if pr.column >= len(row) {
		return false, errors.NewQueryError(errors.CodeParseError, "row is narrower than the query")
	}
	v := row[pr.column]
	if v.IsNull() {
		// NULL compares with nothing.
		return false, nil
	}
	c, err := compareValues(v, pr.value)
	if err != nil {
		return false, err
	}
	switch pr.op {
	case "=":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func compareValues(a, b types.Value) (int, error) {
	if a.IsNull() || b.IsNull() {
		return 0, nil
	}
	t := a.Type()
	switch {
	case t == types.String:
		return strings.Compare(a.AsString(), b.AsString()), nil
	case t == types.Bool:
		return boolCmp(a.AsBool(), b.AsBool()), nil
	case t == types.Float || t == types.Double:
		return floatCmp(a.AsFloat(), b.AsFloat()), nil
	case t == types.Timestamp:
		return a.AsTime().Compare(b.AsTime()), nil
	case t.IsNumeric():
		return intCmp(a.AsInt(), b.AsInt()), nil
	default:
		return 0, errors.NewQueryError(errors.CodeParseError,
			fmt.Sprintf("values of type %s are not comparable", t))
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func intCmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// parseLiteral converts a token to a value of the column's type. Numeric
// literals coerce to the column width; quoted strings bind to string and
// timestamp (RFC 3339) columns.
func parseLiteral(tok string, t types.ColumnType) (types.Value, error) {
	if quoted := len(tok) >= 2 && tok[0] == '\''; quoted {
		s := tok[1 : len(tok)-1]
		switch t {
		case types.String:
			return types.NewString(s), nil
		case types.Timestamp:
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return types.Value{}, parseErr("bad timestamp literal %q", s)
			}
			return types.NewTimestamp(ts), nil
		default:
			return types.Value{}, parseErr("string literal does not match column type %s", t)
		}
	}
	switch {
	case t == types.Bool:
		switch strings.ToUpper(tok) {
		case "TRUE":
			return types.NewBool(true), nil
		case "FALSE":
			return types.NewBool(false), nil
		}
		return types.Value{}, parseErr("bad boolean literal %q", tok)
	case t == types.Float || t == types.Double:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return types.Value{}, parseErr("bad numeric literal %q", tok)
		}
		if t == types.Float {
			return types.NewFloat(float32(f)), nil
		}
		return types.NewDouble(f), nil
	case t.IsNumeric():
		bits := 64
		switch t {
		case types.Byte:
			bits = 8
		case types.Short:
			bits = 16
		case types.Integer:
			bits = 32
		}
		n, err := strconv.ParseInt(tok, 10, bits)
		if err != nil {
			return types.Value{}, parseErr("integer literal %q does not fit column type %s", tok, t)
		}
		switch t {
		case types.Byte:
			return types.NewByte(int8(n)), nil
		case types.Short:
			return types.NewShort(int16(n)), nil
		case types.Integer:
			return types.NewInteger(int32(n)), nil
		default:
			return types.NewLong(n), nil
		}
	case t == types.Timestamp:
		ms, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return types.Value{}, parseErr("bad timestamp literal %q", tok)
		}
		return types.NewTimestamp(time.UnixMilli(ms).UTC()), nil
	default:
		return types.Value{}, parseErr("no literal form for column type %s", t)
	}
}

// tokenize splits a query into tokens, keeping quoted strings whole and
// separating comparison operators from their operands.
func tokenize(tql string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(tql) {
		c := tql[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			j := i + 1
			for j < len(tql) && tql[j] != '\'' {
				j++
			}
			if j >= len(tql) {
				return nil, parseErr("unterminated string literal")
			}
			toks = append(toks, tql[i:j+1])
			i = j + 1
		case c == '*':
			toks = append(toks, "*")
			i++
		case c == '=' || c == '<' || c == '>' || c == '!':
			j := i + 1
			if j < len(tql) && (tql[j] == '=' || (c == '<' && tql[j] == '>')) {
				j++
			}
			toks = append(toks, tql[i:j])
			i = j
		default:
			j := i
			for j < len(tql) && !strings.ContainsRune(" \t\n\r='<>!*", rune(tql[j])) {
				j++
			}
			if j == i {
				return nil, parseErr("unexpected character %q", string(c))
			}
			toks = append(toks, tql[i:j])
			i = j
		}
	}
	if len(toks) == 0 {
		return nil, parseErr("empty query")
	}
	return toks, nil
}

func parseErr(format string, args ...interface{}) error {
	return errors.NewQueryError(errors.CodeParseError, fmt.Sprintf(format, args...))
}
