// Package api serves a loaded GameData over a small REST API: tables can be
// listed, rows queried and edited, relations followed and the file saved.
package api

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/pkg/cff"
)

// Source guards the GameData the server works on. reload.Holder implements it.
type Source interface {
	View(fn func(g *cff.GameData) error) error
	Update(fn func(g *cff.GameData) error) error
	Save() (int, error)
	Path() string
}

// DefaultLimit caps row listings that do not ask for a limit.
const DefaultLimit = 100

type Server struct {
	src   Source
	edits *EditLog
	log   logger.Logger
	clock func() time.Time
}

func NewServer(src Source, edits *EditLog, log logger.Logger) *Server {
	if edits == nil {
		edits = NewEditLog()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		src:   src,
		edits: edits,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/tables", s.handleListTables)
	e.GET("/v1/tables/:table", s.handleGetTable)
	e.GET("/v1/tables/:table/rows", s.handleListRows)
	e.GET("/v1/tables/:table/rows/:row", s.handleGetRow)
	e.PATCH("/v1/tables/:table/rows/:row", s.handlePatchRow)
	e.GET("/v1/tables/:table/rows/:row/hex", s.handleRowHex)
	e.GET("/v1/tables/:table/rows/:row/relations/:relation", s.handleGetRelation)
	e.PUT("/v1/tables/:table/rows/:row/relations/:relation", s.handleSetRelation)

	e.GET("/v1/diagnostics", s.handleDiagnostics)
	e.GET("/v1/edits", s.handleListEdits)
	e.POST("/v1/save", s.handleSave)
	e.GET("/v1/file", s.handleDownload)
}

func (s *Server) handleListTables(c *echo.Context) error {
	var out []TableInfo
	err := s.src.View(func(g *cff.GameData) error {
		for _, t := range g.Tables() {
			out = append(out, tableInfo(t, false))
		}
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, newList(out, len(out)))
}

func (s *Server) handleGetTable(c *echo.Context) error {
	var out TableInfo
	err := s.src.View(func(g *cff.GameData) error {
		t, err := g.Lookup(c.Param("table"))
		if err != nil {
			return err
		}
		out = tableInfo(t, true)
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

// handleListRows filters rows by query parameters named after fields. "limit"
// caps the result unless the schema has a field of that name.
func (s *Server) handleListRows(c *echo.Context) error {
	var (
		out   []Row
		total int
	)
	err := s.src.View(func(g *cff.GameData) error {
		t, err := g.Lookup(c.Param("table"))
		if err != nil {
			return err
		}
		limit := DefaultLimit
		where := cff.Constraints{}
		for name, values := range c.QueryParams() {
			text := values[len(values)-1]
			f, ok := t.Schema().Resolve(name)
			if !ok && name == "limit" {
				if limit, err = strconv.Atoi(text); err != nil || limit < 0 {
					return newInvalidRequest(fmt.Sprintf("limit %q is not a row count", text))
				}
				continue
			}
			if !ok {
				return newInvalidRequest(fmt.Sprintf("%s has no field %q", t.Name(), name))
			}
			if f.Kind == cff.KindDecidedEnum {
				where[name] = text
				continue
			}
			v, err := f.ParseValue(text)
			if err != nil {
				return err
			}
			where[name] = v
		}
		rows, err := t.Where(where)
		if err != nil {
			return err
		}
		total = len(rows)
		for _, e := range rows[:min(limit, len(rows))] {
			out = append(out, rowOf(t, e))
		}
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, newList(out, total))
}

func (s *Server) handleGetRow(c *echo.Context) error {
	var out Row
	err := s.withRow(c, s.src.View, func(t *cff.Table, e *cff.Entity) error {
		out = rowOf(t, e)
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

// handlePatchRow applies every value or none. Values are given in text form, or
// as JSON numbers and booleans, and are applied in field order so a decided enum
// is parsed after its decider.
func (s *Server) handlePatchRow(c *echo.Context) error {
	req, err := decodeJSON[PatchRowRequest](c.Request().Body)
	if err != nil {
		return writeFailure(c, err)
	}
	if len(req.Values) == 0 {
		return writeBadRequest(c, "values must name at least one field")
	}

	var out Row
	err = s.withRow(c, s.src.Update, func(t *cff.Table, e *cff.Entity) error {
		type change struct {
			field string
			text  string
		}
		var changes []change
		for _, f := range t.Schema().Fields() {
			v, ok := req.Values[f.Name]
			if !ok {
				continue
			}
			text, err := textOf(v)
			if err != nil {
				return err
			}
			changes = append(changes, change{f.Name, text})
		}
		if len(changes) != len(req.Values) {
			for _, name := range sortedKeys(req.Values) {
				if _, ok := t.Schema().Field(name); !ok {
					return newInvalidRequest(fmt.Sprintf("%s has no field %q", t.Name(), name))
				}
			}
		}

		trial := e.Clone()
		for _, ch := range changes {
			if err := trial.ParseSet(ch.field, ch.text); err != nil {
				return err
			}
		}

		index := t.RowIndex(e)
		now := s.clock()
		for _, ch := range changes {
			before, _ := e.Get(ch.field)
			if err := e.ParseSet(ch.field, ch.text); err != nil {
				return err
			}
			after, _ := e.Get(ch.field)
			if before != after {
				s.edits.Record(t.Name(), index, ch.field, before, after, now)
			}
		}
		s.log.Info("patched row", "table", t.Name(), "row", index, "fields", len(changes))
		out = rowOf(t, e)
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleRowHex(c *echo.Context) error {
	var out HexResponse
	err := s.withRow(c, s.src.View, func(t *cff.Table, e *cff.Entity) error {
		b, err := e.Bytes()
		if err != nil {
			return err
		}
		index := t.RowIndex(e)
		off := t.Offset() + cff.TableHeaderSize + int64(index*len(b))
		out = HexResponse{
			Object: "row.hex",
			Table:  t.Name(),
			Index:  index,
			Offset: off,
			Length: len(b),
			Hex:    hex.EncodeToString(b),
			Dump:   cff.HexDump(b, off),
		}
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetRelation(c *echo.Context) error {
	var out RelationResponse
	err := s.withRow(c, s.src.View, func(t *cff.Table, e *cff.Entity) error {
		name := c.Param("relation")
		v, err := e.Relation(name)
		if err != nil {
			return err
		}
		rel, _ := t.Schema().Relation(name)
		out = RelationResponse{
			Object:    "relation",
			Relation:  rel.Name,
			Target:    rel.Target,
			Many:      rel.Many,
			Uncertain: rel.Uncertain,
			Value:     render(v),
		}
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleSetRelation(c *echo.Context) error {
	req, err := decodeJSON[SetRelationRequest](c.Request().Body)
	if err != nil {
		return writeFailure(c, err)
	}
	v, err := scalarOf(req.Value)
	if err != nil {
		return writeFailure(c, err)
	}

	var out RelationResponse
	err = s.withRow(c, s.src.Update, func(t *cff.Table, e *cff.Entity) error {
		name := c.Param("relation")
		before, err := e.Relation(name)
		if err != nil {
			return err
		}
		if err := e.SetRelation(name, v); err != nil {
			return err
		}
		after, err := e.Relation(name)
		if err != nil {
			return err
		}
		rel, _ := t.Schema().Relation(name)
		s.edits.Record(t.Name(), t.RowIndex(e), name, render(before), render(after), s.clock())
		out = RelationResponse{
			Object:    "relation",
			Relation:  rel.Name,
			Target:    rel.Target,
			Many:      rel.Many,
			Uncertain: rel.Uncertain,
			Value:     render(after),
		}
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleDiagnostics(c *echo.Context) error {
	var out []DiagnosticEntry
	var total int
	err := s.src.View(func(g *cff.GameData) error {
		for _, ec := range g.Diagnostics().Summary() {
			out = append(out, DiagnosticEntry{Type: ec.Type, Count: ec.Count, Distinct: ec.Distinct})
		}
		total = g.Diagnostics().Len()
		return nil
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, newList(out, total))
}

func (s *Server) handleListEdits(c *echo.Context) error {
	edits := s.edits.List()
	return writeJSON(c, http.StatusOK, newList(edits, len(edits)))
}

func (s *Server) handleSave(c *echo.Context) error {
	n, err := s.src.Save()
	if err != nil {
		s.log.Error("save failed", "path", s.src.Path(), "error", err)
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, SaveResponse{
		Object: "save",
		Path:   s.src.Path(),
		Bytes:  n,
		Edits:  s.edits.Clear(),
	})
}

// handleDownload streams the current encoding, including unsaved edits.
func (s *Server) handleDownload(c *echo.Context) error {
	return s.src.View(func(g *cff.GameData) error {
		// Encode first so a failure can still be reported as JSON.
		data, err := g.Bytes()
		if err != nil {
			return writeFailure(c, err)
		}
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
		res.Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
		res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="GameData.cff"`)
		res.WriteHeader(http.StatusOK)
		_, err = res.Write(data)
		return err
	})
}

func (s *Server) withRow(c *echo.Context, access func(func(*cff.GameData) error) error, fn func(*cff.Table, *cff.Entity) error) error {
	index, err := parseRowIndex(c)
	if err != nil {
		return err
	}
	return access(func(g *cff.GameData) error {
		t, err := g.Lookup(c.Param("table"))
		if err != nil {
			return err
		}
		e, err := t.Row(index)
		if err != nil {
			return err
		}
		return fn(t, e)
	})
}

func tableInfo(t *cff.Table, detail bool) TableInfo {
	s := t.Schema()
	info := TableInfo{
		Object:     "table",
		Name:       t.Name(),
		Schema:     s.Name(),
		Rows:       t.Len(),
		RowLength:  s.Length(),
		Offset:     t.Offset(),
		PrimaryKey: s.PrimaryKey(),
	}
	if !detail {
		return info
	}
	for _, f := range s.Fields() {
		fi := FieldInfo{Name: f.Name, Kind: f.Kind.String(), Offset: f.Offset, Width: f.Width, Target: f.Target}
		if f.Enum != nil {
			fi.Enum = f.Enum.Name()
		}
		if f.Flags != nil {
			fi.Flags = f.Flags.Name()
		}
		if f.Kind == cff.KindDecidedEnum {
			fi.Target = f.Decider
		}
		info.Fields = append(info.Fields, fi)
	}
	for _, r := range s.Relations() {
		ri := RelationInfo{Name: r.Name, Target: r.Target, Path: r.Path, Many: r.Many, Uncertain: r.Uncertain}
		for _, k := range r.Keys {
			ri.Keys = append(ri.Keys, k.Field+"="+k.Source.String())
		}
		info.Relations = append(info.Relations, ri)
	}
	return info
}

func rowOf(t *cff.Table, e *cff.Entity) Row {
	fields := e.Values()
	values := make(map[string]any, len(fields))
	for _, fv := range fields {
		values[fv.Field.Name] = fv.Value
	}
	index := -1
	if t != nil {
		index = t.RowIndex(e)
	}
	name := e.Schema().Name()
	if t != nil {
		name = t.Name()
	}
	return Row{Object: "row", Table: name, Index: index, Values: values}
}

// render makes a relation result JSON friendly: entities become rows and
// multi-valued results become lists.
func render(v any) any {
	switch x := v.(type) {
	case *cff.Entity:
		return rowOf(x.Table(), x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = render(item)
		}
		return out
	}
	return v
}

// sortedKeys keeps error messages stable across map iteration orders.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
