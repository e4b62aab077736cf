package outputtemplate

import (
	"fmt"
	"strings"

	"github.com/snarg/chalkline/internal/results"
)

// SQLStatements is the synthesized create-then-insert sequence a caller
// executes against the results database, grounded on mysql()'s
// show-tables-then-create, then per-row insert.
//
// Unlike mysql(), which builds one %s-formatted INSERT string per row and
// substitutes values through the driver's own escaping, InsertSQL uses
// numbered placeholders and Rows holds the bound arguments — the idiomatic
// pgx calling convention, and it sidesteps ever formatting a rider-supplied
// string into SQL text directly.
type SQLStatements struct {
	CreateTable string
	InsertSQL   string
	Rows        [][]any
}

// BuildSQL synthesizes the table and insert statements described by doc,
// and one row per placed finisher across every category, in category
// order. DQ'd and DNF'd riders are excluded, matching mysql()'s
// `finish = set(F) - dnf - dq`.
func BuildSQL(doc *TemplateDoc, rr *results.RaceResult) SQLStatements {
	cols := make([]string, len(doc.Fields))
	coldefs := make([]string, len(doc.Fields))
	placeholders := make([]string, len(doc.Fields))
	for i, f := range doc.Fields {
		cols[i] = f.Name
		typ := f.Type
		if typ == "" {
			typ = "text"
		}
		coldefs[i] = fmt.Sprintf("%s %s", f.Name, typ)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	stmt := SQLStatements{
		CreateTable: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", doc.Table, strings.Join(coldefs, ", ")),
		InsertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", doc.Table,
			strings.Join(cols, ", "), strings.Join(placeholders, ", ")),
	}

	for _, cr := range rr.Categories {
		for _, r := range cr.Finishers {
			fields := r.FieldValues()
			row := make([]any, len(doc.Fields))
			for i, f := range doc.Fields {
				row[i] = fields[f.Value]
			}
			stmt.Rows = append(stmt.Rows, row)
		}
	}
	return stmt
}
