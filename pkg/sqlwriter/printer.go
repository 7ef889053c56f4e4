// Package sqlwriter implements the SQL emitter (C11, spec.md §4.8): it
// builds a pkg/sql AST from a PQ tree, dispatching dialect-sensitive
// choices through pkg/target, then pretty-prints that AST to text.
//
// The printer's indent/line-buffer idiom is adapted from the teacher's
// pkg/format/printer.go, generalized from token-keyword printing (the
// teacher prints its own lexer's token.TokenType) to printing plain
// keyword strings, since this package emits rather than reformats SQL.
package sqlwriter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pql-lang/pqlc/pkg/sql"
	"github.com/pql-lang/pqlc/pkg/target"
)

const indentSize = 2

// Printer accumulates pretty-printed SQL text, tracking nesting depth and
// whether the cursor is at the start of a line.
type Printer struct {
	dialect     *target.Dialect
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

// NewPrinter returns a Printer rendering for d.
func NewPrinter(d *target.Dialect) *Printer {
	return &Printer{dialect: d, output: &bytes.Buffer{}, atLineStart: true}
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
}

func (p *Printer) indent() { p.depth++ }

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() { p.output.WriteByte(' ') }

func (p *Printer) kw(words ...string) {
	for i, w := range words {
		if i > 0 {
			p.space()
		}
		p.write(strings.ToUpper(w))
	}
}

func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			} else {
				p.space()
			}
		}
	}
}

// String returns the accumulated output. A final pass un-escapes `{ {`
// back to `{{` to preserve Jinja templates embedded in s-string source
// (spec.md §4.8 last bullet).
func (p *Printer) String() string {
	return strings.ReplaceAll(p.output.String(), "{ {", "{{")
}

// PrintStatement renders a full Statement.
func (p *Printer) PrintStatement(stmt sql.Statement) {
	switch s := stmt.(type) {
	case *sql.SelectStmt:
		p.printSelectStmt(s)
	}
}

func (p *Printer) printSelectStmt(stmt *sql.SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		p.printWithClause(stmt.With)
	}
	if stmt.Body != nil {
		p.printSelectBody(stmt.Body)
	}
}

func (p *Printer) printWithClause(with *sql.WithClause) {
	p.kw("WITH")
	if with.Recursive {
		p.space()
		p.kw("RECURSIVE")
	}
	p.writeln()
	p.indent()
	p.formatList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		p.write(p.dialect.QuoteIdentifierIfNeeded(cte.Name))
		p.space()
		p.kw("AS")
		p.write(" (")
		p.writeln()
		p.indent()
		p.printSelectStmt(cte.Select)
		p.dedent()
		p.write(")")
	}, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) printSelectBody(body *sql.SelectBody) {
	if body == nil {
		return
	}
	p.printSelectCore(body.Left)
	if body.Op != sql.SetOpNone {
		p.writeln()
		switch body.Op {
		case sql.SetOpUnion:
			p.kw("UNION")
		case sql.SetOpIntersect:
			p.kw("INTERSECT")
		case sql.SetOpExcept:
			p.kw("EXCEPT")
		}
		if body.All {
			p.space()
			p.kw("ALL")
		}
		p.writeln()
		p.printSelectBody(body.Right)
	}
}

func (p *Printer) printSelectCore(core *sql.SelectCore) {
	if core == nil {
		return
	}
	p.kw("SELECT")
	if core.Top != nil {
		p.space()
		p.kw("TOP")
		p.space()
		p.printExpr(core.Top)
	}
	if core.Distinct {
		p.space()
		p.kw("DISTINCT")
	}
	if len(core.DistinctOn) > 0 {
		p.space()
		p.kw("ON")
		p.write(" (")
		p.formatList(len(core.DistinctOn), func(i int) { p.printExpr(core.DistinctOn[i]) }, ", ", false)
		p.write(")")
	}
	p.writeln()
	p.indent()
	p.formatList(len(core.Columns), func(i int) { p.printSelectItem(core.Columns[i]) }, ",", true)
	p.dedent()

	if core.From != nil {
		p.writeln()
		p.kw("FROM")
		p.space()
		p.printTableRef(core.From.Source)
		for _, j := range core.From.Joins {
			p.writeln()
			p.printJoin(j)
		}
	}
	if core.Where != nil {
		p.writeln()
		p.kw("WHERE")
		p.space()
		p.printExpr(core.Where)
	}
	if len(core.GroupBy) > 0 {
		p.writeln()
		p.kw("GROUP", "BY")
		p.space()
		p.formatList(len(core.GroupBy), func(i int) { p.printExpr(core.GroupBy[i]) }, ", ", false)
	}
	if core.Having != nil {
		p.writeln()
		p.kw("HAVING")
		p.space()
		p.printExpr(core.Having)
	}
	if core.Qualify != nil {
		p.writeln()
		p.kw("QUALIFY")
		p.space()
		p.printExpr(core.Qualify)
	}
	if len(core.OrderBy) > 0 {
		p.writeln()
		p.kw("ORDER", "BY")
		p.space()
		p.formatList(len(core.OrderBy), func(i int) { p.printOrderByItem(core.OrderBy[i]) }, ", ", false)
	}
	if core.Limit != nil {
		p.writeln()
		p.kw("LIMIT")
		p.space()
		p.printExpr(core.Limit)
	}
	if core.Offset != nil {
		p.writeln()
		p.kw("OFFSET")
		p.space()
		p.printExpr(core.Offset)
		p.space()
		p.kw("ROWS")
	}
}

func (p *Printer) printSelectItem(item sql.SelectItem) {
	switch {
	case item.Star:
		p.write("*")
	case item.TableStar != "":
		p.write(p.dialect.QuoteIdentifierIfNeeded(item.TableStar) + ".*")
	default:
		p.printExpr(item.Expr)
	}
	if item.Alias != "" {
		p.space()
		p.kw("AS")
		p.space()
		p.write(p.dialect.QuoteIdentifierIfNeeded(item.Alias))
	}
}

func (p *Printer) printTableRef(ref sql.TableRef) {
	switch t := ref.(type) {
	case *sql.TableName:
		if t.Schema != "" {
			p.write(p.dialect.QuoteIdentifierIfNeeded(t.Schema) + ".")
		}
		p.write(p.dialect.QuoteIdentifierIfNeeded(t.Name))
		if t.Alias != "" {
			p.space()
			p.kw("AS")
			p.space()
			p.write(p.dialect.QuoteIdentifierIfNeeded(t.Alias))
		}
	case *sql.DerivedTable:
		p.write("(")
		p.writeln()
		p.indent()
		p.printSelectStmt(t.Select)
		p.dedent()
		p.writeln()
		p.write(")")
		if t.Alias != "" {
			p.space()
			p.kw("AS")
			p.space()
			p.write(p.dialect.QuoteIdentifierIfNeeded(t.Alias))
		}
	}
}

func (p *Printer) printJoin(j *sql.Join) {
	p.kw(string(j.Type), "JOIN")
	p.space()
	p.printTableRef(j.Right)
	if j.Condition != nil {
		p.space()
		p.kw("ON")
		p.space()
		p.printExpr(j.Condition)
	}
}

func (p *Printer) printOrderByItem(item sql.OrderByItem) {
	p.printExpr(item.Expr)
	if item.Desc {
		p.space()
		p.kw("DESC")
	}
	if item.NullsFirst != nil {
		p.space()
		if *item.NullsFirst {
			p.kw("NULLS", "FIRST")
		} else {
			p.kw("NULLS", "LAST")
		}
	}
}

func (p *Printer) printExpr(e sql.Expr) {
	switch x := e.(type) {
	case *sql.ColumnRef:
		if x.Table != "" {
			p.write(p.dialect.QuoteIdentifierIfNeeded(x.Table) + ".")
		}
		p.write(p.dialect.QuoteIdentifierIfNeeded(x.Column))
	case *sql.Literal:
		p.printLiteral(x)
	case *sql.BinaryExpr:
		p.printExpr(x.Left)
		p.space()
		p.write(x.Op)
		p.space()
		p.printExpr(x.Right)
	case *sql.UnaryExpr:
		p.write(strings.ToUpper(x.Op))
		p.space()
		p.printExpr(x.Expr)
	case *sql.FuncCall:
		p.printFuncCall(x)
	case *sql.CaseExpr:
		p.printCaseExpr(x)
	case *sql.BetweenExpr:
		p.printExpr(x.Expr)
		p.space()
		if x.Not {
			p.kw("NOT")
			p.space()
		}
		p.kw("BETWEEN")
		p.space()
		p.printExpr(x.Low)
		p.space()
		p.kw("AND")
		p.space()
		p.printExpr(x.High)
	case *sql.IsNullExpr:
		p.printExpr(x.Expr)
		p.space()
		p.kw("IS")
		if x.Not {
			p.space()
			p.kw("NOT")
		}
		p.space()
		p.kw("NULL")
	case *sql.InExpr:
		p.printExpr(x.Expr)
		p.space()
		if x.Not {
			p.kw("NOT")
			p.space()
		}
		p.kw("IN")
		p.write(" (")
		if x.Query != nil {
			p.printSelectStmt(x.Query)
		} else {
			p.formatList(len(x.Values), func(i int) { p.printExpr(x.Values[i]) }, ", ", false)
		}
		p.write(")")
	case *sql.ParenExpr:
		p.write("(")
		p.printExpr(x.Expr)
		p.write(")")
	case *sql.StarExpr:
		if x.Table != "" {
			p.write(p.dialect.QuoteIdentifierIfNeeded(x.Table) + ".")
		}
		p.write("*")
	case *sql.Raw:
		p.write(x.Text)
	}
}

func (p *Printer) printLiteral(lit *sql.Literal) {
	switch lit.Type {
	case sql.LiteralString:
		p.write("'" + strings.ReplaceAll(lit.Value, "'", "''") + "'")
	case sql.LiteralNull:
		p.kw("NULL")
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) printFuncCall(fc *sql.FuncCall) {
	p.write(fc.Name)
	p.write("(")
	if fc.Distinct {
		p.kw("DISTINCT")
		p.space()
	}
	if fc.Star {
		p.write("*")
	} else {
		p.formatList(len(fc.Args), func(i int) { p.printExpr(fc.Args[i]) }, ", ", false)
	}
	p.write(")")
	if fc.Window != nil {
		p.space()
		p.kw("OVER")
		p.write(" (")
		p.printWindowSpec(fc.Window)
		p.write(")")
	}
}

func (p *Printer) printWindowSpec(w *sql.WindowSpec) {
	wrote := false
	if len(w.PartitionBy) > 0 {
		p.kw("PARTITION", "BY")
		p.space()
		p.formatList(len(w.PartitionBy), func(i int) { p.printExpr(w.PartitionBy[i]) }, ", ", false)
		wrote = true
	}
	if len(w.OrderBy) > 0 {
		if wrote {
			p.space()
		}
		p.kw("ORDER", "BY")
		p.space()
		p.formatList(len(w.OrderBy), func(i int) { p.printOrderByItem(w.OrderBy[i]) }, ", ", false)
		wrote = true
	}
	if w.Frame != nil {
		if wrote {
			p.space()
		}
		p.kw(string(w.Frame.Type))
		p.space()
		if w.Frame.End != nil {
			p.kw("BETWEEN")
			p.space()
			p.printFrameBound(w.Frame.Start)
			p.space()
			p.kw("AND")
			p.space()
			p.printFrameBound(w.Frame.End)
		} else {
			p.printFrameBound(w.Frame.Start)
		}
	}
}

func (p *Printer) printFrameBound(b *sql.FrameBound) {
	if b == nil {
		p.kw(string(sql.FrameCurrentRow))
		return
	}
	switch b.Type {
	case sql.FrameExprPreceding:
		p.printExpr(b.Offset)
		p.space()
		p.kw("PRECEDING")
	case sql.FrameExprFollowing:
		p.printExpr(b.Offset)
		p.space()
		p.kw("FOLLOWING")
	default:
		p.kw(string(b.Type))
	}
}

func (p *Printer) printCaseExpr(c *sql.CaseExpr) {
	p.kw("CASE")
	p.indent()
	for _, w := range c.Whens {
		p.writeln()
		p.kw("WHEN")
		p.space()
		p.printExpr(w.Condition)
		p.space()
		p.kw("THEN")
		p.space()
		p.printExpr(w.Result)
	}
	if c.Else != nil {
		p.writeln()
		p.kw("ELSE")
		p.space()
		p.printExpr(c.Else)
	}
	p.dedent()
	p.writeln()
	p.kw("END")
}

// intLiteral builds a SQL integer literal from a Go int.
func intLiteral(n int) *sql.Literal {
	return &sql.Literal{Type: sql.LiteralNumber, Value: strconv.Itoa(n)}
}
