// Package codegen implements C12 (SPEC_FULL.md §0): a PL -> PRQL source
// pretty-printer, the inverse direction of the (out-of-scope) parser. It is
// exercised by the CLI's `fmt` command (re-emit a canonicalized, indented
// form of a parsed pipeline) and by `debug annotate` (the same printer, with
// each transform step followed by a lineage comment).
//
// Grounded on the teacher's pkg/format printer idiom
// (_examples/leapstack-labs-leapsql/pkg/format/printer.go): a small
// line-buffer type tracking indent depth and "just wrote a newline" state,
// with keyword/write/indent/dedent primitives, adapted here from SQL
// keywords to PQL pipeline syntax.
package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pql-lang/pqlc/pkg/pl"
)

const indentSize = 2

// printer is the line-buffer the exported Format/Annotate entry points
// drive.
type printer struct {
	out         bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer { return &printer{atLineStart: true} }

func (p *printer) String() string {
	return strings.TrimRight(p.out.String(), "\n") + "\n"
}

func (p *printer) write(s string) {
	if p.atLineStart && s != "" {
		p.out.WriteString(strings.Repeat(" ", p.depth*indentSize))
	}
	p.out.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.out.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) indent()   { p.depth++ }
func (p *printer) dedent()   { p.depth-- }
func (p *printer) space()    { p.write(" ") }

// Format renders root as PQL source text: a top-level Pipeline prints as one
// step per line joined by `|`; anything else prints as a single expression.
func Format(root *pl.Expr) (string, error) {
	p := newPrinter()
	if err := p.expr(root, true); err != nil {
		return "", err
	}
	p.writeln()
	return p.String(), nil
}

// Annotate renders root the same way Format does, but appends a trailing
// `# [id:N]` (plus column names, once resolved) comment after every
// pipeline step, for the CLI's `debug annotate` (SPEC_FULL.md "Supplemented
// features"). It uses exactly the Lineage records the resolver already
// produces per expression, requiring no separate analysis pass.
func Annotate(root *pl.Expr) (string, error) {
	p := newPrinter()
	if err := p.expr(root, true); err != nil {
		return "", err
	}
	p.writeln()
	out := p.String()

	if pipe, ok := root.Kind.(pl.Pipeline); ok {
		return annotatePipeline(pipe), nil
	}
	return out, nil
}

func annotatePipeline(pipe pl.Pipeline) string {
	var b strings.Builder
	for _, step := range pipe.Exprs {
		line, _ := Format(step)
		line = strings.TrimSuffix(line, "\n")
		b.WriteString(line)
		b.WriteString(annotationComment(step))
		b.WriteByte('\n')
	}
	return b.String()
}

// annotationComment builds the trailing `# [id:N col:a,b,...]` comment for
// one resolved step: empty if the step carries no id yet, and just
// `# [id:N]` when its lineage names no columns.
func annotationComment(e *pl.Expr) string {
	if !e.HasID() {
		return ""
	}
	var cols []string
	if e.Lineage != nil {
		for _, c := range e.Lineage.Columns {
			if c.Kind == pl.ColSingle && c.Name != "" {
				cols = append(cols, c.Name)
			}
		}
	}
	if len(cols) == 0 {
		return fmt.Sprintf("  # [id:%d]", e.AssignedID())
	}
	return fmt.Sprintf("  # [id:%d col:%s]", e.AssignedID(), strings.Join(cols, ","))
}

func (p *printer) expr(e *pl.Expr, topLevel bool) error {
	if e == nil {
		return nil
	}
	switch k := e.Kind.(type) {
	case pl.Pipeline:
		return p.pipeline(k, topLevel)
	case pl.Ident:
		p.write(strings.Join(k.Path, "."))
	case pl.All:
		if err := p.expr(k.Within, false); err != nil {
			return err
		}
		p.write(".*")
	case pl.LiteralExpr:
		p.write(literalText(k.Value))
	case pl.TupleExpr:
		p.write("{")
		for i, f := range k.Fields {
			if i > 0 {
				p.write(", ")
			}
			if f.Alias != "" {
				p.write(f.Alias)
				p.write(" = ")
			}
			if err := p.expr(f, false); err != nil {
				return err
			}
		}
		p.write("}")
	case pl.ArrayExpr:
		p.write("[")
		for i, el := range k.Elements {
			if i > 0 {
				p.write(", ")
			}
			if err := p.expr(el, false); err != nil {
				return err
			}
		}
		p.write("]")
	case pl.RangeExpr:
		if err := p.expr(k.Start, false); err != nil {
			return err
		}
		p.write("..")
		if err := p.expr(k.End, false); err != nil {
			return err
		}
	case pl.BinaryExpr:
		p.write("(")
		if err := p.expr(k.Left, false); err != nil {
			return err
		}
		p.write(" " + binOpText(k.Op) + " ")
		if err := p.expr(k.Right, false); err != nil {
			return err
		}
		p.write(")")
	case pl.UnaryExpr:
		p.write(unOpText(k.Op))
		if err := p.expr(k.Expr, false); err != nil {
			return err
		}
	case pl.FuncCall:
		if err := p.expr(k.Name, false); err != nil {
			return err
		}
		for _, a := range k.Args {
			p.space()
			if err := p.expr(a, false); err != nil {
				return err
			}
		}
		for _, na := range k.NamedArgs {
			p.space()
			p.write(na.Name + ":")
			if err := p.expr(na.Value, false); err != nil {
				return err
			}
		}
	case pl.SStringExpr:
		p.interpolate('s', k.Parts)
	case pl.FStringExpr:
		p.interpolate('f', k.Parts)
	case pl.CaseExpr:
		p.write("case {")
		p.indent()
		for _, c := range k.Cases {
			p.writeln()
			if err := p.expr(c.Condition, false); err != nil {
				return err
			}
			p.write(" => ")
			if err := p.expr(c.Value, false); err != nil {
				return err
			}
			p.write(",")
		}
		p.dedent()
		p.writeln()
		p.write("}")
	case pl.ParamExpr:
		p.write("$" + k.ID)
	case pl.TransformCallExpr:
		return p.transformCall(k.Call)
	default:
		return fmt.Errorf("codegen: %T has no PQL source rendering", k)
	}
	if e.Alias != "" && !topLevel {
		p.write(" as " + e.Alias)
	}
	return nil
}

func (p *printer) pipeline(pipe pl.Pipeline, multiline bool) error {
	for i, step := range pipe.Exprs {
		if i > 0 {
			if multiline {
				p.writeln()
				p.write("| ")
			} else {
				p.write(" | ")
			}
		}
		if err := p.expr(step, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) interpolate(prefix byte, parts []pl.InterpolateItem) {
	p.write(string(prefix) + `"`)
	for _, part := range parts {
		switch part.Kind {
		case pl.InterpString:
			p.write(part.Str)
		case pl.InterpExpr:
			p.write("{")
			_ = p.expr(part.Expr, false)
			p.write("}")
		}
	}
	p.write(`"`)
}

// transformCall renders a resolved TransformCall back to its PQL spelling
// (used by `debug annotate` on an already-resolved tree).
func (p *printer) transformCall(call *pl.TransformCall) error {
	switch k := call.Kind.(type) {
	case pl.SelectKind:
		p.write("select ")
		return p.expr(k.Assigns, false)
	case pl.DeriveKind:
		p.write("derive ")
		return p.expr(k.Assigns, false)
	case pl.FilterKind:
		p.write("filter ")
		return p.expr(k.Filter, false)
	case pl.AggregateKind:
		p.write("aggregate ")
		return p.expr(k.Assigns, false)
	case pl.SortKind:
		p.write("sort {")
		for i, s := range k.By {
			if i > 0 {
				p.write(", ")
			}
			if s.Direction == pl.Desc {
				p.write("-")
			}
			if err := p.expr(s.Column, false); err != nil {
				return err
			}
		}
		p.write("}")
	case pl.TakeKind:
		p.write("take ")
		return p.expr(pl.New(k.Range), false)
	case pl.JoinKind:
		p.write("join side:" + k.Side.String() + " ")
		if err := p.expr(k.With, false); err != nil {
			return err
		}
		p.write(" ")
		return p.expr(k.Filter, false)
	default:
		return fmt.Errorf("codegen: transform kind %v has no PQL source rendering", call.KindTag())
	}
	return nil
}

func literalText(l pl.Literal) string {
	switch l.Kind {
	case pl.LitNull:
		return "null"
	case pl.LitInteger:
		return strconv.FormatInt(l.Int, 10)
	case pl.LitFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case pl.LitBoolean:
		if l.Bool {
			return "true"
		}
		return "false"
	case pl.LitString:
		return `"` + strings.ReplaceAll(l.Str, `"`, `\"`) + `"`
	default:
		return `"` + l.Str + `"`
	}
}

func binOpText(op pl.BinOp) string {
	switch op {
	case pl.OpAdd:
		return "+"
	case pl.OpSub:
		return "-"
	case pl.OpMul:
		return "*"
	case pl.OpDiv:
		return "/"
	case pl.OpIntDiv:
		return "//"
	case pl.OpMod:
		return "%"
	case pl.OpEq:
		return "=="
	case pl.OpNe:
		return "!="
	case pl.OpLt:
		return "<"
	case pl.OpLe:
		return "<="
	case pl.OpGt:
		return ">"
	case pl.OpGe:
		return ">="
	case pl.OpAnd:
		return "&&"
	case pl.OpOr:
		return "||"
	case pl.OpCoalesce:
		return "??"
	case pl.OpConcat:
		return "++"
	case pl.OpRegexSearch:
		return "~="
	default:
		return "+"
	}
}

func unOpText(op pl.UnOp) string {
	if op == pl.OpNot {
		return "!"
	}
	return "-"
}
