package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/pkg/pl"
)

// NewLexCommand builds the `lex` subcommand. pqlc carries no PQL lexer
// (pkg/token's doc comment), so `lex` instead walks an already-parsed PL
// tree and reports the source span pqlc already has for every node — the
// closest equivalent this binary can offer to a token stream.
func NewLexCommand() *cobra.Command {
	var inFormat string

	cmd := &cobra.Command{
		Use:   "lex <tree-file>",
		Short: "List the source spans recorded on a PL tree's nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			walkSpans(root, func(kind string, e *pl.Expr) {
				if e.Span.IsValid() {
					fmt.Fprintf(out, "%-16s %d:%d-%d:%d\n", kind,
						e.Span.Start.Line, e.Span.Start.Column, e.Span.End.Line, e.Span.End.Column)
				} else {
					fmt.Fprintf(out, "%-16s (no span)\n", kind)
				}
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	return cmd
}

// walkSpans visits e and every Expr it transitively contains, in the same
// traversal order codegen's printer uses, invoking visit once per node.
func walkSpans(e *pl.Expr, visit func(kind string, e *pl.Expr)) {
	if e == nil {
		return
	}
	switch k := e.Kind.(type) {
	case pl.Ident:
		visit("Ident", e)
	case pl.All:
		visit("All", e)
		walkSpans(k.Within, visit)
		for _, ex := range k.Except {
			walkSpans(ex, visit)
		}
	case pl.LiteralExpr:
		visit("Literal", e)
	case pl.Pipeline:
		visit("Pipeline", e)
		for _, ex := range k.Exprs {
			walkSpans(ex, visit)
		}
	case pl.TupleExpr:
		visit("Tuple", e)
		for _, ex := range k.Fields {
			walkSpans(ex, visit)
		}
	case pl.ArrayExpr:
		visit("Array", e)
		for _, ex := range k.Elements {
			walkSpans(ex, visit)
		}
	case pl.RangeExpr:
		visit("Range", e)
		walkSpans(k.Start, visit)
		walkSpans(k.End, visit)
	case pl.BinaryExpr:
		visit("Binary", e)
		walkSpans(k.Left, visit)
		walkSpans(k.Right, visit)
	case pl.UnaryExpr:
		visit("Unary", e)
		walkSpans(k.Expr, visit)
	case pl.FuncCall:
		visit("FuncCall", e)
		walkSpans(k.Name, visit)
		for _, a := range k.Args {
			walkSpans(a, visit)
		}
		for _, na := range k.NamedArgs {
			walkSpans(na.Value, visit)
		}
	case pl.SStringExpr:
		visit("SString", e)
		for _, part := range k.Parts {
			if part.Kind == pl.InterpExpr {
				walkSpans(part.Expr, visit)
			}
		}
	case pl.FStringExpr:
		visit("FString", e)
		for _, part := range k.Parts {
			if part.Kind == pl.InterpExpr {
				walkSpans(part.Expr, visit)
			}
		}
	case pl.CaseExpr:
		visit("Case", e)
		for _, c := range k.Cases {
			walkSpans(c.Condition, visit)
			walkSpans(c.Value, visit)
		}
	case pl.ParamExpr:
		visit("Param", e)
	default:
		visit(fmt.Sprintf("%T", k), e)
	}
}
