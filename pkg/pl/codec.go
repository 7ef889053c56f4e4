// Codec support for the PL tree's persisted forms (spec.md §6 "Persisted
// formats": "PL ... serialized as YAML or JSON, tagged enums, CId/TId as
// integers"). Both formats are produced from one canonical node shape so the
// YAML and JSON encodings never drift apart.
//
// Only the source-level ExprKind variants are covered: Ident, All,
// LiteralExpr, Pipeline, TupleExpr, ArrayExpr, RangeExpr, BinaryExpr,
// UnaryExpr, FuncCall, SStringExpr, FStringExpr, CaseExpr, ParamExpr. The
// remaining variants (FuncExpr, TransformCallExpr, RqOperatorExpr, TypeExpr,
// InternalExpr) are resolver-output or builtin-only shapes that never appear
// in a CLI-supplied tree, since parsing PQL source text is out of scope here
// (pkg/token's doc comment) and the CLI instead accepts an already-built PL
// tree as its `compile`/`parse`/`lex` input (see DESIGN.md "CLI consumes
// serialized PL, not raw PQL source").
package pl

import (
	"encoding/json"
	"fmt"
)

// node is the canonical, format-agnostic shape one Expr marshals to. Both
// MarshalJSON and MarshalYAML build one of these and hand it to the
// respective stdlib/yaml.v3 encoder, so the two formats can never disagree
// about field names.
func (e *Expr) node() (map[string]any, error) {
	if e == nil {
		return nil, nil
	}
	n := map[string]any{}
	if e.Alias != "" {
		n["alias"] = e.Alias
	}

	switch k := e.Kind.(type) {
	case Ident:
		n["type"] = "Ident"
		n["path"] = k.Path
	case All:
		n["type"] = "All"
		within, err := k.Within.node()
		if err != nil {
			return nil, err
		}
		n["within"] = within
		except, err := nodeList(k.Except)
		if err != nil {
			return nil, err
		}
		n["except"] = except
	case LiteralExpr:
		n["type"] = "Literal"
		n["literal"] = literalNode(k.Value)
	case Pipeline:
		n["type"] = "Pipeline"
		exprs, err := nodeList(k.Exprs)
		if err != nil {
			return nil, err
		}
		n["exprs"] = exprs
	case TupleExpr:
		n["type"] = "Tuple"
		fields, err := nodeList(k.Fields)
		if err != nil {
			return nil, err
		}
		n["fields"] = fields
	case ArrayExpr:
		n["type"] = "Array"
		elements, err := nodeList(k.Elements)
		if err != nil {
			return nil, err
		}
		n["elements"] = elements
	case RangeExpr:
		n["type"] = "Range"
		start, err := k.Start.node()
		if err != nil {
			return nil, err
		}
		end, err := k.End.node()
		if err != nil {
			return nil, err
		}
		n["start"] = start
		n["end"] = end
	case BinaryExpr:
		n["type"] = "Binary"
		n["op"] = binOpName(k.Op)
		left, err := k.Left.node()
		if err != nil {
			return nil, err
		}
		right, err := k.Right.node()
		if err != nil {
			return nil, err
		}
		n["left"] = left
		n["right"] = right
	case UnaryExpr:
		n["type"] = "Unary"
		n["op"] = unOpName(k.Op)
		inner, err := k.Expr.node()
		if err != nil {
			return nil, err
		}
		n["expr"] = inner
	case FuncCall:
		n["type"] = "FuncCall"
		name, err := k.Name.node()
		if err != nil {
			return nil, err
		}
		args, err := nodeList(k.Args)
		if err != nil {
			return nil, err
		}
		n["name"] = name
		n["args"] = args
		if len(k.NamedArgs) > 0 {
			named := make([]map[string]any, len(k.NamedArgs))
			for i, a := range k.NamedArgs {
				v, err := a.Value.node()
				if err != nil {
					return nil, err
				}
				named[i] = map[string]any{"name": a.Name, "value": v}
			}
			n["named_args"] = named
		}
	case SStringExpr:
		n["type"] = "SString"
		parts, err := interpolateNodes(k.Parts)
		if err != nil {
			return nil, err
		}
		n["parts"] = parts
	case FStringExpr:
		n["type"] = "FString"
		parts, err := interpolateNodes(k.Parts)
		if err != nil {
			return nil, err
		}
		n["parts"] = parts
	case CaseExpr:
		n["type"] = "Case"
		cases := make([]map[string]any, len(k.Cases))
		for i, c := range k.Cases {
			cond, err := c.Condition.node()
			if err != nil {
				return nil, err
			}
			val, err := c.Value.node()
			if err != nil {
				return nil, err
			}
			cases[i] = map[string]any{"condition": cond, "value": val}
		}
		n["cases"] = cases
	case ParamExpr:
		n["type"] = "Param"
		n["id"] = k.ID
	default:
		return nil, fmt.Errorf("pl: %T is not a serializable source-level ExprKind", k)
	}
	return n, nil
}

func nodeList(exprs []*Expr) ([]map[string]any, error) {
	out := make([]map[string]any, len(exprs))
	for i, e := range exprs {
		n, err := e.node()
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func interpolateNodes(parts []InterpolateItem) ([]map[string]any, error) {
	out := make([]map[string]any, len(parts))
	for i, p := range parts {
		switch p.Kind {
		case InterpString:
			out[i] = map[string]any{"type": "string", "value": p.Str}
		case InterpExpr:
			n, err := p.Expr.node()
			if err != nil {
				return nil, err
			}
			out[i] = map[string]any{"type": "expr", "value": n}
		}
	}
	return out, nil
}

func literalNode(l Literal) map[string]any {
	switch l.Kind {
	case LitNull:
		return map[string]any{"kind": "null"}
	case LitInteger:
		return map[string]any{"kind": "integer", "value": l.Int}
	case LitFloat:
		return map[string]any{"kind": "float", "value": l.Float}
	case LitBoolean:
		return map[string]any{"kind": "boolean", "value": l.Bool}
	case LitString:
		return map[string]any{"kind": "string", "value": l.Str}
	case LitDate:
		return map[string]any{"kind": "date", "value": l.Str}
	case LitTime:
		return map[string]any{"kind": "time", "value": l.Str}
	case LitTimestamp:
		return map[string]any{"kind": "timestamp", "value": l.Str}
	default:
		return map[string]any{"kind": "null"}
	}
}

var binOpNames = map[BinOp]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpIntDiv: "int_div",
	OpMod: "mod", OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt",
	OpGe: "ge", OpAnd: "and", OpOr: "or", OpCoalesce: "coalesce", OpConcat: "concat",
	OpRegexSearch: "regex_search",
}

func binOpName(op BinOp) string {
	if n, ok := binOpNames[op]; ok {
		return n
	}
	return "add"
}

func binOpFromName(s string) (BinOp, error) {
	for op, n := range binOpNames {
		if n == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("pl: unknown binary operator %q", s)
}

func unOpName(op UnOp) string {
	if op == OpNot {
		return "not"
	}
	return "neg"
}

func unOpFromName(s string) (UnOp, error) {
	switch s {
	case "neg":
		return OpNeg, nil
	case "not":
		return OpNot, nil
	default:
		return 0, fmt.Errorf("pl: unknown unary operator %q", s)
	}
}

// MarshalJSON implements json.Marshaler over the canonical node shape.
func (e *Expr) MarshalJSON() ([]byte, error) {
	n, err := e.node()
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// UnmarshalJSON implements json.Unmarshaler over the canonical node shape.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := fromNode(raw)
	if err != nil {
		return err
	}
	*e = *built
	return nil
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v3) over the same
// canonical node shape JSON uses.
func (e *Expr) MarshalYAML() (any, error) {
	return e.node()
}

// UnmarshalYAML implements yaml.Unmarshaler (gopkg.in/yaml.v3).
func (e *Expr) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	built, err := fromNode(raw)
	if err != nil {
		return err
	}
	*e = *built
	return nil
}

func fromNode(raw map[string]any) (*Expr, error) {
	if raw == nil {
		return nil, nil
	}
	t, _ := raw["type"].(string)
	e := &Expr{}
	if alias, ok := raw["alias"].(string); ok {
		e.Alias = alias
	}

	asMap := func(v any) map[string]any {
		m, _ := v.(map[string]any)
		return m
	}
	asSlice := func(v any) []any {
		s, _ := v.([]any)
		return s
	}
	childExpr := func(v any) (*Expr, error) {
		m := asMap(v)
		if m == nil {
			return nil, nil
		}
		return fromNode(m)
	}
	childList := func(v any) ([]*Expr, error) {
		items := asSlice(v)
		out := make([]*Expr, len(items))
		for i, it := range items {
			m := asMap(it)
			child, err := fromNode(m)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	}

	switch t {
	case "Ident":
		path := asSlice(raw["path"])
		parts := make([]string, len(path))
		for i, p := range path {
			parts[i], _ = p.(string)
		}
		e.Kind = Ident{Path: parts}
	case "All":
		within, err := childExpr(raw["within"])
		if err != nil {
			return nil, err
		}
		except, err := childList(raw["except"])
		if err != nil {
			return nil, err
		}
		e.Kind = All{Within: within, Except: except}
	case "Literal":
		lit, err := literalFromNode(asMap(raw["literal"]))
		if err != nil {
			return nil, err
		}
		e.Kind = LiteralExpr{Value: lit}
	case "Pipeline":
		exprs, err := childList(raw["exprs"])
		if err != nil {
			return nil, err
		}
		e.Kind = Pipeline{Exprs: exprs}
	case "Tuple":
		fields, err := childList(raw["fields"])
		if err != nil {
			return nil, err
		}
		e.Kind = TupleExpr{Fields: fields}
	case "Array":
		elements, err := childList(raw["elements"])
		if err != nil {
			return nil, err
		}
		e.Kind = ArrayExpr{Elements: elements}
	case "Range":
		start, err := childExpr(raw["start"])
		if err != nil {
			return nil, err
		}
		end, err := childExpr(raw["end"])
		if err != nil {
			return nil, err
		}
		e.Kind = RangeExpr{Start: start, End: end}
	case "Binary":
		op, err := binOpFromName(fmt.Sprint(raw["op"]))
		if err != nil {
			return nil, err
		}
		left, err := childExpr(raw["left"])
		if err != nil {
			return nil, err
		}
		right, err := childExpr(raw["right"])
		if err != nil {
			return nil, err
		}
		e.Kind = BinaryExpr{Op: op, Left: left, Right: right}
	case "Unary":
		op, err := unOpFromName(fmt.Sprint(raw["op"]))
		if err != nil {
			return nil, err
		}
		inner, err := childExpr(raw["expr"])
		if err != nil {
			return nil, err
		}
		e.Kind = UnaryExpr{Op: op, Expr: inner}
	case "FuncCall":
		name, err := childExpr(raw["name"])
		if err != nil {
			return nil, err
		}
		args, err := childList(raw["args"])
		if err != nil {
			return nil, err
		}
		var named []NamedArg
		for _, item := range asSlice(raw["named_args"]) {
			m := asMap(item)
			v, err := childExpr(m["value"])
			if err != nil {
				return nil, err
			}
			name, _ := m["name"].(string)
			named = append(named, NamedArg{Name: name, Value: v})
		}
		e.Kind = FuncCall{Name: name, Args: args, NamedArgs: named}
	case "SString":
		parts, err := interpolateFromNodes(asSlice(raw["parts"]))
		if err != nil {
			return nil, err
		}
		e.Kind = SStringExpr{Parts: parts}
	case "FString":
		parts, err := interpolateFromNodes(asSlice(raw["parts"]))
		if err != nil {
			return nil, err
		}
		e.Kind = FStringExpr{Parts: parts}
	case "Case":
		var cases []CaseBranch
		for _, item := range asSlice(raw["cases"]) {
			m := asMap(item)
			cond, err := childExpr(m["condition"])
			if err != nil {
				return nil, err
			}
			val, err := childExpr(m["value"])
			if err != nil {
				return nil, err
			}
			cases = append(cases, CaseBranch{Condition: cond, Value: val})
		}
		e.Kind = CaseExpr{Cases: cases}
	case "Param":
		id, _ := raw["id"].(string)
		e.Kind = ParamExpr{ID: id}
	default:
		return nil, fmt.Errorf("pl: unknown or unsupported expr type %q", t)
	}
	return e, nil
}

func interpolateFromNodes(items []any) ([]InterpolateItem, error) {
	out := make([]InterpolateItem, len(items))
	for i, item := range items {
		m, _ := item.(map[string]any)
		kind, _ := m["type"].(string)
		switch kind {
		case "string":
			s, _ := m["value"].(string)
			out[i] = InterpolateItem{Kind: InterpString, Str: s}
		case "expr":
			child, err := fromNode(asMapAny(m["value"]))
			if err != nil {
				return nil, err
			}
			out[i] = InterpolateItem{Kind: InterpExpr, Expr: child}
		}
	}
	return out, nil
}

func asMapAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func literalFromNode(m map[string]any) (Literal, error) {
	kind, _ := m["kind"].(string)
	switch kind {
	case "null", "":
		return Null(), nil
	case "integer":
		return Int(toInt64(m["value"])), nil
	case "float":
		return Float(toFloat64(m["value"])), nil
	case "boolean":
		b, _ := m["value"].(bool)
		return Bool(b), nil
	case "string":
		s, _ := m["value"].(string)
		return String(s), nil
	case "date":
		s, _ := m["value"].(string)
		return Literal{Kind: LitDate, Str: s}, nil
	case "time":
		s, _ := m["value"].(string)
		return Literal{Kind: LitTime, Str: s}, nil
	case "timestamp":
		s, _ := m["value"].(string)
		return Literal{Kind: LitTimestamp, Str: s}, nil
	default:
		return Literal{}, fmt.Errorf("pl: unknown literal kind %q", kind)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
