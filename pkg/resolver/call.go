package resolver

import (
	"fmt"

	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/module"
	"github.com/pql-lang/pqlc/pkg/perrors"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// foldFuncCall implements spec.md §4.2 "Resolution order" steps 2-4: fold
// the callee, bind positional/named arguments against its declared
// parameters, and either return a partial Func, dispatch a special
// function, or inline the callee's body.
func (r *Resolver) foldFuncCall(e *pl.Expr, call pl.FuncCall) (*pl.Expr, error) {
	callee, err := r.resolveCallee(call.Name)
	if err != nil {
		return nil, err
	}

	args := make([]*pl.Expr, len(call.Args))
	for i, a := range call.Args {
		folded, err := r.Fold(a)
		if err != nil {
			return nil, err
		}
		args[i] = folded
	}

	remaining := callee.RemainingParams()
	if len(args) > len(remaining) {
		hint := ""
		if len(args) >= 2 {
			hint = "missing parentheses around a nested call?"
		}
		err := perrors.New(perrors.Expected{Who: "call", Expected: fmt.Sprintf("%d arguments", len(remaining)), Found: fmt.Sprintf("%d", len(args))}).WithSpan(e.Span)
		if hint != "" {
			err = err.WithHint(hint)
		}
		return nil, err
	}

	for _, na := range call.NamedArgs {
		if !hasNamedParam(callee, na.Name) {
			return nil, perrors.New(perrors.Unexpected{Found: "argument named " + na.Name}).WithSpan(e.Span)
		}
	}

	applied := callee
	for _, a := range args {
		applied = applied.WithAppliedArg(a)
	}
	for _, na := range call.NamedArgs {
		folded, err := r.Fold(na.Value)
		if err != nil {
			return nil, err
		}
		applied = bindNamedArg(applied, na.Name, folded)
	}

	if !applied.IsFullyApplied() {
		r.assignID(e)
		e.Kind = pl.FuncExpr{Func: applied}
		return e, nil
	}

	return r.evalCall(e, applied)
}

func hasNamedParam(f *pl.Func, name string) bool {
	for _, p := range f.NamedParams {
		if p.Name == name {
			return true
		}
	}
	return false
}

func bindNamedArg(f *pl.Func, name string, value *pl.Expr) *pl.Func {
	next := *f
	next.NamedParams = append([]pl.Param(nil), f.NamedParams...)
	for i, p := range next.NamedParams {
		if p.Name == name {
			next.NamedParams[i].Default = value
		}
	}
	return &next
}

// resolveCallee folds name and requires the result be a Func value.
func (r *Resolver) resolveCallee(name *pl.Expr) (*pl.Func, error) {
	folded, err := r.Fold(name)
	if err != nil {
		return nil, err
	}
	switch k := folded.Kind.(type) {
	case pl.FuncExpr:
		return k.Func, nil
	default:
		return nil, perrors.New(perrors.Expected{Who: "call target", Expected: "a function", Found: fmt.Sprintf("%T", k)}).WithSpan(folded.Span)
	}
}

// evalCall binds applied's parameters into NS_PARAM, folds its body, and
// dispatches the result: a body reducing to Internal(op) is a special
// function (spec.md §4.2.1); otherwise the folded body replaces the call.
func (r *Resolver) evalCall(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	scope := r.Root.StackPush(module.NSParam)
	for i, p := range applied.Params {
		arg := applied.Args[i]
		id := p.Name
		if id == "" {
			id = fmt.Sprintf("_%d", i)
		}
		scope.Insert(ident.FromName(id), module.ParamDeclKind{Expr: arg})
	}
	for _, p := range applied.NamedParams {
		if p.Default != nil {
			scope.Insert(ident.FromName(p.Name), module.ParamDeclKind{Expr: p.Default})
		}
	}
	defer r.Root.StackPop(module.NSParam)

	if applied.Body == nil {
		r.assignID(e)
		return e, nil
	}
	body, err := r.Fold(applied.Body)
	if err != nil {
		return nil, err
	}

	if internal, ok := body.Kind.(pl.InternalExpr); ok {
		return r.dispatchSpecial(e, internal.Name, applied)
	}
	body.Alias = e.Alias
	return body, nil
}

// namedArg looks up a bound named parameter's value on applied.
func namedArg(applied *pl.Func, name string) *pl.Expr {
	for _, p := range applied.NamedParams {
		if p.Name == name {
			return p.Default
		}
	}
	return nil
}

// positional returns applied.Args[i], or nil if out of range.
func positional(applied *pl.Func, i int) *pl.Expr {
	if i < 0 || i >= len(applied.Args) {
		return nil
	}
	return applied.Args[i]
}
