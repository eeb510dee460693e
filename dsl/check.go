package dsl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-playground/validator/v10"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/coerce"
	js "github.com/reoring/fastser/jsonschema"
)

// ---- expression checks (check:"...") ----

type exprValidator struct {
	inner fastser.Validator
	src   string
	prg   *vm.Program
}

// Expr validates with inner and then evaluates src, a boolean expr-lang
// expression over the validated value bound as `value`:
//
//	Age int `check:"value >= 18 && value < 130"`
func Expr(inner fastser.Validator, src string) (fastser.Validator, error) {
	prg, err := expr.Compile(src, expr.Env(map[string]any{"value": nil}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", src, err)
	}
	if inner == nil {
		inner = Any()
	}
	return exprValidator{inner: inner, src: src, prg: prg}, nil
}

func (v exprValidator) Name() string { return v.inner.Name() }

func (v exprValidator) Validate(ctx context.Context, x any) (any, error) {
	out, err := v.inner.Validate(ctx, x)
	if err != nil {
		return nil, err
	}
	res, err := expr.Run(v.prg, map[string]any{"value": out})
	if err != nil {
		return nil, &coerce.Error{Code: fastser.CodeCheck, Expected: v.inner.Name(), Value: x,
			Params: map[string]string{"expr": v.src}, Err: err}
	}
	if ok, _ := res.(bool); !ok {
		return nil, &coerce.Error{Code: fastser.CodeCheck, Expected: v.inner.Name(), Value: x,
			Params: map[string]string{"expr": v.src}}
	}
	return out, nil
}

func (v exprValidator) schema() *js.Schema { return schemaOf(v.inner) }

// ---- rule tags (validate:"...") ----

var (
	rulesOnce sync.Once
	rules     *validator.Validate
)

func ruleEngine() *validator.Validate {
	rulesOnce.Do(func() { rules = validator.New(validator.WithRequiredStructEnabled()) })
	return rules
}

type ruleValidator struct {
	inner fastser.Validator
	tag   string
}

// Rule validates with inner and then applies a go-playground/validator tag
// such as "email" or "hostname|ip".
func Rule(inner fastser.Validator, tag string) fastser.Validator {
	if inner == nil {
		inner = Any()
	}
	return ruleValidator{inner: inner, tag: tag}
}

func (v ruleValidator) Name() string { return v.inner.Name() }

func (v ruleValidator) Validate(ctx context.Context, x any) (any, error) {
	out, err := v.inner.Validate(ctx, x)
	if err != nil {
		return nil, err
	}
	if err := ruleEngine().Var(out, v.tag); err != nil {
		rule := v.tag
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			rule = ves[0].Tag()
			if p := ves[0].Param(); p != "" {
				rule += "=" + p
			}
		}
		return nil, &coerce.Error{Code: fastser.CodeConstraint, Expected: v.inner.Name(), Value: x,
			Params: map[string]string{"rule": rule}, Err: err}
	}
	return out, nil
}

func (v ruleValidator) schema() *js.Schema { return schemaOf(v.inner) }

// compileRule reports tags the rule engine cannot run; the engine panics on
// unknown tags at validation time.
func compileRule(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validate %q: %v", tag, r)
		}
	}()
	_ = ruleEngine().Var("", tag)
	return nil
}
