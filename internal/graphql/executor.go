package graphql

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

//go:embed schema.graphqls
var schemaSource string

// Request is a GraphQL request body
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL response body
type Response struct {
	Data   any           `json:"data"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

// Executor validates queries against the schema and resolves them. Object
// fields are read from the resolved value's JSON form, so a field named
// reviewCount maps to the review_count key.
type Executor struct {
	schema   *ast.Schema
	resolver *Resolver
}

// NewExecutor loads the schema and binds the resolver
func NewExecutor(resolver *Resolver) (*Executor, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})
	if err != nil {
		return nil, fmt.Errorf("failed to load GraphQL schema: %w", err)
	}
	return &Executor{schema: schema, resolver: resolver}, nil
}

// Execute runs a query operation. viewer is nil for anonymous requests.
func (e *Executor) Execute(ctx context.Context, viewer *entities.Account, req Request) *Response {
	doc, errs := gqlparser.LoadQuery(e.schema, req.Query)
	if len(errs) > 0 {
		return &Response{Errors: errs}
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("operation %q not found", req.OperationName)}}
	}
	if op.Operation != ast.Query {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("only queries are supported, use the REST API for writes")}}
	}

	vars, err := validator.VariableValues(e.schema, op, req.Variables)
	if err != nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err.Error())}}
	}

	data := newObject()
	var fieldErrs gqlerror.List
	nullData := false
	for _, field := range collectFields(op.SelectionSet, "Query", vars) {
		key := responseKey(field)
		if data.has(key) {
			continue
		}
		if field.Name == "__typename" {
			data.set(key, "Query")
			continue
		}

		value, err := e.resolver.resolveQuery(ctx, viewer, field.Name, field.ArgumentMap(vars))
		if err != nil {
			fieldErrs = append(fieldErrs, fieldError(ctx, err, key))
			data.set(key, nil)
			if field.Definition != nil && field.Definition.Type.NonNull {
				nullData = true
			}
			continue
		}

		generic, err := toGeneric(value)
		if err != nil {
			fieldErrs = append(fieldErrs, fieldError(ctx, err, key))
			data.set(key, nil)
			continue
		}
		if generic == nil && field.Definition != nil && field.Definition.Type.Elem != nil && field.Definition.Type.NonNull {
			generic = []any{}
		}
		data.set(key, complete(field.SelectionSet, generic, vars))
	}

	if nullData {
		return &Response{Data: nil, Errors: fieldErrs}
	}
	return &Response{Data: data, Errors: fieldErrs}
}

// complete projects a JSON-shaped value onto the selection set
func complete(set ast.SelectionSet, value any, vars map[string]any) any {
	if value == nil || len(set) == 0 {
		return value
	}
	switch v := value.(type) {
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = complete(set, item, vars)
		}
		return items
	case map[string]any:
		obj := newObject()
		for _, field := range collectFields(set, "", vars) {
			key := responseKey(field)
			if obj.has(key) {
				continue
			}
			if field.Name == "__typename" {
				obj.set(key, field.ObjectDefinition.Name)
				continue
			}
			obj.set(key, complete(field.SelectionSet, v[jsonKey(field.Name)], vars))
		}
		return obj
	}
	return value
}

// collectFields flattens fragments and honors @skip and @include.
// typeName filters type conditions when known.
func collectFields(set ast.SelectionSet, typeName string, vars map[string]any) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if included(s.Directives, vars) {
				fields = append(fields, s)
			}
		case *ast.InlineFragment:
			if included(s.Directives, vars) && matches(s.TypeCondition, typeName) {
				fields = append(fields, collectFields(s.SelectionSet, typeName, vars)...)
			}
		case *ast.FragmentSpread:
			if s.Definition != nil && included(s.Directives, vars) && matches(s.Definition.TypeCondition, typeName) {
				fields = append(fields, collectFields(s.Definition.SelectionSet, typeName, vars)...)
			}
		}
	}
	return fields
}

func matches(condition, typeName string) bool {
	return condition == "" || typeName == "" || condition == typeName
}

func included(directives ast.DirectiveList, vars map[string]any) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func responseKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}

// jsonKey maps a camelCase field name to its snake_case JSON key
func jsonKey(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toGeneric(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// fieldError reports err at path. Internal failures are logged and masked.
func fieldError(ctx context.Context, err error, key string) *gqlerror.Error {
	gqlErr := &gqlerror.Error{Path: ast.Path{ast.PathName(key)}}
	if appErr, ok := apperrors.As(err); ok && appErr.Type != apperrors.ErrorTypeInternal && appErr.Type != apperrors.ErrorTypeExternal {
		gqlErr.Message = appErr.Message
		gqlErr.Extensions = map[string]any{"code": string(appErr.Type)}
		return gqlErr
	}

	observability.LoggerFromContext(ctx).Error().Err(err).Str("field", key).Msg("GraphQL field failed")
	gqlErr.Message = "internal server error"
	gqlErr.Extensions = map[string]any{"code": string(apperrors.ErrorTypeInternal)}
	return gqlErr
}

// object is a JSON object that keeps the order fields were selected in
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o *object) set(key string, value any) {
	if !o.has(key) {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// MarshalJSON writes the fields in selection order
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
