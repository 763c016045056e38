package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/fwojciec/chain"
)

// New builds a Tool from a typed implementation, deriving the JSON Schema
// for its parameters from the argument struct A. Derivation happens once
// here; the resulting schema is immutable and never re-derived per call.
//
// Field mapping:
//   - the json tag names the parameter (fields tagged "-" are skipped)
//   - a description tag is mandatory for every parameter
//   - an enum tag ("a,b,c") restricts string parameters
//   - pointer fields and fields tagged omitempty are optional; all others
//     are required
func New[A any](name, description string, fn func(ctx context.Context, args A) (string, error)) (Tool, error) {
	params, err := deriveSchema(reflect.TypeOf((*A)(nil)).Elem())
	if err != nil {
		return Tool{}, fmt.Errorf("tool %s: %w", name, err)
	}
	return Tool{
		Schema: chain.ToolSchema{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		Fn: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args A
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
			}
			return fn(ctx, args)
		},
	}, nil
}

// Must is like New but panics on derivation errors. Intended for
// package-level tool definitions with statically known argument structs.
func Must[A any](name, description string, fn func(ctx context.Context, args A) (string, error)) Tool {
	t, err := New(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// property is the subset of JSON Schema emitted for a single parameter.
type property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *property           `json:"items,omitempty"`
	Properties  map[string]property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// objectSchema is the top-level parameters object.
type objectSchema struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

func deriveSchema(t reflect.Type) (json.RawMessage, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type %s is not a struct: %w", t, chain.ErrValidation)
	}
	obj, err := structSchema(t, true)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(objectSchema{
		Type:       "object",
		Properties: obj.Properties,
		Required:   obj.Required,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// structSchema builds the object property for a struct type. Descriptions
// are mandatory only at the top level, where each field is a model-facing
// parameter.
func structSchema(t reflect.Type, topLevel bool) (property, error) {
	obj := property{Type: "object", Properties: make(map[string]property)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, optional, skip := jsonName(f)
		if skip {
			continue
		}

		desc := f.Tag.Get("description")
		if topLevel && desc == "" {
			return property{}, fmt.Errorf("cannot auto-derive schema for parameter %s: missing description tag: %w", name, chain.ErrValidation)
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			optional = true
			ft = ft.Elem()
		}

		p, err := typeSchema(ft)
		if err != nil {
			return property{}, fmt.Errorf("cannot auto-derive schema for parameter %s: %w", name, err)
		}
		p.Description = desc
		if enum := f.Tag.Get("enum"); enum != "" {
			if p.Type != "string" {
				return property{}, fmt.Errorf("cannot auto-derive schema for parameter %s: enum tag on non-string type: %w", name, chain.ErrValidation)
			}
			p.Enum = strings.Split(enum, ",")
		}

		obj.Properties[name] = p
		if !optional {
			obj.Required = append(obj.Required, name)
		}
	}
	return obj, nil
}

func typeSchema(t reflect.Type) (property, error) {
	if t == reflect.TypeOf(time.Time{}) {
		return property{Type: "string"}, nil
	}
	switch t.Kind() {
	case reflect.String:
		return property{Type: "string"}, nil
	case reflect.Bool:
		return property{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return property{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return property{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			// []byte marshals to a base64 string.
			return property{Type: "string"}, nil
		}
		items, err := typeSchema(t.Elem())
		if err != nil {
			return property{}, err
		}
		return property{Type: "array", Items: &items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return property{}, fmt.Errorf("unsupported map key type %s: %w", t.Key(), chain.ErrValidation)
		}
		return property{Type: "object"}, nil
	case reflect.Struct:
		return structSchema(t, false)
	case reflect.Pointer:
		return typeSchema(t.Elem())
	default:
		return property{}, fmt.Errorf("unsupported type %s: %w", t, chain.ErrValidation)
	}
}

// jsonName resolves the parameter name for a struct field from its json
// tag, falling back to the Go field name.
func jsonName(f reflect.StructField) (name string, optional, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = f.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				optional = true
			}
		}
	}
	return name, optional, false
}
