// Package schema describes registered methods as an OpenRPC-style document with JSON Schema
// (Draft 2020-12) params and results. The document is served by the rpc.discover built-in.
package schema

import (
	"reflect"

	"github.com/gofrs/uuid"
	"github.com/invopop/jsonschema"
	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/method"
	"github.com/krupt/go-jsonrpc/pageable"
)

const OpenRPCVersion = "1.2.6"

const (
	// ByEither marks methods taking positional or named params.
	ByEither = "either"
	// ByValue marks methods decoding the whole params value into a single input.
	ByValue = "by-value"
)

type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// ContentDescriptor names a param or a result and carries its schema.
type ContentDescriptor struct {
	Name     string             `json:"name"`
	Required bool               `json:"required,omitempty"`
	Schema   *jsonschema.Schema `json:"schema"`
}

type Method struct {
	Name           string              `json:"name"`
	ParamStructure string              `json:"paramStructure"`
	Params         []ContentDescriptor `json:"params"`
	Result         *ContentDescriptor  `json:"result,omitempty"`
}

type Document struct {
	OpenRPC string   `json:"openrpc"`
	Info    Info     `json:"info"`
	Methods []Method `json:"methods"`
}

var (
	uuidType     = reflect.TypeOf(uuid.UUID{})
	pageableType = reflect.TypeOf(pageable.Pageable{})
)

// Generate describes methods in the order given.
func Generate(info Info, methods []jsonrpc.MethodInfo) *Document {
	r := newReflector()
	doc := &Document{
		OpenRPC: OpenRPCVersion,
		Info:    info,
		Methods: make([]Method, 0, len(methods)),
	}
	for _, m := range methods {
		doc.Methods = append(doc.Methods, describe(r, m))
	}
	return doc
}

func describe(r *jsonschema.Reflector, m jsonrpc.MethodInfo) Method {
	out := Method{
		Name:           m.Name,
		ParamStructure: ByEither,
		Params:         []ContentDescriptor{},
	}
	if m.Input != nil {
		out.ParamStructure = ByValue
		out.Params = append(out.Params, ContentDescriptor{
			Name:     "params",
			Required: true,
			Schema:   r.ReflectFromType(m.Input),
		})
	}
	for _, p := range m.Params {
		out.Params = append(out.Params, ContentDescriptor{
			Name:     p.Name,
			Required: !p.Optional,
			Schema:   r.ReflectFromType(p.Type),
		})
	}
	if m.Result != nil {
		out.Result = &ContentDescriptor{Name: "result", Schema: r.ReflectFromType(m.Result)}
	}
	return out
}

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		Anonymous: true,
		Mapper:    mapType,
	}
}

// mapType overrides reflection for types whose JSON form differs from their Go shape.
func mapType(t reflect.Type) *jsonschema.Schema {
	switch {
	case t == uuidType:
		return &jsonschema.Schema{Type: "string", Format: "uuid"}
	case method.IsVoid(t):
		return &jsonschema.Schema{Type: "null"}
	case t == pageableType:
		return pageableSchema()
	}
	return nil
}

func pageableSchema() *jsonschema.Schema {
	numeric := func() *jsonschema.Schema {
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: "0"},
			{Type: "string", Pattern: `^[0-9]+$`},
		}}
	}
	order := &jsonschema.Schema{Type: "object"}
	order.Properties = jsonschema.NewProperties()
	order.Properties.Set("property", &jsonschema.Schema{Type: "string"})
	// Directions are matched case-insensitively.
	order.Properties.Set("direction", &jsonschema.Schema{
		Type:    "string",
		Pattern: `^([aA][sS][cC]|[dD][eE][sS][cC])$`,
	})

	s := &jsonschema.Schema{Type: "object"}
	s.Properties = jsonschema.NewProperties()
	s.Properties.Set("page", numeric())
	s.Properties.Set("size", numeric())
	s.Properties.Set("sort", &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "array", Items: order},
			{Type: "null"},
		},
	})
	return s
}
