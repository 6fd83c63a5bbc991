// Package openapi generates an OpenAPI 3.0 document from the schema registry.
// Paths, request bodies, query parameters and validation rules all come from
// the entity definitions, so the document never drifts from what the API
// actually accepts.
package openapi

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/artpar/familyhub/core/schema"
)

// Spec represents an OpenAPI 3.0 document.
type Spec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
	Tags       []Tag               `json:"tags,omitempty"`
}

// Info provides API metadata.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Server represents a server URL.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem contains operations for a path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation represents an API operation.
type Operation struct {
	Tags        []string            `json:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	OperationID string              `json:"operationId,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"` // path, query
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
}

// RequestBody represents a request body.
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Content     map[string]MediaType `json:"content"`
}

// Response represents an API response.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType represents a media type.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Schema represents a JSON Schema.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	MinLength   *int               `json:"minLength,omitempty"`
	MaxLength   *int               `json:"maxLength,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Exclusive   bool               `json:"exclusiveMinimum,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Default     any                `json:"default,omitempty"`

	AdditionalProperties *bool `json:"additionalProperties,omitempty"`
}

// Components contains reusable schemas.
type Components struct {
	Schemas map[string]*Schema `json:"schemas,omitempty"`
}

// Tag provides metadata for a group of operations.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// APIPrefix is the path prefix of every entity collection.
const APIPrefix = "/api/"

// Generator builds a document from registry entities.
type Generator struct {
	registry *schema.Registry
	info     Info
}

// NewGenerator creates a generator over reg.
func NewGenerator(reg *schema.Registry) *Generator {
	return &Generator{
		registry: reg,
		info: Info{
			Title:       "FamilyHub API",
			Version:     "1.0.0",
			Description: "Shared family organizer: grocery lists, meal plans, memories, recipes, tasks and parenting activities.",
		},
	}
}

// SetInfo sets the API info.
func (g *Generator) SetInfo(info Info) {
	g.info = info
}

// Generate creates the document.
func (g *Generator) Generate() *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info:    g.info,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: map[string]*Schema{
				"Error":   errorSchema(),
				"Message": {Type: "object", Properties: map[string]*Schema{"message": {Type: "string"}}},
			},
		},
	}

	// Registry order is sorted by name.
	for _, ent := range g.registry.Entities() {
		g.addEntity(spec, ent)
	}
	return spec
}

func (g *Generator) addEntity(spec *Spec, ent schema.Entity) {
	spec.Tags = append(spec.Tags, Tag{Name: ent.Name, Description: ent.Description})

	title := TypeName(ent.Name)
	spec.Components.Schemas[title] = recordSchema(ent)

	collection := APIPrefix + ent.CollectionPath()
	item := collection + "/{id}"

	var coll, one PathItem

	if qs, ok := ent.Schema(schema.OpQuery); ok {
		coll.Get = &Operation{
			Tags:        []string{ent.Name},
			Summary:     "List " + humanPlural(ent),
			OperationID: "list" + title,
			Parameters:  queryParameters(qs),
			Responses: map[string]Response{
				"200": jsonResponse("Matching records", &Schema{
					Type:  "array",
					Items: ref(title),
				}),
				"400": errorResponse("Invalid query"),
				"500": errorResponse("Internal error"),
			},
		}
	}

	if cs, ok := ent.Schema(schema.OpCreate); ok {
		spec.Components.Schemas[title+"Create"] = objectSchema(cs.Fields, true)
		coll.Post = &Operation{
			Tags:        []string{ent.Name},
			Summary:     "Create " + humanize(ent.Name),
			OperationID: "create" + title,
			RequestBody: jsonBody(ref(title + "Create")),
			Responses: map[string]Response{
				"201": jsonResponse("Created record", ref(title)),
				"400": errorResponse("Validation failed"),
				"500": errorResponse("Internal error"),
			},
		}
		one.Get = &Operation{
			Tags:        []string{ent.Name},
			Summary:     "Get " + humanize(ent.Name),
			OperationID: "get" + title,
			Parameters:  []Parameter{idParameter()},
			Responses: map[string]Response{
				"200": jsonResponse("Record", ref(title)),
				"404": errorResponse("Not found"),
				"500": errorResponse("Internal error"),
			},
		}
		one.Delete = &Operation{
			Tags:        []string{ent.Name},
			Summary:     "Delete " + humanize(ent.Name),
			OperationID: "delete" + title,
			Parameters:  []Parameter{idParameter()},
			Responses: map[string]Response{
				"200": jsonResponse("Deleted", ref("Message")),
				"404": errorResponse("Not found"),
				"500": errorResponse("Internal error"),
			},
		}
	}

	if us, ok := ent.Schema(schema.OpUpdate); ok {
		spec.Components.Schemas[title+"Update"] = objectSchema(us.Fields, true)
		update := &Operation{
			Tags:        []string{ent.Name},
			Summary:     "Update " + humanize(ent.Name),
			OperationID: "update" + title,
			Description: "Fields absent from the body are left unchanged.",
			Parameters:  []Parameter{idParameter()},
			RequestBody: jsonBody(ref(title + "Update")),
			Responses: map[string]Response{
				"200": jsonResponse("Updated record", ref(title)),
				"400": errorResponse("Validation failed"),
				"404": errorResponse("Not found"),
				"500": errorResponse("Internal error"),
			},
		}
		one.Patch = update
		if len(ent.Create) > 0 {
			put := *update
			put.OperationID = "replace" + title
			one.Put = &put
		}
	}

	if coll.Get != nil || coll.Post != nil {
		spec.Paths[collection] = coll
	}
	if one.Get != nil || one.Patch != nil || one.Delete != nil {
		spec.Paths[item] = one
	}
}

// recordSchema describes a stored record as returned to clients: columns
// keyed by snake_case name.
func recordSchema(ent schema.Entity) *Schema {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"id":         {Type: "string"},
			"created_at": {Type: "string", Format: "date-time"},
			"updated_at": {Type: "string", Format: "date-time"},
		},
	}
	for _, group := range []schema.Fields{ent.Create, ent.Update, ent.Stored} {
		for _, f := range group {
			col := f.ColumnName()
			if _, seen := s.Properties[col]; seen {
				continue
			}
			fs := fieldSchema(f, false)
			fs.Default = nil
			s.Properties[col] = fs
		}
	}
	return s
}

// objectSchema describes an input object. Property names are input keys.
func objectSchema(fields schema.Fields, closed bool) *Schema {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Name] = fieldSchema(f, true)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	if closed {
		no := false
		s.AdditionalProperties = &no
	}
	return s
}

func fieldSchema(f schema.Field, input bool) *Schema {
	s := &Schema{Description: f.Description, Nullable: f.Nullable}

	switch f.Type {
	case schema.FieldTypeNumber:
		s.Type = "number"
	case schema.FieldTypeBool:
		s.Type = "boolean"
	case schema.FieldTypeDate:
		s.Type = "string"
		s.Format = "date-time"
	case schema.FieldTypeEnum:
		s.Type = "string"
		s.Enum = append([]string(nil), f.Values...)
	case schema.FieldTypeArray:
		s.Type = "array"
		if f.Items != nil {
			s.Items = fieldSchema(*f.Items, input)
		}
	case schema.FieldTypeObject:
		if f.IsFreeForm() {
			s.Type = "object"
		} else {
			s = objectSchema(f.Fields, false)
			s.Description = f.Description
			s.Nullable = f.Nullable
		}
	default:
		s.Type = "string"
	}

	if input && f.HasDefault() {
		s.Default = f.Default
	}

	for _, c := range f.Constraints {
		applyConstraint(s, c)
	}
	return s
}

// applyConstraint maps a constraint onto the matching JSON Schema keyword.
func applyConstraint(s *Schema, c schema.Constraint) {
	switch c.Type {
	case schema.ConstraintMinLength:
		if v, ok := intValue(c.Value); ok {
			s.MinLength = &v
		}
	case schema.ConstraintMaxLength:
		if v, ok := intValue(c.Value); ok {
			s.MaxLength = &v
		}
	case schema.ConstraintMinItems:
		if v, ok := intValue(c.Value); ok {
			s.MinItems = &v
		}
	case schema.ConstraintMin:
		if v, ok := floatValue(c.Value); ok {
			s.Minimum = &v
		}
	case schema.ConstraintPositive:
		zero := 0.0
		s.Minimum = &zero
		s.Exclusive = true
	case schema.ConstraintURL:
		s.Format = "uri"
	}
}

func queryParameters(qs schema.Schema) []Parameter {
	params := make([]Parameter, 0, len(qs.Fields))
	for _, f := range qs.Fields {
		ps := fieldSchema(f, true)
		if f.Sentinel != "" && len(ps.Enum) > 0 {
			ps.Enum = append(ps.Enum, f.Sentinel)
		}
		desc := f.Description
		if f.Sentinel != "" {
			desc = strings.TrimSpace(desc + fmt.Sprintf(" %q disables this filter.", f.Sentinel))
		}
		params = append(params, Parameter{
			Name:        f.Name,
			In:          "query",
			Description: desc,
			Required:    f.Required,
			Schema:      ps,
		})
	}
	return params
}

func idParameter() Parameter {
	return Parameter{
		Name:     "id",
		In:       "path",
		Required: true,
		Schema:   &Schema{Type: "string"},
	}
}

func errorSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"error": {
				Type: "object",
				Properties: map[string]*Schema{
					"code":    {Type: "string"},
					"message": {Type: "string"},
					"details": {
						Type: "array",
						Items: &Schema{
							Type: "object",
							Properties: map[string]*Schema{
								"path":    {Type: "string"},
								"message": {Type: "string"},
							},
						},
					},
				},
				Required: []string{"code", "message"},
			},
		},
	}
}

func jsonBody(s *Schema) *RequestBody {
	return &RequestBody{
		Required: true,
		Content:  map[string]MediaType{"application/json": {Schema: s}},
	}
}

func jsonResponse(desc string, s *Schema) Response {
	return Response{
		Description: desc,
		Content:     map[string]MediaType{"application/json": {Schema: s}},
	}
}

func errorResponse(desc string) Response {
	return jsonResponse(desc, ref("Error"))
}

func ref(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// TypeName converts an entity name to a component name: grocery_list
// becomes GroceryList.
func TypeName(entity string) string {
	var b strings.Builder
	for _, part := range strings.Split(entity, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func humanize(entity string) string {
	return strings.ReplaceAll(entity, "_", " ")
}

func humanPlural(ent schema.Entity) string {
	return strings.ReplaceAll(ent.CollectionPath(), "-", " ")
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ToJSON renders the document with indentation.
func (spec *Spec) ToJSON() ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ToJSONCompact renders the document without indentation.
func (spec *Spec) ToJSONCompact() ([]byte, error) {
	return json.Marshal(spec)
}
