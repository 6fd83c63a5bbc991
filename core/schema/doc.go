/*
Package schema defines the declarative input shapes accepted by the API.

Every entity (grocery list, meal plan, memory, recipe, task, activity) is
described once in an embedded YAML definition. The definition lists the
fields accepted on create, the filters accepted on list queries, the table
that stores the entity and the columns the server fills in itself.

# Entity Definition

A minimal entity definition in YAML:

	entity: memory
	table: memories
	path: memories
	scope: coupleId
	order: [date desc, created_at desc]

	create:
	  coupleId: { type: string, required: true, label: Couple ID }
	  title:    { type: string, required: true, constraints: [{ type: max_length, value: 255 }] }
	  tags:     { type: array, codec: tags, default: [], items: { type: string } }

	query:
	  coupleId: { type: string, required: true, filter: equals }
	  type:     { type: enum, values: [photo, text], sentinel: all, filter: equals }

Field order is significant: it is the order in which the validator walks the
input and therefore the order of reported errors.

# Operations

Each entity exposes three schemas:

  - create: the fields as written
  - update: create with every top-level field optional and top-level defaults
    removed, so a partial patch never resets fields it did not mention
  - query:  flat filters; the sentinel value (usually "all") means no filter

# Field Types

  - string: text value
  - number: numeric value (float64 after normalization)
  - bool:   boolean value
  - date:   ISO-8601 datetime string or time.Time
  - enum:   one of Values
  - array:  homogeneous sequence described by Items
  - object: nested object described by Fields; free-form when Fields is empty

# Registry

Definitions are loaded once at startup into an immutable Registry:

	reg, err := schema.LoadRegistry()
	s, err := reg.Lookup("recipe", schema.OpCreate)

Looking up an unknown (entity, operation) pair returns ErrSchemaNotFound,
which indicates a programming error rather than bad client input.
*/
package schema
