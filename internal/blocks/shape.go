package blocks

// FieldKind enumerates the value kinds a block field can hold.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindRichText FieldKind = "rich_text"
	KindEnum     FieldKind = "enum"
	KindNumber   FieldKind = "number"
	KindBoolean  FieldKind = "boolean"
	KindMedia    FieldKind = "media"
	KindObject   FieldKind = "object"
	KindArray    FieldKind = "array"
)

// Field describes one entry of a block payload.
//
// Object fields describe their members in Fields. Array fields describe the
// shape of every element in Fields; elements are always objects.
type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Required    bool
	NonEmpty    bool
	MaxLength   int
	Options     []string
	Min         *float64
	Max         *float64
	Integer     bool
	MinItems    int
	MaxItems    int
	Fields      []Field
	Default     any
	Description string
}

// Shape is the field-shape descriptor registered for a block type.
type Shape struct {
	Type        string
	Label       string
	Description string
	Fields      []Field
}

// Field looks up a top-level field by name.
func (s Shape) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldsOfKind returns the dotted paths of every field with the given kind,
// descending into objects. Array members are reported with a [] suffix on the
// array name, e.g. entries[].answer.
func (s Shape) FieldsOfKind(kind FieldKind) []string {
	var out []string
	collectKind(s.Fields, "", kind, &out)
	return out
}

func collectKind(fields []Field, prefix string, kind FieldKind, out *[]string) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		if field.Kind == kind {
			*out = append(*out, path)
		}
		switch field.Kind {
		case KindObject:
			collectKind(field.Fields, path, kind, out)
		case KindArray:
			collectKind(field.Fields, path+"[]", kind, out)
		}
	}
}

func bound(v float64) *float64 { return &v }
