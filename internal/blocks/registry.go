package blocks

import (
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry is the closed set of block types known to the CMS. It is immutable
// once constructed and safe for concurrent use.
type Registry struct {
	entries map[string]*registryEntry
	order   []string
}

type registryEntry struct {
	shape    Shape
	rule     validation.Rule
	defaults map[string]any
	document map[string]any
	compiled *jsonschema.Schema
}

// NewRegistry validates and indexes the provided shapes. Construction fails if
// a shape is malformed, registered twice, or has defaults that would not pass
// its own validation.
func NewRegistry(shapes ...Shape) (*Registry, error) {
	r := &Registry{entries: make(map[string]*registryEntry, len(shapes))}
	for _, shape := range shapes {
		if err := r.add(shape); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRegistry panics when NewRegistry fails.
func MustNewRegistry(shapes ...Shape) *Registry {
	r, err := NewRegistry(shapes...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns a registry holding the built-in lodge block types.
func DefaultRegistry() *Registry {
	return MustNewRegistry(BuiltinShapes()...)
}

func (r *Registry) add(shape Shape) error {
	name := strings.TrimSpace(shape.Type)
	if name == "" {
		return fmt.Errorf("%w: type name required", ErrInvalidShape)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBlockType, name)
	}
	shape.Type = name
	if err := checkFields(shape.Fields, name); err != nil {
		return err
	}

	entry := &registryEntry{
		shape:    shape,
		rule:     objectRule(shape.Fields),
		defaults: buildDefaults(shape.Fields),
	}
	if err := validation.Validate(ClonePayload(entry.defaults), entry.rule); err != nil {
		return fmt.Errorf("%w: %s defaults do not validate: %v", ErrInvalidShape, name, err)
	}

	document := shapeDocument(shape)
	compiled, err := compileDocument(name, document)
	if err != nil {
		return fmt.Errorf("%w: %s json schema: %v", ErrInvalidShape, name, err)
	}
	entry.document = document
	entry.compiled = compiled

	r.entries[name] = entry
	r.order = append(r.order, name)
	return nil
}

func checkFields(fields []Field, path string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		where := path + "." + field.Name
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("%w: %s has a field without a name", ErrInvalidShape, path)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("%w: %s declared twice", ErrInvalidShape, where)
		}
		seen[field.Name] = struct{}{}
		switch field.Kind {
		case KindText, KindRichText, KindNumber, KindBoolean, KindMedia:
		case KindEnum:
			if len(field.Options) == 0 {
				return fmt.Errorf("%w: %s enum without options", ErrInvalidShape, where)
			}
		case KindObject, KindArray:
			if len(field.Fields) == 0 {
				return fmt.Errorf("%w: %s has no nested fields", ErrInvalidShape, where)
			}
			if err := checkFields(field.Fields, where); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidShape, where, field.Kind)
		}
		if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
			return fmt.Errorf("%w: %s min exceeds max", ErrInvalidShape, where)
		}
	}
	return nil
}

// buildDefaults collects declared defaults. Objects without an explicit
// default inherit the defaults of their members.
func buildDefaults(fields []Field) map[string]any {
	out := map[string]any{}
	for _, field := range fields {
		if field.Default != nil {
			out[field.Name] = cloneValue(field.Default)
			continue
		}
		if field.Kind == KindObject {
			if nested := buildDefaults(field.Fields); len(nested) > 0 {
				out[field.Name] = nested
			}
		}
	}
	return out
}

func (r *Registry) lookup(blockType string) (*registryEntry, error) {
	if r == nil {
		return nil, &UnknownBlockTypeError{Type: blockType}
	}
	entry, ok := r.entries[strings.TrimSpace(blockType)]
	if !ok {
		return nil, &UnknownBlockTypeError{Type: blockType}
	}
	return entry, nil
}

// SchemaFor returns the shape registered for blockType.
func (r *Registry) SchemaFor(blockType string) (Shape, error) {
	entry, err := r.lookup(blockType)
	if err != nil {
		return Shape{}, err
	}
	return entry.shape, nil
}

// DefaultsFor returns a fresh copy of the default payload for blockType.
func (r *Registry) DefaultsFor(blockType string) (map[string]any, error) {
	entry, err := r.lookup(blockType)
	if err != nil {
		return nil, err
	}
	return ClonePayload(entry.defaults), nil
}

// Validate checks payload against the shape of blockType and returns a copy of
// the accepted payload. Every violation is reported in a FieldValidationError.
func (r *Registry) Validate(blockType string, payload map[string]any) (map[string]any, error) {
	entry, err := r.lookup(blockType)
	if err != nil {
		return nil, err
	}
	candidate := ClonePayload(payload)
	if candidate == nil {
		candidate = map[string]any{}
	}
	if err := validation.Validate(candidate, entry.rule); err != nil {
		return nil, &FieldValidationError{BlockType: entry.shape.Type, Fields: fieldErrors(err)}
	}
	return candidate, nil
}

// Conforms reports whether payload satisfies the JSON schema export of the
// current shape. Used to flag published snapshots that predate a shape change.
func (r *Registry) Conforms(blockType string, payload map[string]any) error {
	entry, err := r.lookup(blockType)
	if err != nil {
		return err
	}
	doc, err := jsonRoundTrip(payload)
	if err != nil {
		return err
	}
	return entry.compiled.Validate(doc)
}

// JSONSchema returns a copy of the JSON schema document describing blockType.
func (r *Registry) JSONSchema(blockType string) (map[string]any, error) {
	entry, err := r.lookup(blockType)
	if err != nil {
		return nil, err
	}
	return ClonePayload(entry.document), nil
}

// Has reports whether blockType is registered.
func (r *Registry) Has(blockType string) bool {
	_, err := r.lookup(blockType)
	return err == nil
}

// Types lists registered type names in registration order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Shapes lists registered shapes sorted by type name.
func (r *Registry) Shapes() []Shape {
	if r == nil {
		return nil
	}
	out := make([]Shape, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.shape)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
