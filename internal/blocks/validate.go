package blocks

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	codeRequired = "blocks_field_required"
	codeType     = "blocks_field_type"
	codeBlank    = "blocks_field_blank"
	codeInteger  = "blocks_field_integer"
	codeMin      = "blocks_field_min"
	codeMax      = "blocks_field_max"
	codeItems    = "blocks_field_items"
	codeInvalid  = "blocks_field_invalid"
)

// objectRule builds the ozzo rule tree for a set of fields. Unknown keys are
// rejected by the map rule.
func objectRule(fields []Field) validation.Rule {
	keys := make([]*validation.KeyRules, 0, len(fields))
	for _, field := range fields {
		key := validation.Key(field.Name, fieldRules(field)...)
		if !field.Required {
			key = key.Optional()
		}
		keys = append(keys, key)
	}
	return validation.Map(keys...)
}

// fieldRules returns the rules for a single field. The kind check always runs
// first; ozzo stops at the first failing rule so later rules only ever see a
// value of the expected Go type (or nil for optional fields).
func fieldRules(field Field) []validation.Rule {
	rules := []validation.Rule{validation.By(kindRule(field))}

	switch field.Kind {
	case KindText, KindRichText, KindMedia:
		if field.NonEmpty {
			rules = append(rules, validation.By(notBlank))
		}
		if field.MaxLength > 0 {
			rules = append(rules, validation.RuneLength(0, field.MaxLength))
		}
	case KindEnum:
		if field.Required || field.NonEmpty {
			rules = append(rules, validation.Required)
		}
		options := make([]any, len(field.Options))
		for i, option := range field.Options {
			options[i] = option
		}
		rules = append(rules, validation.In(options...).Error("must be one of: "+strings.Join(field.Options, ", ")))
	case KindNumber:
		rules = append(rules, validation.By(numberRule(field)))
	case KindObject:
		inner := objectRule(field.Fields)
		rules = append(rules, validation.By(func(value any) error {
			if value == nil {
				return nil
			}
			return validation.Validate(value, inner)
		}))
	case KindArray:
		element := objectRule(field.Fields)
		rules = append(rules,
			validation.By(itemsRule(field)),
			validation.By(func(value any) error {
				if value == nil {
					return nil
				}
				return validation.Validate(value, validation.Each(element))
			}),
		)
	}
	return rules
}

func kindRule(field Field) validation.RuleFunc {
	return func(value any) error {
		if value == nil {
			if field.Required {
				return validation.NewError(codeRequired, "is required")
			}
			return nil
		}
		ok := false
		switch field.Kind {
		case KindText, KindRichText, KindMedia, KindEnum:
			_, ok = value.(string)
		case KindNumber:
			_, ok = toFloat(value)
		case KindBoolean:
			_, ok = value.(bool)
		case KindObject:
			_, ok = value.(map[string]any)
		case KindArray:
			_, ok = toSlice(value)
		}
		if !ok {
			return validation.NewError(codeType, fmt.Sprintf("must be a %s value", describeKind(field.Kind)))
		}
		return nil
	}
}

func notBlank(value any) error {
	text, _ := value.(string)
	if value == nil {
		return nil
	}
	if strings.IndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		return validation.NewError(codeBlank, "must not be empty")
	}
	return nil
}

func numberRule(field Field) validation.RuleFunc {
	return func(value any) error {
		number, ok := toFloat(value)
		if !ok {
			return nil
		}
		if math.IsNaN(number) || math.IsInf(number, 0) {
			return validation.NewError(codeType, "must be a finite number")
		}
		if field.Integer && number != math.Trunc(number) {
			return validation.NewError(codeInteger, "must be a whole number")
		}
		if field.Min != nil && number < *field.Min {
			return validation.NewError(codeMin, fmt.Sprintf("must be no less than %v", *field.Min))
		}
		if field.Max != nil && number > *field.Max {
			return validation.NewError(codeMax, fmt.Sprintf("must be no greater than %v", *field.Max))
		}
		return nil
	}
}

func itemsRule(field Field) validation.RuleFunc {
	return func(value any) error {
		items, ok := toSlice(value)
		if !ok {
			return nil
		}
		if field.MinItems > 0 && len(items) < field.MinItems {
			return validation.NewError(codeItems, fmt.Sprintf("must contain at least %d items", field.MinItems))
		}
		if field.MaxItems > 0 && len(items) > field.MaxItems {
			return validation.NewError(codeItems, fmt.Sprintf("must contain at most %d items", field.MaxItems))
		}
		return nil
	}
}

func describeKind(kind FieldKind) string {
	switch kind {
	case KindRichText:
		return "rich text"
	case KindMedia:
		return "media reference"
	case KindEnum:
		return "string"
	}
	return string(kind)
}

// fieldErrors flattens an ozzo error tree into sorted field errors.
func fieldErrors(err error) []FieldError {
	var out []FieldError
	flattenErrors("", err, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func flattenErrors(path string, err error, out *[]FieldError) {
	if err == nil {
		return
	}
	switch typed := err.(type) {
	case validation.Errors:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			flattenErrors(childPath(path, key), typed[key], out)
		}
	case validation.Error:
		*out = append(*out, FieldError{Path: path, Code: normaliseCode(typed.Code()), Message: typed.Error()})
	default:
		*out = append(*out, FieldError{Path: path, Code: codeInvalid, Message: err.Error()})
	}
}

func normaliseCode(code string) string {
	switch code {
	case validation.ErrKeyMissing.Code(), validation.ErrRequired.Code():
		return codeRequired
	case "":
		return codeInvalid
	}
	return code
}

func childPath(parent, key string) string {
	if isIndex(key) {
		return parent + "[" + key + "]"
	}
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func isIndex(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// jsonRoundTrip converts a payload into the generic form produced by
// encoding/json, which is what the compiled JSON schemas expect.
func jsonRoundTrip(payload map[string]any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
