package children

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// The transformer is the pure layer between raw form input and the wire
// payload: no network, no storage, deterministic for a fixed clock. Form
// data arrives as loosely shaped maps, the way the edit forms produce it,
// and leaves in the canonical shape the backend expects.

const listDelimiter = ","

var dateFields = []string{"date_of_birth", "admission_date"}

var sanitizedStringFields = []string{
	"first_name",
	"middle_name",
	"last_name",
	"lga",
	"school_name",
	"ambition",
	"guardian_name",
	"case_notes",
}

// NormalizeAllergies accepts a delimited string, a bare string, a list or
// nothing, and always yields a list. Splitting is substring based: a string
// without a comma is never split, whatever other separators it contains.
func NormalizeAllergies(input interface{}) []string {
	switch v := input.(type) {
	case nil:
		return []string{}
	case string:
		return splitDelimited(v)
	case []string:
		return v
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, element := range v {
			if s, ok := element.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return []string{}
	}
}

// NormalizeMedicalConditions yields a list of structured records whatever
// the input shape: delimited string, bare string, list of strings, list of
// structured records, a single structured record, or nothing. Bare strings
// are wrapped with the given time as the diagnosed date; this is a known
// simplification, the original diagnosis date is not recoverable from a
// free text condition name.
func NormalizeMedicalConditions(input interface{}, now time.Time) []MedicalCondition {
	wrap := func(condition string) MedicalCondition {
		return MedicalCondition{
			Condition:        condition,
			DiagnosedDate:    now.UTC().Format(time.RFC3339),
			CurrentTreatment: "",
			Notes:            "",
		}
	}

	switch v := input.(type) {
	case nil:
		return []MedicalCondition{}
	case string:
		conditions := splitDelimited(v)
		normalized := make([]MedicalCondition, 0, len(conditions))
		for _, condition := range conditions {
			normalized = append(normalized, wrap(condition))
		}
		return normalized
	case []string:
		normalized := make([]MedicalCondition, 0, len(v))
		for _, condition := range v {
			normalized = append(normalized, wrap(condition))
		}
		return normalized
	case MedicalCondition:
		return []MedicalCondition{v}
	case []MedicalCondition:
		return v
	case map[string]interface{}:
		if condition, ok := decodeCondition(v, wrap); ok {
			return []MedicalCondition{condition}
		}
		return []MedicalCondition{}
	case []interface{}:
		normalized := make([]MedicalCondition, 0, len(v))
		for _, element := range v {
			switch e := element.(type) {
			case string:
				if strings.TrimSpace(e) == "" {
					continue
				}
				normalized = append(normalized, wrap(e))
			case map[string]interface{}:
				if condition, ok := decodeCondition(e, wrap); ok {
					normalized = append(normalized, condition)
				}
			case MedicalCondition:
				normalized = append(normalized, e)
			}
		}
		return normalized
	default:
		return []MedicalCondition{}
	}
}

// decodeCondition maps a loosely shaped record onto the canonical one. A
// record that cannot be decoded as a whole still keeps its condition name,
// wrapped like a bare string, so malformed sub-fields never drop the entry.
func decodeCondition(raw map[string]interface{}, wrap func(string) MedicalCondition) (MedicalCondition, bool) {
	condition := MedicalCondition{}
	if err := decodeLoose(raw, &condition); err == nil {
		return condition, true
	}
	if name, ok := raw["condition"].(string); ok && strings.TrimSpace(name) != "" {
		return wrap(name), true
	}
	return MedicalCondition{}, false
}

// NormalizeDate parses any reasonable date representation into an ISO-8601
// string. Absent or unparseable input yields the empty string, which the
// write path treats as explicit absence; an invalid date string never
// propagates past this function.
func NormalizeDate(input interface{}) string {
	s, ok := input.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// SanitizeStrings trims each named field in place, when present and a string.
func SanitizeStrings(record map[string]interface{}, fields []string) {
	for _, field := range fields {
		if value, ok := record[field].(string); ok {
			record[field] = strings.TrimSpace(value)
		}
	}
}

// StripEmpty returns a copy without empty-string and nil values. Zero and
// false survive, only genuinely absent values are dropped so the backend
// never receives an empty field.
func StripEmpty(record map[string]interface{}) map[string]interface{} {
	stripped := make(map[string]interface{}, len(record))
	for key, value := range record {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		stripped[key] = value
	}
	return stripped
}

// TransformForWrite composes the normalization steps into the payload sent
// on create and update. The input map is never aliased and the composition
// is idempotent: feeding the output back in yields the same payload.
func TransformForWrite(form map[string]interface{}) (map[string]interface{}, error) {
	data, err := deepCopy(form)
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy form data")
	}

	data["allergies"] = NormalizeAllergies(data["allergies"])
	data["medical_conditions"] = NormalizeMedicalConditions(data["medical_conditions"], time.Now())

	for _, field := range dateFields {
		if value, ok := data[field]; ok {
			if iso := NormalizeDate(value); iso != "" {
				data[field] = iso
			} else {
				delete(data, field)
			}
		}
	}

	SanitizeStrings(data, sanitizedStringFields)

	return StripEmpty(data), nil
}

func splitDelimited(value string) []string {
	if !strings.Contains(value, listDelimiter) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return []string{}
		}
		return []string{trimmed}
	}

	segments := strings.Split(value, listDelimiter)
	list := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		list = append(list, trimmed)
	}
	return list
}

// deepCopy goes through json so the caller's nested maps and slices are
// never shared with the payload under construction.
func deepCopy(form map[string]interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// decodeLoose maps loosely shaped json values onto a typed result, matching
// fields by their wire names.
func decodeLoose(input, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
