package children

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// The backend has answered with three envelope dialects over time:
//
//	{status, results, pagination: {total}, data: {children: [...]}}
//	{children: [...], total}
//	[...]
//
// and the single record equivalents. Unwrapping tries the dialects in one
// fixed order, nested first, bare last, instead of probing properties at
// every call site.

var ErrUnrecognizedEnvelope = errors.New("unrecognized response envelope")

func unwrapChildList(raw json.RawMessage) (ChildList, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChildList{}, errors.Wrap(err, "failed to decode json response")
	}

	switch envelope := decoded.(type) {
	case []interface{}:
		items, err := decodeChildren(envelope)
		if err != nil {
			return ChildList{}, err
		}
		return ChildList{Items: items, Total: len(items)}, nil

	case map[string]interface{}:
		for _, candidate := range listCandidates(envelope) {
			items, err := decodeChildren(candidate)
			if err != nil {
				return ChildList{}, err
			}
			return ChildList{Items: items, Total: findTotal(envelope, len(items))}, nil
		}
	}

	return ChildList{}, ErrUnrecognizedEnvelope
}

func listCandidates(envelope map[string]interface{}) [][]interface{} {
	candidates := [][]interface{}{}

	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if nested, ok := data["children"].([]interface{}); ok {
			candidates = append(candidates, nested)
		}
	}
	if flat, ok := envelope["children"].([]interface{}); ok {
		candidates = append(candidates, flat)
	}
	return candidates
}

func unwrapChild(raw json.RawMessage) (ChildTransport, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to decode json response")
	}

	envelope, ok := decoded.(map[string]interface{})
	if !ok {
		return ChildTransport{}, ErrUnrecognizedEnvelope
	}

	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if nested, ok := data["child"].(map[string]interface{}); ok {
			return decodeChild(nested)
		}
	}
	if flat, ok := envelope["child"].(map[string]interface{}); ok {
		return decodeChild(flat)
	}
	return decodeChild(envelope)
}

func unwrapStats(raw json.RawMessage) (ChildStats, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChildStats{}, errors.Wrap(err, "failed to decode json response")
	}

	envelope, ok := decoded.(map[string]interface{})
	if !ok {
		return ChildStats{}, ErrUnrecognizedEnvelope
	}

	body := envelope
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		body = data
	}

	stats := ChildStats{}
	if err := decodeLoose(body, &stats); err != nil {
		return ChildStats{}, errors.Wrap(err, "failed to decode statistics")
	}
	return stats, nil
}

func decodeChildren(rawChildren []interface{}) ([]ChildTransport, error) {
	items := make([]ChildTransport, 0, len(rawChildren))
	for _, rawChild := range rawChildren {
		child, ok := rawChild.(map[string]interface{})
		if !ok {
			return nil, ErrUnrecognizedEnvelope
		}
		decoded, err := decodeChild(child)
		if err != nil {
			return nil, err
		}
		items = append(items, decoded)
	}
	return items, nil
}

func decodeChild(rawChild map[string]interface{}) (ChildTransport, error) {
	// older backend releases exposed the mongo style _id
	if _, ok := rawChild["id"]; !ok {
		if legacyId, ok := rawChild["_id"]; ok {
			rawChild["id"] = legacyId
		}
	}

	child := ChildTransport{}
	if err := decodeLoose(rawChild, &child); err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to decode child record")
	}
	return child, nil
}

// findTotal digs the pagination total out of wherever the dialect put it,
// falling back to the page length.
func findTotal(envelope map[string]interface{}, fallback int) int {
	if pagination, ok := envelope["pagination"].(map[string]interface{}); ok {
		if total, ok := asInt(pagination["total"]); ok {
			return total
		}
	}
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if pagination, ok := data["pagination"].(map[string]interface{}); ok {
			if total, ok := asInt(pagination["total"]); ok {
				return total
			}
		}
	}
	if total, ok := asInt(envelope["total"]); ok {
		return total
	}
	if total, ok := asInt(envelope["results"]); ok {
		return total
	}
	return fallback
}

func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
