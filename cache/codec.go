package cache

import (
	"encoding/json"
)

func marshal(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(payload)
	}
}

func unmarshal(data []byte, target any) error {
	switch v := target.(type) {
	case *[]byte:
		*v = append([]byte(nil), data...)
	case *json.RawMessage:
		*v = append(json.RawMessage(nil), data...)
	case *string:
		*v = string(data)
	default:
		return json.Unmarshal(data, target)
	}
	return nil
}
