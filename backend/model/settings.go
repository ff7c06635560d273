package model

import "encoding/json"

// Settings blobs are stored as opaque JSON text. Depending on which code path
// wrote them (and which driver read them back) they may come back either as a
// JSON object or as a JSON string wrapping one, so decoding is defensive.

// DecodeBlob turns a stored settings/data column into a map. Unparseable or
// empty input yields an empty map rather than an error; a blob nobody can
// read should not take the whole record down with it.
func DecodeBlob(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		return m
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
	}
	return map[string]any{}
}

// EncodeBlob is the inverse of DecodeBlob for the write path.
func EncodeBlob(m map[string]any) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MergeSettings layers maps left to right: later layers overwrite identical
// keys entirely, nested structures are not merged.
func MergeSettings(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// ApplyIconURL derives iconUrl from iconId after all merge layers have been
// applied, so no layer can set iconUrl directly.
func ApplyIconURL(merged map[string]any, appURL string) {
	if iconID, ok := merged["iconId"].(string); ok && iconID != "" {
		merged["iconUrl"] = appURL + "/v1/icon/" + iconID
	} else {
		merged["iconUrl"] = nil
	}
}

// KnownSettings are the settings fields this server itself reads. Everything
// else a client stashes in the blob rides along untouched in Extra, which
// keeps unknown fields round-tripping through updates.
type KnownSettings struct {
	IconID            string `json:"iconId,omitempty"`
	CustomIconVersion int    `json:"customIconVersion,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *KnownSettings) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["iconId"]; ok {
		if err := json.Unmarshal(raw, &s.IconID); err == nil {
			delete(fields, "iconId")
		}
	}
	if raw, ok := fields["customIconVersion"]; ok {
		if err := json.Unmarshal(raw, &s.CustomIconVersion); err == nil {
			delete(fields, "customIconVersion")
		}
	}
	s.Extra = fields
	return nil
}

func (s KnownSettings) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(s.Extra)+2)
	for k, v := range s.Extra {
		fields[k] = v
	}
	if s.IconID != "" {
		raw, err := json.Marshal(s.IconID)
		if err != nil {
			return nil, err
		}
		fields["iconId"] = raw
	}
	if s.CustomIconVersion != 0 {
		raw, err := json.Marshal(s.CustomIconVersion)
		if err != nil {
			return nil, err
		}
		fields["customIconVersion"] = raw
	}
	return json.Marshal(fields)
}

// DecodeKnownSettings reads a stored blob into the typed view. Same tolerance
// rules as DecodeBlob.
func DecodeKnownSettings(raw string) KnownSettings {
	var s KnownSettings
	if raw == "" {
		s.Extra = map[string]json.RawMessage{}
		return s
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err == nil {
			if err := json.Unmarshal([]byte(inner), &s); err == nil {
				return s
			}
		}
		s.Extra = map[string]json.RawMessage{}
	}
	return s
}
