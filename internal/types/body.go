package types

import (
	"encoding/json"
	"fmt"
)

// BodyKind identifies the RequestBody variant
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyText
	BodyJSON
	BodyFormURLEncoded
)

func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyJSON:
		return "json"
	case BodyFormURLEncoded:
		return "form"
	default:
		return "none"
	}
}

// RequestBody holds exactly one variant. Content is used by Text and Json,
// Form by FormUrlEncoded.
type RequestBody struct {
	Kind    BodyKind
	Content string
	Form    map[string]string
}

func NoBody() RequestBody { return RequestBody{Kind: BodyNone} }

func TextBody(s string) RequestBody { return RequestBody{Kind: BodyText, Content: s} }

func JSONBody(s string) RequestBody { return RequestBody{Kind: BodyJSON, Content: s} }

// FormBody copies fields into a FormUrlEncoded body
func FormBody(fields map[string]string) RequestBody {
	form := make(map[string]string, len(fields))
	for k, v := range fields {
		form[k] = v
	}
	return RequestBody{Kind: BodyFormURLEncoded, Form: form}
}

// IsEmpty reports whether there is nothing to send
func (b RequestBody) IsEmpty() bool {
	switch b.Kind {
	case BodyText, BodyJSON:
		return b.Content == ""
	case BodyFormURLEncoded:
		return len(b.Form) == 0
	default:
		return true
	}
}

func (b RequestBody) Clone() RequestBody {
	if b.Form == nil {
		return b
	}
	return FormBody(b.Form)
}

// Persisted tag names. FormUrlEncoded is written as "FormData" so older
// files stay readable in both directions.
const (
	tagNone     = "None"
	tagText     = "Text"
	tagJSON     = "Json"
	tagFormData = "FormData"
	tagFormURL  = "FormUrlEncoded"
)

func (b RequestBody) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BodyText:
		return json.Marshal(map[string]string{tagText: b.Content})
	case BodyJSON:
		return json.Marshal(map[string]string{tagJSON: b.Content})
	case BodyFormURLEncoded:
		form := b.Form
		if form == nil {
			form = map[string]string{}
		}
		return json.Marshal(map[string]map[string]string{tagFormData: form})
	default:
		return json.Marshal(tagNone)
	}
}

func (b *RequestBody) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		if unit != tagNone {
			return fmt.Errorf("unknown body variant %q", unit)
		}
		*b = NoBody()
		return nil
	}

	if string(data) == "null" {
		*b = NoBody()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("body must have exactly one variant, got %d", len(tagged))
	}

	for tag, raw := range tagged {
		switch tag {
		case tagText, tagJSON:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("failed to decode %s body: %w", tag, err)
			}
			if tag == tagText {
				*b = TextBody(s)
			} else {
				*b = JSONBody(s)
			}
		case tagFormData, tagFormURL:
			var form map[string]string
			if err := json.Unmarshal(raw, &form); err != nil {
				return fmt.Errorf("failed to decode form body: %w", err)
			}
			if form == nil {
				form = map[string]string{}
			}
			*b = RequestBody{Kind: BodyFormURLEncoded, Form: form}
		default:
			return fmt.Errorf("unknown body variant %q", tag)
		}
	}
	return nil
}
