package refetch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"
)

// Decoder turns a completed response into a payload value.
// Three resolutions exist, in priority order: an explicit DecodeFunc
// override, a TypeMap keyed by content type or type category, and the
// built-in DefaultDecoder table. A configuration selects exactly one.
type Decoder interface {
	// Decode produces the payload for resp. An empty or absent body
	// decodes to nil without error.
	Decode(resp *Response) (any, error)
}

// DecodeFunc adapts a function into a Decoder. The function receives the
// raw response and its return value is used verbatim.
type DecodeFunc func(resp *Response) (any, error)

// Decode implements Decoder.
func (f DecodeFunc) Decode(resp *Response) (any, error) {
	return f(resp)
}

// ParseFunc parses a raw body into a payload value.
type ParseFunc func(body []byte) (any, error)

// TypeMap decodes by matching the response content type against its
// entries. Keys are either full content types ("application/json", matched
// case-insensitively with parameters stripped) or type category names
// ("json", "yaml", "text", "binary") matched against the detected category
// of the response.
type TypeMap map[string]ParseFunc

// Decode implements Decoder.
func (m TypeMap) Decode(resp *Response) (any, error) {
	if resp == nil || len(resp.Body) == 0 {
		return nil, nil
	}
	ct := resp.ContentType()
	for k, parse := range m {
		if strings.EqualFold(strings.TrimSpace(k), ct) {
			return parse(resp.Body)
		}
	}
	kind := contentKind(ct, resp.Body)
	for k, parse := range m {
		if strings.EqualFold(strings.TrimSpace(k), kind.String()) {
			return parse(resp.Body)
		}
	}
	return nil, fmt.Errorf("no parser for content type %q", ct)
}

// DefaultDecoder applies the built-in content-type table: JSON types parse
// as JSON, YAML types parse via yaml, text types return the body as a
// string, and anything else is returned as raw bytes. Responses with no
// declared content type are sniffed from the body.
type DefaultDecoder struct {
	// Transform, when set, is applied to every leaf value of a decoded
	// JSON payload. Bindings use it to upgrade wire representations,
	// e.g. ISO-8601 strings to time values.
	Transform func(v any) any
}

// Decode implements Decoder.
func (d DefaultDecoder) Decode(resp *Response) (any, error) {
	if resp == nil || len(resp.Body) == 0 {
		return nil, nil
	}
	switch contentKind(resp.ContentType(), resp.Body) {
	case kindJSON:
		return d.parseJSON(resp.Body)
	case kindYAML:
		var v any
		if err := yaml.Unmarshal(resp.Body, &v); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
		return v, nil
	case kindText:
		return string(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

func (d DefaultDecoder) parseJSON(body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	if d.Transform != nil {
		v = d.transform(v)
	}
	return v, nil
}

// transform walks the decoded value depth-first, applying the hook to every
// leaf.
func (d DefaultDecoder) transform(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = d.transform(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = d.transform(e)
		}
		return t
	default:
		return d.Transform(v)
	}
}

// payloadKind is the detected category of a response body.
type payloadKind int

const (
	kindBinary payloadKind = iota
	kindJSON
	kindYAML
	kindText
)

func (k payloadKind) String() string {
	switch k {
	case kindJSON:
		return "json"
	case kindYAML:
		return "yaml"
	case kindText:
		return "text"
	default:
		return "binary"
	}
}

// contentKind classifies a declared content type, sniffing the body when
// nothing was declared.
func contentKind(ct string, body []byte) payloadKind {
	switch {
	case ct == "":
		return sniffKind(body)
	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		return kindJSON
	case ct == "application/yaml" || ct == "application/x-yaml" || strings.HasSuffix(ct, "+yaml"):
		return kindYAML
	case strings.HasPrefix(ct, "text/") || ct == "application/xml" || ct == "application/javascript":
		return kindText
	default:
		return kindBinary
	}
}

func sniffKind(body []byte) payloadKind {
	mt := mimetype.Detect(body)
	switch {
	case mt.Is("application/json"):
		return kindJSON
	case strings.HasPrefix(mt.String(), "text/"):
		return kindText
	default:
		return kindBinary
	}
}

// Ensure the decoder variants implement Decoder.
var (
	_ Decoder = DecodeFunc(nil)
	_ Decoder = TypeMap(nil)
	_ Decoder = DefaultDecoder{}
)
