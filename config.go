package refetch

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// Config is the configuration snapshot supplied by the embedding binding.
// An empty Target means there is nothing to fetch: applying such a
// configuration records it but never issues an operation.
type Config struct {
	// Target is the request URL. Empty disables automatic issuing.
	Target string `json:"target" validate:"omitempty,url"`

	// Method is the HTTP method. Defaults to GET when empty.
	Method string `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`

	// Body is sent as the request body on every issue.
	Body []byte `json:"body,omitempty"`

	// Header is attached to every issued request. Headers do not
	// participate in the request signature.
	Header http.Header `json:"header,omitempty"`

	// Manual suppresses automatic issues on configuration changes; only
	// an explicit Trigger starts an operation.
	Manual bool `json:"manual"`

	// Decode overrides payload decoding. Nil selects the built-in
	// content-type table. Use a DecodeFunc for a full override or a
	// TypeMap for content-type keyed parsing.
	Decode Decoder `json:"-" validate:"-"`

	// Transform is applied to decoded JSON leaf values by the default
	// decoder. Ignored when Decode is set.
	Transform func(v any) any `json:"-" validate:"-"`

	// Reduce merges each decoded payload into the held data. Nil means
	// each payload replaces the previous one.
	Reduce Reducer `json:"-" validate:"-"`

	// Transport overrides the transport function. Nil selects
	// DefaultTransport.
	Transport Transport `json:"-" validate:"-"`
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// descriptor builds the request descriptor for this configuration.
func (c Config) descriptor() RequestDescriptor {
	method := c.Method
	if method == "" {
		method = http.MethodGet
	}
	return RequestDescriptor{
		Target: c.Target,
		Method: method,
		Body:   c.Body,
		Header: c.Header,
	}
}
