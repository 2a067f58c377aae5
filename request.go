package refetch

import (
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RequestDescriptor identifies one fetch attempt: where it goes, how it is
// sent, and what it carries.
type RequestDescriptor struct {
	// Target is the request URL.
	Target string

	// Method is the HTTP method. Never empty on an issued descriptor;
	// configurations default it to GET.
	Method string

	// Body is the request body, or nil.
	Body []byte

	// Header is attached to the outgoing request.
	Header http.Header
}

// Signature is the cache identity of a request, derived from target,
// method and body. Descriptors that differ only in headers share a
// signature.
type Signature uint64

// String returns the signature as lowercase hex.
func (s Signature) String() string {
	return strconv.FormatUint(uint64(s), 16)
}

// Signature derives the cache key for this descriptor.
func (r RequestDescriptor) Signature() Signature {
	d := xxhash.New()
	_, _ = d.WriteString(r.Method)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(r.Target)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(r.Body)
	return Signature(d.Sum64())
}

// Exchange carries a request through the transport pipeline. Middleware may
// inspect or rewrite the request before the transport call and observe the
// response after it.
type Exchange struct {
	// Request is the descriptor being issued. Pipeline stages may modify
	// it before the transport call runs.
	Request RequestDescriptor

	// Response is populated by the transport terminal. Nil until the
	// call completes.
	Response *Response
}
