package courier

// Params holds request parameters keyed by field name. Values may be scalars
// or slices; slices are encoded as repeated "key[]" fields.
type Params map[string]any

// Headers holds request headers keyed by header name.
type Headers map[string]string

// Descriptor describes one API call: where to send it, which method to use,
// and what parameters and headers to attach. Callers construct a descriptor,
// optionally merge additional parameters into it, and hand it to a Dispatcher.
// A descriptor must not be mutated after the call is issued.
type Descriptor struct {
	Host    string
	Path    string
	Method  string
	Query   Params
	Body    Params // nil means no request body; non-nil takes precedence over Query
	Headers Headers
}

// NewDescriptor creates a descriptor with empty query parameters and headers.
func NewDescriptor(method, host, path string) *Descriptor {
	return &Descriptor{
		Host:    host,
		Path:    path,
		Method:  method,
		Query:   Params{},
		Headers: Headers{},
	}
}

// URL returns the composed request URL. The host and path are concatenated
// as-is: duplicate slashes are not normalized, and no well-formedness check
// is performed. Malformed URLs surface as transport failures.
func (d *Descriptor) URL() string {
	return d.Host + d.Path
}

// HasBody reports whether body parameters are present. An empty-but-non-nil
// Body still counts as a body.
func (d *Descriptor) HasBody() bool {
	return d.Body != nil
}

// EffectiveParams returns the parameter set that will be encoded: the body
// parameters when present, otherwise the query parameters.
func (d *Descriptor) EffectiveParams() Params {
	if d.HasBody() {
		return d.Body
	}
	return d.Query
}

// MergeQuery merges params into the query parameters, overwriting existing
// keys of the same name.
func (d *Descriptor) MergeQuery(params Params) {
	if d.Query == nil {
		d.Query = Params{}
	}
	for k, v := range params {
		d.Query[k] = v
	}
}

// MergeBody merges params into the body parameters, initializing the body
// map if previously absent. Once a body exists, query parameters are ignored
// for encoding purposes.
func (d *Descriptor) MergeBody(params Params) {
	if d.Body == nil {
		d.Body = Params{}
	}
	for k, v := range params {
		d.Body[k] = v
	}
}

// MergeHeaders merges headers, overwriting existing keys of the same name.
func (d *Descriptor) MergeHeaders(headers Headers) {
	if d.Headers == nil {
		d.Headers = Headers{}
	}
	for k, v := range headers {
		d.Headers[k] = v
	}
}
