package courier

// Endpoint is the capability set a concrete request type implements: it
// supplies the request descriptor, and its type parameters declare the shape
// the success body decodes into (T) and the shape a backend error payload
// decodes into (E). Shared dispatch logic operates over this interface, so
// request types stay plain values.
type Endpoint[T, E any] interface {
	Descriptor() *Descriptor
}

// Fixed adapts a bare descriptor into an Endpoint for ad hoc calls.
type Fixed[T, E any] struct {
	Desc *Descriptor
}

func (f Fixed[T, E]) Descriptor() *Descriptor {
	return f.Desc
}
