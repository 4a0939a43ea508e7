// Package courier lets application code declare API requests as typed value
// objects and consume typed, decoded results without repeating boilerplate for
// encoding, transport, error mapping, and cancellation.
//
// A request is described by a Descriptor (host, path, method, parameters,
// headers). A Dispatcher issues the request through a Transport and feeds the
// raw result through Classify, which resolves every call to exactly one of
// three outcomes: a decoded success value, a backend-declared error payload,
// or a transport-level failure. Callers choose between three equivalent
// calling conventions: blocking (Do), callback (DoAsync), and single-result
// stream (Stream).
//
//	desc := courier.NewDescriptor(http.MethodPost, "https://api.example.com", "/login")
//	desc.MergeBody(courier.Params{"user": "a", "pass": "b"})
//
//	dp := courier.NewDispatcher()
//	defer dp.Close()
//
//	type session struct {
//		Token string `json:"token"`
//	}
//	type apiError struct {
//		Code string `json:"code"`
//	}
//
//	sess, err := courier.Do[session, apiError](ctx, dp, courier.Fixed[session, apiError]{Desc: desc})
//	if be, ok := courier.AsBackendError[apiError](err); ok {
//		// server-authored error payload, e.g. be.Payload.Code
//	}
package courier
