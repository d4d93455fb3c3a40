// Package server exposes the codec over HTTP.
//
// Routes:
//
//	GET  /healthz               liveness probe
//	GET  /metrics               Prometheus scrape endpoint, when configured
//	POST /v1/decode             decode a buffer into JSON envelopes
//	POST /v1/encode             encode JSON envelopes into wire bytes
//	GET  /v1/captures           list stored captures
//	PUT  /v1/captures/{id}      store a capture
//	GET  /v1/captures/{id}      fetch a capture, raw or decoded
//	GET  /v1/ws                 MoQ peer over WebSocket
//
// # Decoding
//
// /v1/decode takes the buffer as the request body. With ?hex=1, or a
// text/plain body, the body is hex text and may contain whitespace. The
// kind parameter selects the grammar: control (default), data or datagram.
// The response lists the decoded envelopes, the bytes consumed and, when
// the buffer ends inside an item, the bytes still needed:
//
//	{"items": [{"type": "client_setup", "message": {...}, "consumed": 14}],
//	 "consumed": 14}
//
// Malformed input answers 422 with the same body plus an error object.
//
// # WebSocket Peer
//
// /v1/ws speaks the control stream over binary WebSocket messages. It
// answers a client setup with a server setup, then replies to each
// request as a relay with no tracks would, and reports every message it
// decodes as a text message carrying its envelope and summary. It is meant
// for exercising clients, not for carrying media.
package server
