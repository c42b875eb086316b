// Package integration holds end-to-end tests that run a full skycarbon
// Service against an embedded NATS JetStream server.
//
// Tests are guarded by the "integration" build tag:
//
//	go test -tags integration ./test/integration/...
package integration
