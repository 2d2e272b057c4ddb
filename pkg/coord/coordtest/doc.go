// Package coordtest provides a conformance suite for coord.Client backends.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    server := memory.NewServer()
//	    coordtest.RunConformanceSuite(t, func(t *testing.T) coord.Client {
//	        c := server.Connect()
//	        t.Cleanup(func() { _ = c.Close() })
//	        return c
//	    })
//	}
//
// The connect function must return a new session on the same service every
// time it is called; the suite opens several sessions to observe ephemeral
// node behaviour. Each test works below its own random root so that a shared
// external service can be reused across runs.
package coordtest
