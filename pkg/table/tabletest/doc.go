// Package tabletest provides a conformance suite for table.Store backends.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    tabletest.RunConformanceSuite(t, func(t *testing.T) table.Store {
//	        s, err := badger.Open(t.TempDir())
//	        require.NoError(t, err)
//	        t.Cleanup(func() { _ = s.Close() })
//	        return s
//	    })
//	}
//
// Each test gets a fresh store from the factory. Backends that share an
// external server across tests should still return a store where the suite's
// randomly named tables do not collide.
package tabletest
