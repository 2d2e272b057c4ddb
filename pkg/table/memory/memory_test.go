package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/ordo/pkg/table"
	"github.com/marmos91/ordo/pkg/table/tabletest"
)

func TestConformance(t *testing.T) {
	tabletest.RunConformanceSuite(t, func(t *testing.T) table.Store {
		return New()
	})
}

func TestShared(t *testing.T) {
	assert.Same(t, Shared(t.Name()), Shared(t.Name()))
}
