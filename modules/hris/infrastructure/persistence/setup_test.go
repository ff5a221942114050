package persistence_test

import (
	"testing"

	"github.com/villagepulse/villagepulse/modules"
	"github.com/villagepulse/villagepulse/pkg/itf"
)

func setupTest(t *testing.T) *itf.TestEnvironment {
	t.Helper()
	return itf.NewTestContext().WithModules(modules.BuiltInModules...).Build(t)
}
