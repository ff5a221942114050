package modules

import (
	"github.com/villagepulse/villagepulse/modules/core"
	"github.com/villagepulse/villagepulse/modules/hris"
	"github.com/villagepulse/villagepulse/pkg/application"
)

// BuiltInModules lists the modules in registration order. Core goes first:
// hris tables reference villages.
var BuiltInModules = []application.Module{
	core.NewModule(),
	hris.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
