package core

import (
	"embed"

	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence"
	"github.com/villagepulse/villagepulse/modules/core/presentation/controllers"
	"github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/pkg/application"
)

//go:embed presentation/locales/*.json
var LocaleFiles embed.FS

//go:embed infrastructure/persistence/schema/core-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterLocaleFiles(&LocaleFiles)

	villageRepo := persistence.NewVillageRepository()
	userRepo := persistence.NewUserRepository()

	app.RegisterServices(
		services.NewVillageService(villageRepo, app.EventPublisher()),
		services.NewUserService(userRepo),
	)

	app.RegisterControllers(
		controllers.NewVillagesController(app),
		controllers.NewUsersController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "core"
}
