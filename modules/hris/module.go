package hris

import (
	"embed"

	"github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/directory"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence"
	"github.com/villagepulse/villagepulse/modules/hris/presentation/controllers"
	hrisservices "github.com/villagepulse/villagepulse/modules/hris/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/clock"
	"github.com/villagepulse/villagepulse/pkg/configuration"
)

//go:embed presentation/locales/*.json
var LocaleFiles embed.FS

//go:embed infrastructure/persistence/schema/hris-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterLocaleFiles(&LocaleFiles)

	conf := configuration.Use()
	client, err := directory.NewClientFromConfig(conf, conf.Logger())
	if err != nil {
		return err
	}

	identityRepo := persistence.NewIdentityRepository()
	conflictRepo := persistence.NewConflictRepository()
	runRepo := persistence.NewSyncRunRepository()

	villageService := app.Service(services.VillageService{}).(*services.VillageService)
	clk := clock.System{}

	app.RegisterServices(
		hrisservices.NewIdentityService(identityRepo),
		hrisservices.NewConflictService(conflictRepo, identityRepo, villageService, app.EventPublisher(), clk),
		hrisservices.NewSyncService(
			runRepo,
			identityRepo,
			conflictRepo,
			villageService,
			client,
			app.EventPublisher(),
			clk,
			conf.Logger(),
		),
	)

	app.RegisterControllers(
		controllers.NewSyncController(app),
		controllers.NewConflictsController(app),
		controllers.NewIdentitiesController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "hris"
}
