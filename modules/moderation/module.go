package moderation

import (
	"github.com/brightacademy/backoffice/migrations"
	catalogservices "github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/modules/moderation/infrastructure/persistence"
	"github.com/brightacademy/backoffice/modules/moderation/presentation/controllers"
	"github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

// Register expects the catalog module to be registered first.
func (m *Module) Register(app application.Application) error {
	// The schema is a single baseline shared by catalog and moderation.
	app.Migrations().RegisterSchema(migrations.FS)

	catalog := app.Service(catalogservices.CatalogService{}).(*catalogservices.CatalogService)
	requests := persistence.NewChangeRequestRepository()

	notifications := services.NewNotificationService(persistence.NewNotificationRepository())
	app.EventPublisher().Subscribe(notifications.OnChangeRequestDecided)

	app.RegisterServices(
		services.NewIntakeService(requests, catalog),
		services.NewDecisionService(requests, catalog.Repo(), app.EventPublisher()),
		services.NewPendingGate(catalog, requests),
		notifications,
	)

	app.RegisterControllers(
		controllers.NewCatalogAPIController(app),
		controllers.NewChangeRequestAPIController(app),
		controllers.NewNotificationAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "moderation"
}
