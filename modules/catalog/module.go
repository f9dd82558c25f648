package catalog

import (
	"github.com/brightacademy/backoffice/modules/catalog/infrastructure/persistence"
	"github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewCatalogService(persistence.NewRecordRepository()),
	)
	return nil
}

func (m *Module) Name() string {
	return "catalog"
}
