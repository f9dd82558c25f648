package modules

import (
	"github.com/brightacademy/backoffice/modules/catalog"
	"github.com/brightacademy/backoffice/modules/moderation"
	"github.com/brightacademy/backoffice/pkg/application"
)

// BuiltInModules is ordered: moderation resolves catalog services during
// registration.
var BuiltInModules = []application.Module{
	catalog.NewModule(),
	moderation.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
