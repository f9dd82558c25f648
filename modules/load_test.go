package modules_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/modules"
	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/eventbus"
)

// Load registers each module exactly once. A double registration would leave
// a second decision subscriber on the event bus, and every decision would then
// deliver duplicate notifications.
func TestLoad_RegistersModulesOnce(t *testing.T) {
	logger := logrus.New()
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	require.NoError(t, modules.Load(app, modules.BuiltInModules...))

	require.Equal(t, 1, app.EventPublisher().SubscribersCount())
	require.Len(t, app.Controllers(), 3)
	require.NotNil(t, app.Service(moderationservices.NotificationService{}))
}
