package extpoint

import (
	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/runtime"
)

// RegisterCapabilities makes the application's extension points addressable
// by name in plugin manifests (`extends` / `implements` clauses).
func RegisterCapabilities(r *runtime.FactoryRegistry) {
	r.RegisterCapability("filter", capability.TypeOf[Filter]())
	r.RegisterCapability("decorator", capability.TypeOf[Decorator]())
	r.RegisterCapability("notifier", capability.TypeOf[Notifier]())
}
