// Package builtin registers the full built-in step handler set.
package builtin

import (
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/registry"
	"github.com/webpilot-io/webpilot/pkg/steps/ai"
	"github.com/webpilot-io/webpilot/pkg/steps/browser"
	"github.com/webpilot-io/webpilot/pkg/steps/chat"
	"github.com/webpilot-io/webpilot/pkg/steps/exec"
	"github.com/webpilot-io/webpilot/pkg/steps/httpcall"
	"github.com/webpilot-io/webpilot/pkg/steps/microblog"
	"github.com/webpilot-io/webpilot/pkg/steps/vars"
)

// Register adds every built-in step factory to the registry.
func Register(r *registry.Registry) {
	factories := make([]protocol.StepFactory, 0, 32)
	factories = append(factories, browser.Factories()...)
	factories = append(factories, vars.Factories()...)
	factories = append(factories, chat.Factories()...)
	factories = append(factories, microblog.Factories()...)
	factories = append(factories, httpcall.Factory(), exec.Factory(), ai.Factory())

	for _, f := range factories {
		r.Register(f)
	}
}
