// Package app assembles the execution core: registry, clients, persistence
// and per-run browser surfaces. The scheduler, the CLI and the host API all
// run automations through this service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/webpilot-io/webpilot/pkg/browser"
	"github.com/webpilot-io/webpilot/pkg/clients/ai"
	"github.com/webpilot-io/webpilot/pkg/clients/chat"
	"github.com/webpilot-io/webpilot/pkg/clients/httpclient"
	"github.com/webpilot-io/webpilot/pkg/clients/microblog"
	"github.com/webpilot-io/webpilot/pkg/config"
	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/persistence"
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/registry"
	"github.com/webpilot-io/webpilot/pkg/runner"
	"github.com/webpilot-io/webpilot/pkg/scope"
	"github.com/webpilot-io/webpilot/pkg/steps/builtin"
)

// ErrAutomationNotFound is returned when a run is requested for an id the
// store does not hold.
var ErrAutomationNotFound = errors.New("automation not found")

// Service executes automations with the full capability set wired in.
type Service struct {
	cfg      *config.Config
	store    persistence.Persistence
	registry *registry.Registry
	runner   *runner.Runner
	logger   *slog.Logger

	httpClient      protocol.HTTPClient
	chatClient      protocol.ChatClient
	microblogClient protocol.MicroblogClient
	aiClient        protocol.AIClient

	// The windowed browser surface is one shared resource per process;
	// only one windowed run may be in flight at a time.
	windowedMu sync.Mutex
}

func NewService(cfg *config.Config, store persistence.Persistence, logger *slog.Logger) *Service {
	reg := registry.NewRegistry(logger)
	builtin.Register(reg)

	return &Service{
		cfg:             cfg,
		store:           store,
		registry:        reg,
		runner:          runner.NewRunner(reg, logger),
		logger:          logger,
		httpClient:      httpclient.New(),
		chatClient:      chat.New(cfg.ChatBaseURL),
		microblogClient: microblog.New(cfg.MicroblogBaseURL),
		aiClient:        ai.New(cfg.AIBaseURL),
	}
}

// Registry exposes the step registry, e.g. for config validation surfaces.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Execute runs one automation with a fresh variable scope. A browser surface
// is only brought up when the graph contains DOM work; non-DOM automations
// run identically with no browser at all.
func (s *Service) Execute(ctx context.Context, automation *models.Automation, headless bool) (*runner.Result, error) {
	if err := automation.Validate(); err != nil {
		return nil, fmt.Errorf("automation %s failed validation: %w", automation.ID, err)
	}

	opts := runner.Options{
		Automation:  automation,
		Scope:       scope.New(automation.Variables),
		HTTP:        s.httpClient,
		Chat:        s.chatClient,
		Microblog:   s.microblogClient,
		AI:          s.aiClient,
		Credentials: s.store.Credentials(),
	}

	if needsBrowser(automation) {
		if headless {
			session, err := browser.NewHeadless(ctx)
			if err != nil {
				return nil, err
			}
			defer session.Close()

			opts.Browser = session
		} else {
			s.windowedMu.Lock()
			defer s.windowedMu.Unlock()

			session, err := browser.NewWindowed(ctx, s.cfg.DevtoolsURL)
			if err != nil {
				return nil, err
			}
			defer session.Close()

			opts.Browser = session
		}
	}

	return s.runner.Run(ctx, opts)
}

// RunAndLog executes an automation interactively and appends the execution
// log entry, mirroring what a scheduled firing records.
func (s *Service) RunAndLog(ctx context.Context, automationID string, headless *bool) (*models.ExecutionLogEntry, error) {
	automation, err := s.store.Automations().GetByID(ctx, automationID)
	if err != nil {
		return nil, err
	}

	if automation == nil {
		return nil, fmt.Errorf("automation %s: %w", automationID, ErrAutomationNotFound)
	}

	mode := automation.Headless
	if headless != nil {
		mode = *headless
	}

	started := time.Now().UTC()
	entry := &models.ExecutionLogEntry{AutomationID: automation.ID, Timestamp: started}

	result, err := s.Execute(ctx, automation, mode)
	if err != nil {
		entry.Error = err.Error()
		entry.DurationMS = time.Since(started).Milliseconds()
	} else {
		entry.RunID = result.RunID
		entry.Success = result.Success
		entry.Error = result.Error
		entry.DurationMS = result.Duration.Milliseconds()
		entry.StepsExecuted = result.StepsExecuted
		entry.StepsSucceeded = result.StepsSucceeded

		if !mode {
			entry.FinalVariables = result.FinalVariables
		}
	}

	if logErr := s.store.Logs().Append(ctx, entry); logErr != nil {
		s.logger.Error("failed to append execution log", "automation_id", automationID, "error", logErr)
	}

	return entry, err
}

// browserStepTypes are the step kinds that touch the controlled page.
var browserStepTypes = map[models.StepType]bool{
	models.StepTypeNavigate:         true,
	models.StepTypeClick:            true,
	models.StepTypeInput:            true,
	models.StepTypeExtractText:      true,
	models.StepTypeExtractAttribute: true,
	models.StepTypeScroll:           true,
	models.StepTypeHover:            true,
	models.StepTypeSelectOption:     true,
	models.StepTypeUploadFile:       true,
	models.StepTypeScreenshot:       true,
	models.StepTypeWaitForElement:   true,
	models.StepTypePressKey:         true,
	models.StepTypeGoBack:           true,
	models.StepTypeRefresh:          true,
}

func needsBrowser(automation *models.Automation) bool {
	for _, node := range automation.Nodes {
		switch {
		case node.IsStepNode() && browserStepTypes[node.Step.Type]:
			return true
		case node.IsConditionNode() && node.Condition.Kind == models.ConditionKindDOM:
			return true
		}
	}

	return false
}
