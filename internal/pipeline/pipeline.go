package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/logger"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps wires the collaborators of the order pipeline. Recorder may be nil.
type Deps struct {
	Loader    DocumentLoader
	Extractor intake.Extractor
	Rules     *config.Rules
	Recorder  DecisionRecorder
	Log       zerolog.Logger
}

// NewOrderPipeline creates the full five-step pipeline: load, extract, audit,
// evaluate, record.
func NewOrderPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&LoadDocumentStep{Loader: deps.Loader},
		&ExtractSummaryStep{Extractor: deps.Extractor},
		&AuditSummaryStep{Options: deps.Rules.Audit},
		&EvaluateApprovalStep{Rules: deps.Rules.Approval},
		&RecordDecisionStep{Recorder: deps.Recorder},
	)
}

// NewDecisionPipeline creates the pipeline for an already extracted summary.
func NewDecisionPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&AuditSummaryStep{Options: deps.Rules.Audit},
		&EvaluateApprovalStep{Rules: deps.Rules.Approval},
		&RecordDecisionStep{Recorder: deps.Recorder},
	)
}

// ProcessOrder runs the full pipeline for a single order document.
func ProcessOrder(ctx context.Context, deps Deps, source string) (*Report, error) {
	if deps.Rules == nil {
		return nil, fmt.Errorf("ProcessOrder: %w", config.ErrNoRules)
	}
	ctx = logger.WithContext(ctx, logger.WithOrder(deps.Log, "", source))

	state := &PipelineState{Source: source}
	if err := NewOrderPipeline(deps).Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("ProcessOrder: %w", err)
	}
	return state.Report(), nil
}

// EvaluateSummary audits, evaluates and records a summary that was
// extracted elsewhere.
func EvaluateSummary(ctx context.Context, deps Deps, source string, s purchaseorder.Summary) (*Report, error) {
	if deps.Rules == nil {
		return nil, fmt.Errorf("EvaluateSummary: %w", config.ErrNoRules)
	}
	ctx = logger.WithContext(ctx, logger.WithOrder(deps.Log, s.PONumber, source))

	state := &PipelineState{Source: source, Summary: &s}
	if err := NewDecisionPipeline(deps).Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("EvaluateSummary: %w", err)
	}
	return state.Report(), nil
}

// Report is the outcome of processing one order.
type Report struct {
	Source     string                       `json:"source,omitempty"`
	Summary    purchaseorder.Summary        `json:"summary"`
	Findings   []purchaseorder.Finding      `json:"findings"`
	Approval   purchaseorder.ApprovalResult `json:"approval"`
	DecisionID string                       `json:"decisionId,omitempty"`
}

// Report collects the pipeline outputs. Missing parts are left zero.
func (s *PipelineState) Report() *Report {
	r := &Report{Source: s.Source, Findings: s.Findings}
	if s.Summary != nil {
		r.Summary = *s.Summary
	}
	if s.Result != nil {
		r.Approval = *s.Result
	}
	if s.Decision != nil {
		r.DecisionID = s.Decision.DecisionID
	}
	if r.Findings == nil {
		r.Findings = []purchaseorder.Finding{}
	}
	return r
}
