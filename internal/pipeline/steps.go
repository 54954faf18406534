package pipeline

import (
	"context"
	"errors"
	"fmt"

	infra "github.com/dvloznov/po-agents/internal/infra/bigquery"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/logger"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// ErrMissingInput is returned when a step runs before the state it needs
// has been filled in.
var ErrMissingInput = errors.New("pipeline state missing input")

// PipelineStep represents a single step in the order pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Source     string
	Document   *intake.Document
	Extraction *intake.Extraction
	Summary    *purchaseorder.Summary
	Findings   []purchaseorder.Finding
	Result     *purchaseorder.ApprovalResult
	Decision   *infra.DecisionRow
}

// Step 1: LoadDocumentStep reads the source document.
type LoadDocumentStep struct {
	Loader DocumentLoader
}

func (s *LoadDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	doc, err := s.Loader.Load(ctx, state.Source)
	if err != nil {
		return fmt.Errorf("LoadDocumentStep: %w", err)
	}
	state.Document = &doc
	return nil
}

// Step 2: ExtractSummaryStep sends the document to the extractor.
type ExtractSummaryStep struct {
	Extractor intake.Extractor
}

func (s *ExtractSummaryStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Document == nil {
		return fmt.Errorf("ExtractSummaryStep: document: %w", ErrMissingInput)
	}
	extraction, err := s.Extractor.Extract(ctx, *state.Document)
	if err != nil {
		return fmt.Errorf("ExtractSummaryStep: %w", err)
	}
	state.Extraction = extraction
	state.Summary = &extraction.Summary
	return nil
}

// Step 3: AuditSummaryStep runs the advisory checks. Findings are logged and
// never fail the pipeline.
type AuditSummaryStep struct {
	Options purchaseorder.AuditOptions
}

func (s *AuditSummaryStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Summary == nil {
		return fmt.Errorf("AuditSummaryStep: summary: %w", ErrMissingInput)
	}
	state.Findings = purchaseorder.Audit(*state.Summary, s.Options)

	log := logger.FromContext(ctx)
	for _, f := range state.Findings {
		if f.Status == purchaseorder.FindingOK {
			continue
		}
		log.Warn().
			Str("po_number", state.Summary.PONumber).
			Str("check", f.Check).
			Str("status", string(f.Status)).
			Msg(f.Message)
	}
	return nil
}

// Step 4: EvaluateApprovalStep applies the approval rules.
type EvaluateApprovalStep struct {
	Rules purchaseorder.RuleConfig
}

func (s *EvaluateApprovalStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Summary == nil {
		return fmt.Errorf("EvaluateApprovalStep: summary: %w", ErrMissingInput)
	}
	log := logger.FromContext(ctx)
	if err := s.Rules.Validate(); err != nil {
		log.Warn().Err(err).Msg("Approval rules are misconfigured; affected rules cannot pass")
	}

	result := purchaseorder.Evaluate(state.Summary.ApprovalInput(), s.Rules)
	state.Result = &result

	log.Info().
		Str("po_number", result.PONumber).
		Bool("approved", result.IsApproved).
		Str("reason", result.ApprovalReason).
		Msg("Evaluated purchase order")
	return nil
}

// Step 5: RecordDecisionStep writes the decision to the ledger. A nil
// Recorder disables recording.
type RecordDecisionStep struct {
	Recorder DecisionRecorder
}

func (s *RecordDecisionStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Recorder == nil {
		return nil
	}
	if state.Summary == nil || state.Result == nil {
		return fmt.Errorf("RecordDecisionStep: decision: %w", ErrMissingInput)
	}
	row := infra.NewDecisionRow(state.Source, *state.Summary, *state.Result)
	if err := s.Recorder.InsertDecision(ctx, row); err != nil {
		return fmt.Errorf("RecordDecisionStep: %w", err)
	}
	state.Decision = row
	return nil
}
