package agents

import (
	"context"
	"errors"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"
	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/pipeline"
)

// Replies sent when a request cannot be served.
const (
	ErrorReply     = "Sorry, I encountered an error processing your request."
	NoImageReply   = "Please attach a purchase order image (PNG, JPEG or PDF) so I can extract its details."
	NoSummaryReply = "Please send a purchase order summary as JSON, for example " +
		`{"poNumber":"ENG-PO-1","grandTotal":4200,"supplierName":"Tech Hardware LLC","buyerDepartment":"Engineering"}.`
)

// IntakeExecutor extracts a summary from the first image in a message.
type IntakeExecutor struct {
	extractor intake.Extractor
	log       zerolog.Logger
}

// NewIntakeExecutor creates an IntakeExecutor.
func NewIntakeExecutor(extractor intake.Extractor, log zerolog.Logger) *IntakeExecutor {
	return &IntakeExecutor{extractor: extractor, log: log.With().Str("agent", IntakeAgentName).Logger()}
}

// Execute implements a2asrv.AgentExecutor.
func (e *IntakeExecutor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	return queue.Write(ctx, reply(reqCtx, e.Handle(ctx, reqCtx.Message)))
}

// Cancel implements a2asrv.AgentExecutor.
func (e *IntakeExecutor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	return cancel(ctx, reqCtx, queue)
}

// Handle returns the reply parts for one incoming message.
func (e *IntakeExecutor) Handle(ctx context.Context, msg *a2a.Message) []a2a.Part {
	doc, err := DocumentFromMessage(msg)
	if errors.Is(err, ErrNoDocument) {
		e.log.Warn().Msg("Message without image")
		return []a2a.Part{a2a.TextPart{Text: NoImageReply}}
	}
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to read attachment")
		return []a2a.Part{a2a.TextPart{Text: ErrorReply}}
	}

	log := e.log.With().Str("document", doc.Name).Str("mime_type", doc.MIMEType).Logger()
	log.Info().Int("bytes", len(doc.Data)).Msg("Extracting purchase order")

	extraction, err := e.extractor.Extract(ctx, doc)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		return []a2a.Part{a2a.TextPart{Text: ErrorReply}}
	}

	parts, err := jsonParts(extraction.Summary)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode summary")
		return []a2a.Part{a2a.TextPart{Text: ErrorReply}}
	}
	log.Info().Str("po_number", extraction.Summary.PONumber).Msg("Purchase order extracted")
	return parts
}

// ProcessingExecutor applies the approval rules to a summary.
type ProcessingExecutor struct {
	deps pipeline.Deps
	log  zerolog.Logger
}

// NewProcessingExecutor creates a ProcessingExecutor. recorder may be nil.
func NewProcessingExecutor(rules *config.Rules, recorder pipeline.DecisionRecorder, log zerolog.Logger) *ProcessingExecutor {
	log = log.With().Str("agent", ProcessingAgentName).Logger()
	return &ProcessingExecutor{
		deps: pipeline.Deps{Rules: rules, Recorder: recorder, Log: log},
		log:  log,
	}
}

// Execute implements a2asrv.AgentExecutor.
func (e *ProcessingExecutor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	return queue.Write(ctx, reply(reqCtx, e.Handle(ctx, reqCtx.Message)))
}

// Cancel implements a2asrv.AgentExecutor.
func (e *ProcessingExecutor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	return cancel(ctx, reqCtx, queue)
}

// Handle returns the reply parts for one incoming message.
func (e *ProcessingExecutor) Handle(ctx context.Context, msg *a2a.Message) []a2a.Part {
	summary, err := SummaryFromMessage(msg)
	if err != nil {
		e.log.Warn().Msg("Message without summary")
		return []a2a.Part{a2a.TextPart{Text: NoSummaryReply}}
	}

	source := "a2a"
	if msg.ContextID != "" {
		source += ":" + msg.ContextID
	}

	report, err := pipeline.EvaluateSummary(ctx, e.deps, source, summary)
	if err != nil {
		e.log.Error().Err(err).Str("po_number", summary.PONumber).Msg("Evaluation failed")
		return []a2a.Part{a2a.TextPart{Text: ErrorReply}}
	}

	parts, err := jsonParts(report.Approval)
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to encode approval")
		return []a2a.Part{a2a.TextPart{Text: ErrorReply}}
	}
	return parts
}

func reply(reqCtx *a2asrv.RequestContext, parts []a2a.Part) *a2a.Message {
	msg := a2a.NewMessage(a2a.MessageRoleAgent, parts...)
	msg.ContextID = reqCtx.ContextID
	return msg
}

func cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	event.Final = true
	return queue.Write(ctx, event)
}

var (
	_ a2asrv.AgentExecutor = (*IntakeExecutor)(nil)
	_ a2asrv.AgentExecutor = (*ProcessingExecutor)(nil)
)
