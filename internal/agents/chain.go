package agents

import (
	"context"
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/a2aproject/a2a-go/a2aclient/agentcard"
	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// Chain sends a document to the intake agent and forwards the extracted
// summary to the processing agent.
type Chain struct {
	IntakeURL     string
	ProcessingURL string
	Log           zerolog.Logger
}

// ChainResult holds what both agents returned.
type ChainResult struct {
	Summary    purchaseorder.Summary        `json:"summary"`
	Approval   purchaseorder.ApprovalResult `json:"approval"`
	IntakeText string                       `json:"intakeText,omitempty"`
}

// Run executes the chain for doc.
func (c *Chain) Run(ctx context.Context, doc intake.Document) (*ChainResult, error) {
	c.Log.Info().Str("document", doc.Name).Str("agent_url", c.IntakeURL).Msg("Sending document to intake agent")

	intakeReply, err := Send(ctx, c.IntakeURL, a2a.NewMessage(a2a.MessageRoleUser,
		a2a.TextPart{Text: "Extract the purchase order details from this image."},
		filePart(doc),
	))
	if err != nil {
		return nil, fmt.Errorf("Chain.Run: intake: %w", err)
	}

	summary, err := SummaryFromMessage(&a2a.Message{Parts: intakeReply})
	if err != nil {
		return nil, fmt.Errorf("Chain.Run: intake replied %q: %w", TextOf(intakeReply), err)
	}

	forward, err := jsonParts(summary)
	if err != nil {
		return nil, fmt.Errorf("Chain.Run: encode summary: %w", err)
	}

	c.Log.Info().Str("po_number", summary.PONumber).Str("agent_url", c.ProcessingURL).Msg("Forwarding summary to processing agent")

	processingReply, err := Send(ctx, c.ProcessingURL, a2a.NewMessage(a2a.MessageRoleUser, forward...))
	if err != nil {
		return nil, fmt.Errorf("Chain.Run: processing: %w", err)
	}

	approval, err := ApprovalFromParts(processingReply)
	if err != nil {
		return nil, fmt.Errorf("Chain.Run: processing replied %q: %w", TextOf(processingReply), err)
	}

	return &ChainResult{
		Summary:    summary,
		Approval:   approval,
		IntakeText: TextOf(intakeReply),
	}, nil
}

// Send resolves the agent card at baseURL, sends msg and returns the parts
// of the reply.
func Send(ctx context.Context, baseURL string, msg *a2a.Message) ([]a2a.Part, error) {
	card, err := agentcard.DefaultResolver.Resolve(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent card: %w", err)
	}

	client, err := a2aclient.NewFromCard(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("failed to create a2a client: %w", err)
	}
	defer client.Destroy()

	result, err := client.SendMessage(ctx, &a2a.MessageSendParams{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("failed to send message to %s: %w", card.Name, err)
	}
	return ResultParts(result), nil
}

// ResultParts flattens a send result into parts. For tasks the artifacts
// come first, then the status message, then agent messages in the history.
func ResultParts(result a2a.SendMessageResult) []a2a.Part {
	switch r := result.(type) {
	case *a2a.Message:
		return r.Parts
	case *a2a.Task:
		var parts []a2a.Part
		for _, artifact := range r.Artifacts {
			parts = append(parts, artifact.Parts...)
		}
		if r.Status.Message != nil {
			parts = append(parts, r.Status.Message.Parts...)
		}
		if len(parts) == 0 {
			for _, m := range r.History {
				if m.Role == a2a.MessageRoleAgent {
					parts = append(parts, m.Parts...)
				}
			}
		}
		return parts
	}
	return nil
}
