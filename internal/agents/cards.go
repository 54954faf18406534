// Package agents exposes the intake and processing stages as A2A agents and
// provides a client that chains them.
package agents

import (
	"github.com/a2aproject/a2a-go/a2a"
)

const (
	// IntakeAgentName is the card name of the image intake agent.
	IntakeAgentName = "purchase-order-intake-agent"
	// ProcessingAgentName is the card name of the approval agent.
	ProcessingAgentName = "purchase-order-processing-agent"

	cardVersion     = "1.0.0"
	protocolVersion = "0.3.0"
)

// IntakeCard describes the intake agent served at url.
func IntakeCard(url string) *a2a.AgentCard {
	return newCard(
		IntakeAgentName,
		"Extracts structured purchase order data from an uploaded image.",
		url,
		[]string{"image/png", "image/jpeg", "application/pdf"},
		a2a.AgentSkill{
			ID:          "extract-purchase-order",
			Name:        "Extract purchase order",
			Description: "Reads a purchase order image and returns its summary as JSON.",
			Tags:        []string{"purchase-order", "intake", "extraction"},
			Examples:    []string{"Attach a PNG of a purchase order."},
		},
	)
}

// ProcessingCard describes the processing agent served at url.
func ProcessingCard(url string) *a2a.AgentCard {
	return newCard(
		ProcessingAgentName,
		"Applies the approval rules to a purchase order summary.",
		url,
		[]string{"text", "application/json"},
		a2a.AgentSkill{
			ID:          "approve-purchase-order",
			Name:        "Approve purchase order",
			Description: "Evaluates a purchase order summary and returns the approval decision as JSON.",
			Tags:        []string{"purchase-order", "approval"},
			Examples:    []string{`{"poNumber":"ENG-PO-1","grandTotal":4200,"supplierName":"Tech Hardware LLC","buyerDepartment":"Engineering"}`},
		},
	)
}

func newCard(name, description, url string, inputModes []string, skill a2a.AgentSkill) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               name,
		Description:        description,
		URL:                url,
		Version:            cardVersion,
		ProtocolVersion:    protocolVersion,
		DefaultInputModes:  inputModes,
		DefaultOutputModes: []string{"text"},
		Skills:             []a2a.AgentSkill{skill},
		Capabilities: a2a.AgentCapabilities{
			Streaming: false,
		},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
	}
}
