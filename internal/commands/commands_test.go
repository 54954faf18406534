package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/po-agents/internal/agents"
	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// execute runs the root command with fresh global flags.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvRulesFile, "")
	t.Setenv(config.EnvRulesProfile, "")
	t.Setenv(config.EnvGCPProject, "")
	t.Setenv(config.EnvLogLevel, "error")

	verbose, jsonOutput, rulesProfile, rulesFile = false, false, "", ""
	evaluateRecord = false
	sendIntakeURL, sendProcessingURL = "", ""
	migrateAppliedBy, migrateDryRun = "po-cli", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const approvedSummary = `{"poNumber":"ENG-PO-1","subTotal":3925.23,"tax":274.77,"grandTotal":4200,` +
	`"supplierName":"Tech Hardware LLC","buyerDepartment":"Engineering"}`

func TestEvaluate(t *testing.T) {
	path := writeFile(t, "summary.json", approvedSummary)

	tests := []struct {
		name     string
		args     []string
		contains string
		wantErr  error
	}{
		{
			name:     "corporate approves",
			args:     []string{"evaluate", path, "--profile", "corporate"},
			contains: "PO ENG-PO-1: APPROVED",
		},
		{
			name:     "departmental rejects",
			args:     []string{"evaluate", path, "--profile", "departmental"},
			contains: "Failed rules: grand_total, buyer_department",
		},
		{
			name:    "no rules",
			args:    []string{"evaluate", path},
			wantErr: config.ErrNoRules,
		},
		{
			name:    "unknown profile",
			args:    []string{"evaluate", path, "--profile", "nope"},
			wantErr: config.ErrUnknownProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestEvaluate_JSONAndRulesFile(t *testing.T) {
	summary := writeFile(t, "summary.json", approvedSummary)
	rules := writeFile(t, "rules.yaml", "max_grand_total: 5000\nallowed_departments: [Engineering]\n")

	out, err := execute(t, "evaluate", summary, "--rules-file", rules, "--json")
	require.NoError(t, err)

	var res purchaseorder.ApprovalResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsApproved, res.ApprovalReason)
	assert.Equal(t, "ENG-PO-1", res.PONumber)
}

func TestEvaluate_RecordWithoutLedger(t *testing.T) {
	path := writeFile(t, "summary.json", approvedSummary)
	_, err := execute(t, "evaluate", path, "--profile", "corporate", "--record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT")
}

func TestEvaluate_Stdin(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(approvedSummary))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "evaluate", "-", "--profile", "corporate")
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVED")
}

func TestMigrate_WithoutLedger(t *testing.T) {
	for _, name := range []string{"migrate", "init-ledger"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, name, "--dry-run")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "GCP_PROJECT")
		})
	}
}

func TestAudit(t *testing.T) {
	path := writeFile(t, "summary.json",
		`{"poNumber":"12345","subTotal":100,"tax":7,"grandTotal":110,"supplierName":"Unknown Ltd","buyerDepartment":"HR"}`)

	out, err := execute(t, "audit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[warning] po_number")
	assert.Contains(t, out, "[warning] supplier")
	assert.Contains(t, out, "Some checks need attention.")

	out, err = execute(t, "audit", path, "--json")
	require.NoError(t, err)
	var findings []purchaseorder.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	assert.Len(t, findings, 4)
}

func TestAudit_BadInput(t *testing.T) {
	path := writeFile(t, "broken.json", `{"poNumber":`)
	_, err := execute(t, "audit", path)
	assert.Error(t, err)

	_, err = execute(t, "audit", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, doc intake.Document) (*intake.Extraction, error) {
	return &intake.Extraction{Summary: purchaseorder.Summary{
		PONumber:        "MKT-PO-5",
		GrandTotal:      decimal.RequireFromString("250.00"),
		SupplierName:    "Swag Depot",
		BuyerDepartment: "Marketing",
	}}, nil
}

func agentServer(t *testing.T, card func(string) *a2a.AgentCard, exec a2asrv.AgentExecutor) string {
	t.Helper()
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	handler = agents.NewServer(card(srv.URL), exec, zerolog.New(io.Discard))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSend(t *testing.T) {
	rules, err := config.Profile(config.ProfileDepartmental)
	require.NoError(t, err)
	quiet := zerolog.New(io.Discard)

	intakeURL := agentServer(t, agents.IntakeCard, agents.NewIntakeExecutor(stubExtractor{}, quiet))
	processingURL := agentServer(t, agents.ProcessingCard, agents.NewProcessingExecutor(rules, nil, quiet))

	image := writeFile(t, "po.png", "\x89PNG fake")
	out, err := execute(t, "send", image, "--intake-url", intakeURL, "--processing-url", processingURL)
	require.NoError(t, err)
	assert.Contains(t, out, "PO number:   MKT-PO-5")
	assert.Contains(t, out, "PO MKT-PO-5: APPROVED")
}
