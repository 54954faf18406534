package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

type stubLoader struct{ err error }

func (s stubLoader) Load(ctx context.Context, source string) (intake.Document, error) {
	return intake.NewDocument(source, "", []byte("img")), s.err
}

type stubExtractor struct{ summary purchaseorder.Summary }

func (s stubExtractor) Extract(ctx context.Context, doc intake.Document) (*intake.Extraction, error) {
	return &intake.Extraction{Summary: s.summary}, nil
}

type otherJob struct{}

func (otherJob) GetID() string        { return "x" }
func (otherJob) GetType() JobType     { return "other" }
func (otherJob) GetStatus() JobStatus { return JobStatusPending }

func handlerDeps(t *testing.T, loadErr error) pipeline.Deps {
	rules, err := config.Profile(config.ProfileCorporate)
	require.NoError(t, err)
	return pipeline.Deps{
		Loader: stubLoader{err: loadErr},
		Extractor: stubExtractor{summary: purchaseorder.Summary{
			PONumber:        "ENG-PO-3",
			GrandTotal:      decimal.NewFromInt(4200),
			SupplierName:    "Tech Hardware LLC",
			BuyerDepartment: "Engineering",
		}},
		Rules: rules,
		Log:   zerolog.New(io.Discard),
	}
}

func TestNewProcessOrderHandler(t *testing.T) {
	handler := NewProcessOrderHandler(handlerDeps(t, nil))

	job := &ProcessOrderJob{JobID: "j1", Source: "po.png"}
	require.NoError(t, handler(context.Background(), job))
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Approval.IsApproved, job.Result.Approval.ApprovalReason)
	assert.Equal(t, "ENG-PO-3", job.Result.Approval.PONumber)
}

func TestNewProcessOrderHandler_Errors(t *testing.T) {
	loadErr := errors.New("missing file")
	handler := NewProcessOrderHandler(handlerDeps(t, loadErr))

	job := &ProcessOrderJob{JobID: "j2", Source: "po.png"}
	assert.ErrorIs(t, handler(context.Background(), job), loadErr)
	assert.Nil(t, job.Result)

	assert.Error(t, handler(context.Background(), otherJob{}))
}

func TestProcessOrderJob_Job(t *testing.T) {
	var j Job = &ProcessOrderJob{JobID: "abc", Status: JobStatusRunning}
	assert.Equal(t, "abc", j.GetID())
	assert.Equal(t, JobTypeProcessOrder, j.GetType())
	assert.Equal(t, JobStatusRunning, j.GetStatus())
}
