package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDetector(t *testing.T) {
	okBefore := testutil.ToFloat64(DefaultMetrics.DetectorResults.WithLabelValues("keyword"))
	failBefore := testutil.ToFloat64(DefaultMetrics.DetectorFailures.WithLabelValues("keyword"))

	RecordDetector("keyword", 3, false, 5*time.Millisecond)
	RecordDetector("keyword", 0, true, 5*time.Millisecond)

	assert.Equal(t, okBefore+3, testutil.ToFloat64(DefaultMetrics.DetectorResults.WithLabelValues("keyword")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(DefaultMetrics.DetectorFailures.WithLabelValues("keyword")))
}

func TestRecordAICall(t *testing.T) {
	okBefore := testutil.ToFloat64(DefaultMetrics.AIScoringCalls.WithLabelValues("score", "ok"))
	errBefore := testutil.ToFloat64(DefaultMetrics.AIScoringCalls.WithLabelValues("score", "error"))

	RecordAICall("score", nil)
	RecordAICall("score", errors.New("timeout"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(DefaultMetrics.AIScoringCalls.WithLabelValues("score", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DefaultMetrics.AIScoringCalls.WithLabelValues("score", "error")))
}

func TestRecordIngest(t *testing.T) {
	ingestedBefore := testutil.ToFloat64(DefaultMetrics.TokensIngested)
	prunedBefore := testutil.ToFloat64(DefaultMetrics.HistoryPruned)

	RecordIngest(7, 2, time.Now())

	assert.Equal(t, ingestedBefore+7, testutil.ToFloat64(DefaultMetrics.TokensIngested))
	assert.Equal(t, prunedBefore+2, testutil.ToFloat64(DefaultMetrics.HistoryPruned))
}

func TestRecordPoll(t *testing.T) {
	okBefore := testutil.ToFloat64(DefaultMetrics.PollsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(DefaultMetrics.PollsTotal.WithLabelValues("error"))

	RecordPoll(true)
	RecordPoll(false)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(DefaultMetrics.PollsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DefaultMetrics.PollsTotal.WithLabelValues("error")))
	assert.Greater(t, testutil.ToFloat64(DefaultMetrics.LastSuccessfulPoll), 0.0)
}

func TestGaugeHelpers(t *testing.T) {
	RecordBoard(4, 2, 1, 3)
	assert.Equal(t, 4.0, testutil.ToFloat64(DefaultMetrics.BoardSize.WithLabelValues("live")))
	assert.Equal(t, 3.0, testutil.ToFloat64(DefaultMetrics.BoardSize.WithLabelValues("legend")))

	RecordClusters(5, 17)
	assert.Equal(t, 5.0, testutil.ToFloat64(DefaultMetrics.ClustersVisible))
	assert.Equal(t, 17.0, testutil.ToFloat64(DefaultMetrics.ClusterMembers))

	RecordPositioning(6)
	assert.Equal(t, 6.0, testutil.ToFloat64(DefaultMetrics.PositioningSize))
}

func TestRecordParentResolution(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ParentResolutions.WithLabelValues("resolved"))
	RecordParentResolution("resolved")
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ParentResolutions.WithLabelValues("resolved")))
}

func TestRecordNovelCluster(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.NovelClusters)
	RecordNovelCluster()
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.NovelClusters))
}
