package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	RecordRecommendation(OutcomeNotFound, time.Millisecond)
	after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	if after != before+1 {
		t.Errorf("not_found counter = %v, want %v", after, before+1)
	}
}

func TestRecordRebuild(t *testing.T) {
	okBefore := testutil.ToFloat64(CorpusRebuildsTotal.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(CorpusRebuildsTotal.WithLabelValues("failure"))

	RecordRebuild(nil, 10*time.Millisecond)
	RecordRebuild(errors.New("boom"), 10*time.Millisecond)

	if got := testutil.ToFloat64(CorpusRebuildsTotal.WithLabelValues("success")); got != okBefore+1 {
		t.Errorf("success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(CorpusRebuildsTotal.WithLabelValues("failure")); got != failBefore+1 {
		t.Errorf("failure = %v, want %v", got, failBefore+1)
	}
}

func TestSetActiveCorpus(t *testing.T) {
	SetActiveCorpus(42, 1000)
	if got := testutil.ToFloat64(CorpusItems); got != 42 {
		t.Errorf("CorpusItems = %v, want 42", got)
	}
	if got := testutil.ToFloat64(VocabularySize); got != 1000 {
		t.Errorf("VocabularySize = %v, want 1000", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(ModelCacheHits)
	misses := testutil.ToFloat64(ModelCacheMisses)
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	if got := testutil.ToFloat64(ModelCacheHits); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(ModelCacheMisses); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}
