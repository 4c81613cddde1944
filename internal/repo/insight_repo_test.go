package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

func sampleInsight(intent string, confidence float64) domain.GeneratedInsight {
	return domain.GeneratedInsight{
		Summary:         "a summary",
		KeyLearnings:    []string{"one", "two"},
		ConfidenceScore: confidence,
		Intent:          domain.QueryIntent{Intent: intent, RawQuery: "q"},
		GeneratedAt:     time.Now().UTC(),
	}
}

func TestCreateInsight_PersistsQueryableColumnsAndPayload(t *testing.T) {
	db := newRepoDB(t, &domain.Insight{})
	ctx := context.Background()

	row, err := CreateInsight(ctx, db, "u1", "what did I learn", sampleInsight(domain.IntentLearning, 0.75))
	if err != nil {
		t.Fatalf("CreateInsight: %v", err)
	}
	if row.ID == "" || row.Intent != domain.IntentLearning || row.Confidence != 0.75 {
		t.Fatalf("row fields: %+v", row)
	}

	got, err := GetInsight(ctx, db, row.ID, "u1")
	if err != nil {
		t.Fatalf("GetInsight: %v", err)
	}
	if got.Query != "what did I learn" {
		t.Fatalf("query = %q", got.Query)
	}
	// The structured payload survives the JSON column round trip.
	if got.Payload.Summary != "a summary" || len(got.Payload.KeyLearnings) != 2 {
		t.Fatalf("payload mismatch: %+v", got.Payload)
	}
}

func TestGetInsight_NotFoundAndWrongOwner(t *testing.T) {
	db := newRepoDB(t, &domain.Insight{})
	ctx := context.Background()

	if _, err := GetInsight(ctx, db, "missing", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	row, err := CreateInsight(ctx, db, "u1", "q", sampleInsight(domain.IntentGeneral, 0.5))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := GetInsight(ctx, db, row.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for wrong owner, got %v", err)
	}
}

func TestListInsightsPage_RecentFirstWithPaging(t *testing.T) {
	db := newRepoDB(t, &domain.Insight{})
	ctx := context.Background()

	// Seed with known CreatedAt so order is deterministic.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		row := &domain.Insight{
			ID:        fmt.Sprintf("i%d", i),
			UserID:    "u1",
			Query:     fmt.Sprintf("q%d", i),
			Intent:    domain.IntentGeneral,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := ListInsightsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListInsightsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "i4" || page[1].ID != "i3" {
		t.Fatalf("first page = %+v", page)
	}

	page, err = ListInsightsPage(ctx, db, "u1", 4, 2)
	if err != nil {
		t.Fatalf("ListInsightsPage offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != "i0" {
		t.Fatalf("last page = %+v", page)
	}

	if n, err := CountInsights(ctx, db, "u1"); err != nil || n != 5 {
		t.Fatalf("CountInsights = %d, %v", n, err)
	}
}

func TestCreateInsightFeedback_UniquePerUserAndInsight(t *testing.T) {
	db := newRepoDB(t, &domain.Insight{}, &domain.InsightFeedback{})
	ctx := context.Background()

	row, err := CreateInsight(ctx, db, "u1", "q", sampleInsight(domain.IntentGeneral, 0.5))
	if err != nil {
		t.Fatalf("seed insight: %v", err)
	}

	if err := CreateInsightFeedback(ctx, db, row.ID, "u1", 1); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	// A second rating from the same user violates the unique index.
	if err := CreateInsightFeedback(ctx, db, row.ID, "u1", -1); err == nil {
		t.Fatalf("duplicate feedback must fail")
	}
	// A different user may still rate the same insight.
	if err := CreateInsightFeedback(ctx, db, row.ID, "u2", -1); err != nil {
		t.Fatalf("second user feedback: %v", err)
	}
}
