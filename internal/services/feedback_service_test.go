package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/repo"
)

func TestLeave_InvalidValue(t *testing.T) {
	svc := &FeedbackService{DB: newServiceDB(t)}
	for _, v := range []int{0, 2, -2, 100} {
		if err := svc.Leave(context.Background(), "u1", "any", v); !errors.Is(err, ErrInvalidFeedback) {
			t.Fatalf("Leave(value=%d) = %v; want ErrInvalidFeedback", v, err)
		}
	}
}

func TestLeave_InsightNotFoundOrForeign(t *testing.T) {
	db := newServiceDB(t)
	svc := &FeedbackService{DB: db}

	if err := svc.Leave(context.Background(), "u1", "missing", 1); !errors.Is(err, ErrInsightNotFound) {
		t.Fatalf("want ErrInsightNotFound, got %v", err)
	}

	// Another user's insight is equally invisible.
	row, err := repo.CreateInsight(context.Background(), db, "owner", "q", domain.GeneratedInsight{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.Leave(context.Background(), "intruder", row.ID, 1); !errors.Is(err, ErrInsightNotFound) {
		t.Fatalf("want ErrInsightNotFound for foreign insight, got %v", err)
	}
}

func TestLeave_SuccessThenDuplicate(t *testing.T) {
	db := newServiceDB(t)
	svc := &FeedbackService{DB: db}

	row, err := repo.CreateInsight(context.Background(), db, "u1", "q", domain.GeneratedInsight{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Leave(context.Background(), "u1", row.ID, -1); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if err := svc.Leave(context.Background(), "u1", row.ID, 1); !errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("want ErrDuplicateFeedback, got %v", err)
	}

	// A second user can still rate.
	row2, err := repo.CreateInsight(context.Background(), db, "u2", "q", domain.GeneratedInsight{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := (&FeedbackService{DB: db}).Leave(context.Background(), "u2", row2.ID, 1); err != nil {
		t.Fatalf("second user: %v", err)
	}

	var n int64
	if err := db.Model(&domain.InsightFeedback{}).Count(&n).Error; err != nil || n != 2 {
		t.Fatalf("feedback rows = %d, %v", n, err)
	}
}
