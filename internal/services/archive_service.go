// Package services – ArchiveService
//
// This file implements ArchiveService, which owns the write side of the
// pipeline: parsing a chat-export payload, enriching the conversations,
// persisting them, and rebuilding the vector index. Import is a full
// replace-by-id operation, so re-importing the same export is idempotent.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the user identifier and batch counters.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/embedding"
	"github.com/tbourn/go-insight-backend/internal/enrich"
	"github.com/tbourn/go-insight-backend/internal/ingest"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/vector"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ImportReport summarizes an archive import: how many conversations were
// stored, how many export entries were skipped as malformed, and whether the
// vector index could be rebuilt (false means the embedding backend was
// unavailable and search runs against the previous index contents).
type ImportReport struct {
	Imported  int  `json:"imported"`
	Skipped   int  `json:"skipped"`
	Indexed   bool `json:"indexed"`
	Snapshots bool `json:"snapshot_saved"`
}

// ArchiveService coordinates import, enrichment, persistence, and indexing.
type ArchiveService struct {
	DB       *gorm.DB
	Enricher *enrich.Enricher
	Index    *vector.Index

	// SnapshotPath, when set, receives an index snapshot after each
	// successful rebuild so restarts can skip re-embedding.
	SnapshotPath string
}

// Import parses payload, enriches the conversations against the corpus,
// persists them, and rebuilds the vector index from the user's full archive.
//
// Failure semantics follow the batch rules: a malformed export entry or a
// conversation that fails to persist is skipped and counted, never aborting
// the rest. An unavailable embedding backend leaves Indexed=false in the
// report; it is not an error.
func (s *ArchiveService) Import(ctx context.Context, userID string, payload []byte) (*ImportReport, error) {
	tr := otel.Tracer("services/ArchiveService")
	ctx, span := tr.Start(ctx, "Import",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	convs, skipped, err := ingest.Parse(payload, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, ErrEmptyArchive
	}

	s.Enricher.EnrichCorpus(convs)

	report := &ImportReport{Skipped: skipped}
	for _, c := range convs {
		if err := repo.ReplaceConversation(ctx, s.DB, c); err != nil {
			report.Skipped++
			continue
		}
		report.Imported++
	}
	span.SetAttributes(
		attribute.Int("archive.imported", report.Imported),
		attribute.Int("archive.skipped", report.Skipped),
	)

	if err := s.Reindex(ctx, userID); err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			return report, nil
		}
		return report, err
	}
	report.Indexed = true

	if s.SnapshotPath != "" {
		if err := s.Index.Save(s.SnapshotPath); err == nil {
			report.Snapshots = true
		}
	}
	return report, nil
}

// Reindex rebuilds the vector index from the user's persisted archive. The
// rebuild is reset-then-add; the index swaps the new contents in atomically,
// so concurrent searches see either the old or the new corpus, never a
// half-built one.
func (s *ArchiveService) Reindex(ctx context.Context, userID string) error {
	convs, err := repo.ListConversations(ctx, s.DB, userID)
	if err != nil {
		return err
	}
	return s.Index.Rebuild(ctx, convs)
}

// Corpus loads the user's full enriched archive, the read-side input for
// search and insight generation.
func (s *ArchiveService) Corpus(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return repo.ListConversations(ctx, s.DB, userID)
}
