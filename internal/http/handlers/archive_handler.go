// Archive HTTP handlers.
//
// This file exposes the REST endpoint for importing a chat-export archive:
//   - POST /archive/import  (upload an export payload, enrich, persist, index)
//
// Import is a batch operation with skip-and-continue semantics: malformed
// entries are counted and skipped, never failing the whole upload. The
// response reports what was imported, what was skipped, and whether the
// vector index could be rebuilt (false means the embedding backend was
// unavailable at import time).
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-insight-backend/internal/http/middleware"
	"github.com/tbourn/go-insight-backend/internal/services"
)

// maxImportBytes caps the accepted archive payload size (16 MiB). Large
// exports should be split client-side.
const maxImportBytes = 16 << 20

// ImportArchive accepts a JSON chat-export payload in the request body,
// imports it for the current user, and returns an ImportReport.
//
// Responses:
//   - 200 with the report on success (even partial success);
//   - 400 when the payload is unreadable, not valid JSON, or contains no
//     usable conversations at all;
//   - 500 when persistence fails in a way the batch rules cannot absorb.
func (h *Handlers) ImportArchive(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	payload, err := io.ReadAll(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read payload")
		return
	}
	if len(payload) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "payload required")
		return
	}

	report, err := h.archiveSvc.Import(c.Request.Context(), userID(c), payload)
	if err != nil {
		switch err {
		case services.ErrEmptyArchive:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "archive contains no conversations")
		default:
			// ingest.Parse wraps JSON syntax errors; treat them as client errors.
			if report == nil {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid archive payload")
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeImportFailed, err.Error())
		}
		return
	}

	middleware.ObserveImport(report.Imported, report.Skipped)
	ok(c, http.StatusOK, report)
}
