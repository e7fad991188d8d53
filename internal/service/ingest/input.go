package ingest

import (
	"fmt"
	"time"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Sample is one raw GPS reading in a batch. The client claims the fine cell
// its coordinates fall into; the server re-derives and verifies it.
type Sample struct {
	Lat       float64
	Lng       float64
	CellIndex string
	Timestamp *time.Time
}

// BatchInput is one ingest request: an ordered list of samples plus optional
// device metadata applied once per batch.
type BatchInput struct {
	Samples []Sample
	Device  *domain.DeviceMeta
}

// Validate checks the batch shape. Per-sample content is not judged here;
// bad samples are skipped individually by the pipeline, never the whole
// batch.
func (in BatchInput) Validate(maxBatchSize int) error {
	if len(in.Samples) == 0 {
		return domain.NewValidationError("locations", "must contain at least one sample")
	}
	if len(in.Samples) > maxBatchSize {
		return domain.NewValidationError("locations",
			fmt.Sprintf("must contain at most %d samples", maxBatchSize))
	}
	return nil
}

// validSample is a sample that survived validation and dedup, carrying its
// derived coarse ancestor and, after geocoding, its resolved place.
type validSample struct {
	index      int
	lat        float64
	lng        float64
	fineCell   string
	coarseCell string
	timestamp  time.Time
	place      domain.Place
}
