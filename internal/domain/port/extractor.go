package port

import (
	"context"

	"github.com/fiapx/frameflow/internal/domain/entity"
)

type PreviewExtractor interface {
	GeneratePreviews(ctx context.Context, videoPath string, cadenceSeconds int) (*entity.PreviewBatch, error)
}
