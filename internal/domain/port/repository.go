package port

import (
	"context"

	"github.com/fiapx/frameflow/internal/domain/entity"
)

type JobRepository interface {
	Save(ctx context.Context, job *entity.PreviewJob) error
	FindByReference(ctx context.Context, reference string) (*entity.PreviewJob, error)
}
