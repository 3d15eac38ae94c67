package service

import (
	"context"

	auditdomain "github.com/ajyalhq/ajyal/internal/audit/domain"
	"github.com/ajyalhq/ajyal/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[auditdomain.AuditLog]
}

func NewService(p ServiceParam) auditdomain.Recorder {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[auditdomain.AuditLog](p.DB),
	}
}

// Record writes one audit row. Failures are logged and swallowed so a
// broken audit store never rolls a committed business action back in the
// caller's eyes.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) {
	row := auditdomain.AuditLog{
		ID:           s.genID.Generate(),
		TenantID:     entry.TenantID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Metadata:     datatypes.JSONMap(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("resource_type", entry.ResourceType),
			zap.Error(err),
		)
	}
}
