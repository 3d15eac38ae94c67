package tenantctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type keyType string

const (
	TenantIDKey keyType = "tenant_id"
)

// WithTenantID returns a context carrying the resolved tenant id.
func WithTenantID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}

func TenantID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(TenantIDKey).(snowflake.ID)
	return id, ok
}
