package ingest

import (
	"context"
	"time"
)

func (in *Ingester) SetClock(now func() time.Time) {
	in.now = now
}

func (in *Ingester) CreateWebpagesForIngesting(ctx context.Context, website *Website, urls []string) error {
	return in.createWebpagesForIngesting(ctx, website, urls)
}
