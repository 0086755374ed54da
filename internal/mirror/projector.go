package mirror

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/splitrix/splitrix/internal/events"
	"github.com/splitrix/splitrix/internal/models"
	"github.com/splitrix/splitrix/internal/storage"
)

// Projector replays ledger change notifications into the mirror. For each
// notification it re-fetches the full current record by id from the ledger
// store and upserts it, so duplicated or reordered notifications converge on
// the same state.
type Projector struct {
	store     storage.Store
	db        *DB
	projected prometheus.Counter
}

// NewProjector creates a projector reading records from store and writing
// into db. projected, if non-nil, counts consumed notifications.
func NewProjector(store storage.Store, db *DB, projected prometheus.Counter) *Projector {
	return &Projector{store: store, db: db, projected: projected}
}

// Run consumes notifications until the channel closes or ctx is cancelled.
// Projection failures are logged and skipped; the next notification for the
// same record repairs the mirror.
func (p *Projector) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			p.handle(ctx, ev)
		}
	}
}

func (p *Projector) handle(ctx context.Context, ev events.Event) {
	if p.projected != nil {
		p.projected.Inc()
	}
	switch ev := ev.(type) {
	case events.GroupCreated:
		group, err := p.store.GetGroup(ctx, ev.GroupID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("group notification for missing record", "group_id", ev.GroupID)
				return
			}
			slog.Error("failed to fetch group for projection", "group_id", ev.GroupID, "error", err)
			return
		}
		if err := p.db.UpsertGroup(ctx, group); err != nil {
			slog.Error("failed to project group", "group_id", ev.GroupID, "error", err)
			return
		}
		slog.Debug("projected group", "group_id", ev.GroupID)

	case events.BillChanged:
		key := models.BillKey{GroupID: ev.GroupID, BillID: ev.BillID}
		bill, err := p.store.GetBill(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("bill notification for missing record", "group_id", ev.GroupID, "bill_id", ev.BillID)
				return
			}
			slog.Error("failed to fetch bill for projection", "group_id", ev.GroupID, "bill_id", ev.BillID, "error", err)
			return
		}
		if err := p.db.UpsertBill(ctx, bill); err != nil {
			slog.Error("failed to project bill", "group_id", ev.GroupID, "bill_id", ev.BillID, "error", err)
			return
		}
		slog.Debug("projected bill", "group_id", ev.GroupID, "bill_id", ev.BillID)
	}
}
