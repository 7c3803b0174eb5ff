package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const menuItemChannel = "menu_item_changed"

// MenuInvalidator drops cached menu items.
type MenuInvalidator interface {
	Invalidate(ctx context.Context, tenantID string, itemIDs ...string) error
	InvalidateAll(ctx context.Context) error
}

type menuItemChange struct {
	TenantID string `json:"tenant_id"`
	ID       string `json:"id"`
}

// WatchMenuChanges listens on the menu_item_changed channel and invalidates
// the matching cache entry for every notification until ctx is done. It
// returns an error when the channel cannot be subscribed.
func (db *PostgresDB) WatchMenuChanges(ctx context.Context, inv MenuInvalidator) error {
	listener := pq.NewListener(db.connStr, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.WithFields(log.Fields{"event": ev, "error": err}).Warn("menu listener connection event")
			}
		})

	if err := listener.Listen(menuItemChannel); err != nil {
		listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", menuItemChannel, err)
	}

	// anything cached before the subscription may already be stale
	handleMenuChange(ctx, inv, nil)

	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				handleMenuChange(ctx, inv, n)
			case <-time.After(90 * time.Second):
				go listener.Ping()
			}
		}
	}()

	log.WithField("channel", menuItemChannel).Info("watching menu changes")
	return nil
}

// handleMenuChange invalidates one item. A nil notification means the
// connection was re-established and changes may have been missed, so the
// whole menu cache is dropped.
func handleMenuChange(ctx context.Context, inv MenuInvalidator, n *pq.Notification) {
	if n == nil {
		if err := inv.InvalidateAll(ctx); err != nil {
			log.WithField("error", err).Error("failed to flush menu cache")
		}
		return
	}

	var change menuItemChange
	if err := json.Unmarshal([]byte(n.Extra), &change); err != nil || change.ID == "" {
		log.WithField("payload", n.Extra).Warn("ignoring malformed menu change")
		return
	}

	if err := inv.Invalidate(ctx, change.TenantID, change.ID); err != nil {
		log.WithFields(log.Fields{
			"tenant_id": change.TenantID,
			"item_id":   change.ID,
			"error":     err,
		}).Error("failed to invalidate menu item")
	}
}
