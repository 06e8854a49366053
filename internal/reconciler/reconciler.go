package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"fleet-console/internal/models"
)

// ConnectionState describes the push subscription's lifecycle.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateConnected    ConnectionState = "CONNECTED"
)

// ErrNotFound is returned by Acknowledge when the alert id is not in the
// active set.
var ErrNotFound = errors.New("alert not in active set")

// Source is the REST side of the SOS backend.
type Source interface {
	FetchAllAlerts(ctx context.Context) ([]models.Alert, error)
	FetchActiveAlerts(ctx context.Context) ([]models.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
	SendAlert(ctx context.Context, submission models.AlertSubmission) (models.Alert, error)
}

// Subscription is the push side. The transport behind it is swappable;
// the reconciler only sees decoded message bytes and state transitions.
type Subscription interface {
	Subscribe(onMessage func([]byte), onState func(ConnectionState)) error
	Close() error
}

// Notifier receives each distinct new alert exactly once. Implementations
// fan the alert out to dashboard clients.
type Notifier interface {
	NotifyAlert(alert models.Alert)
}

// Archiver persists observed alerts. Archive failures never affect
// reconciliation; they are logged and dropped.
type Archiver interface {
	SaveAlert(alert models.Alert) error
	MarkResolved(alertID string) error
}

// Reconciler merges the backend's alert snapshots with the live push stream
// into one consistent local view: a full history (newest first) and the set
// of unacknowledged alerts keyed by id.
type Reconciler struct {
	source   Source
	sub      Subscription
	notifier Notifier
	archiver Archiver

	mu       sync.RWMutex
	history  []models.Alert
	active   map[string]models.Alert
	acked    map[string]struct{}
	notified map[string]struct{}
	state    ConnectionState
}

// New creates a reconciler. notifier and archiver may be nil.
func New(source Source, sub Subscription, notifier Notifier, archiver Archiver) *Reconciler {
	return &Reconciler{
		source:   source,
		sub:      sub,
		notifier: notifier,
		archiver: archiver,
		active:   make(map[string]models.Alert),
		acked:    make(map[string]struct{}),
		notified: make(map[string]struct{}),
		state:    StateDisconnected,
	}
}

// Initialize pulls the history and active snapshots in parallel, then opens
// the push subscription. Either fetch may fail independently; a failed fetch
// contributes an empty result and the subscription is attempted regardless.
func (r *Reconciler) Initialize(ctx context.Context) error {
	all, active := r.fetchSnapshots(ctx)

	if ctx.Err() != nil {
		// Torn down mid-fetch; discard results and skip the subscription.
		return ctx.Err()
	}

	r.mu.Lock()
	r.applySnapshots(all, active, true, true)
	r.mu.Unlock()

	if r.sub != nil {
		if err := r.sub.Subscribe(r.HandlePush, r.setConnectionState); err != nil {
			// The subscription retries internally; a synchronous error here
			// means it could not even start.
			return fmt.Errorf("open push subscription: %w", err)
		}
	}

	return nil
}

// Refresh re-pulls both snapshots. The backend is authoritative: a
// successful fetch replaces the corresponding local collection.
func (r *Reconciler) Refresh(ctx context.Context) error {
	all, allErr := r.source.FetchAllAlerts(ctx)
	active, activeErr := r.source.FetchActiveAlerts(ctx)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	r.applySnapshots(all, active, allErr == nil, activeErr == nil)
	if activeErr == nil {
		// Server confirmed the active set; locally tracked acknowledgments
		// are no longer needed to suppress stale pushes.
		r.acked = make(map[string]struct{})
	}
	r.mu.Unlock()

	if allErr != nil {
		return fmt.Errorf("refresh alert history: %w", allErr)
	}
	if activeErr != nil {
		return fmt.Errorf("refresh active alerts: %w", activeErr)
	}
	return nil
}

// fetchSnapshots issues both snapshot fetches concurrently, absorbing
// failures into empty results.
func (r *Reconciler) fetchSnapshots(ctx context.Context) (all, active []models.Alert) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		alerts, err := r.source.FetchAllAlerts(ctx)
		if err != nil {
			log.Printf("Fetching alert history failed: %v", err)
			return
		}
		all = alerts
	}()

	go func() {
		defer wg.Done()
		alerts, err := r.source.FetchActiveAlerts(ctx)
		if err != nil {
			log.Printf("Fetching active alerts failed: %v", err)
			return
		}
		active = alerts
	}()

	wg.Wait()
	return all, active
}

// applySnapshots installs fetched collections. Call with r.mu held.
// Snapshot-known ids are marked notified so a later push re-delivering an
// alert that was already on the board stays silent.
func (r *Reconciler) applySnapshots(all, active []models.Alert, replaceHistory, replaceActive bool) {
	if replaceHistory {
		r.history = make([]models.Alert, len(all))
		copy(r.history, all)
	}
	if replaceActive {
		r.active = make(map[string]models.Alert, len(active))
		for _, alert := range active {
			r.active[alert.ID] = alert
		}
	}

	// history must contain every active alert
	known := make(map[string]int, len(r.history))
	for i, alert := range r.history {
		known[alert.ID] = i
	}
	for id, alert := range r.active {
		if _, ok := known[id]; !ok {
			r.history = append([]models.Alert{alert}, r.history...)
		}
	}

	for _, alert := range r.history {
		r.notified[alert.ID] = struct{}{}
	}
}

// HandlePush merges one raw push message into the local state. Malformed
// payloads are logged and dropped; the reconciler never stops on bad input.
func (r *Reconciler) HandlePush(raw []byte) {
	alert, err := models.DecodeAlert(raw)
	if err != nil {
		log.Printf("Dropping unparseable push message: %v", err)
		return
	}

	r.mu.Lock()

	_, wasAcked := r.acked[alert.ID]
	if wasAcked {
		// Acknowledge wins the race with a late push for the same id: the
		// alert stays out of the active set and keeps its resolved status.
		alert.Status = models.AlertStatusResolved
		alert.Acknowledged = true
	} else {
		r.active[alert.ID] = alert
	}

	if idx := r.historyIndex(alert.ID); idx >= 0 {
		// Update in place; re-delivery must not reorder history.
		r.history[idx] = alert
	} else {
		r.history = append([]models.Alert{alert}, r.history...)
	}

	_, seen := r.notified[alert.ID]
	r.notified[alert.ID] = struct{}{}
	r.mu.Unlock()

	if !seen && !wasAcked && r.notifier != nil {
		r.notifier.NotifyAlert(alert)
	}

	if r.archiver != nil {
		if err := r.archiver.SaveAlert(alert); err != nil {
			log.Printf("Archiving alert %s failed: %v", alert.ID, err)
		}
	}
}

// Acknowledge marks an active alert resolved. The backend call comes first;
// nothing is removed locally until it succeeds, so a failed call never makes
// an alert silently vanish. On success the active removal and the history
// status flip happen atomically under one lock.
func (r *Reconciler) Acknowledge(ctx context.Context, alertID string) error {
	r.mu.RLock()
	_, ok := r.active[alertID]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := r.source.AcknowledgeAlert(ctx, alertID); err != nil {
		return fmt.Errorf("acknowledge alert %s: %w", alertID, err)
	}

	r.mu.Lock()
	delete(r.active, alertID)
	r.acked[alertID] = struct{}{}
	if idx := r.historyIndex(alertID); idx >= 0 {
		r.history[idx].Status = models.AlertStatusResolved
		r.history[idx].Acknowledged = true
	}
	r.mu.Unlock()

	if r.archiver != nil {
		if err := r.archiver.MarkResolved(alertID); err != nil {
			log.Printf("Archiving acknowledgment of %s failed: %v", alertID, err)
		}
	}

	return nil
}

// SendTestAlert submits an alert through the backend. The created record
// enters local state via the push channel or the next refresh, not here.
func (r *Reconciler) SendTestAlert(ctx context.Context, submission models.AlertSubmission) (models.Alert, error) {
	return r.source.SendAlert(ctx, submission)
}

// History returns a copy of the full alert history, newest first.
func (r *Reconciler) History() []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Alert, len(r.history))
	copy(out, r.history)
	return out
}

// Active returns the unacknowledged alerts, newest first.
func (r *Reconciler) Active() []models.Alert {
	r.mu.RLock()
	out := make([]models.Alert, 0, len(r.active))
	for _, alert := range r.active {
		out = append(out, alert)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ActiveCount returns the size of the active set.
func (r *Reconciler) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// ConnectionState reports the push subscription state.
func (r *Reconciler) ConnectionState() ConnectionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Close tears down the push subscription and stops reconnect attempts.
func (r *Reconciler) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Close()
}

func (r *Reconciler) setConnectionState(state ConnectionState) {
	r.mu.Lock()
	prev := r.state
	r.state = state
	r.mu.Unlock()

	if prev != state {
		log.Printf("SOS push subscription: %s -> %s", prev, state)
	}
}

// historyIndex finds an alert's position in history. Call with r.mu held.
func (r *Reconciler) historyIndex(alertID string) int {
	for i, alert := range r.history {
		if alert.ID == alertID {
			return i
		}
	}
	return -1
}
