//go:build unit

package commands_test

import (
	"context"
	"time"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/lock"
	"mealdrop-service/internal/usecase/commands"
	"mealdrop-service/tests/common/builder"

	"github.com/google/uuid"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSubRepo struct {
	subs map[uuid.UUID]*subscription.Subscription
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: map[uuid.UUID]*subscription.Subscription{}}
}

func (r *fakeSubRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubRepo) FindByID(_ context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, infra.WrapRepoErr("subscription not found", nil, infra.KindNotFound)
	}
	return sub, nil
}

func (r *fakeSubRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	if _, ok := r.subs[sub.ID()]; !ok {
		return infra.WrapRepoErr("subscription not found", nil, infra.KindNotFound)
	}
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.CustomerID() == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubRepo) ListSnapshotIncomplete(_ context.Context, limit int) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.SnapshotState() == subscription.SnapshotIncomplete && !sub.Status().IsTerminal() {
			out = append(out, sub)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeSnapRepo struct {
	snaps map[uuid.UUID]*snapshot.Snapshot
}

func newFakeSnapRepo() *fakeSnapRepo {
	return &fakeSnapRepo{snaps: map[uuid.UUID]*snapshot.Snapshot{}}
}

func (r *fakeSnapRepo) Save(_ context.Context, snap *snapshot.Snapshot) error {
	r.snaps[snap.SubscriptionID] = snap
	return nil
}

func (r *fakeSnapRepo) FindBySubscription(_ context.Context, id uuid.UUID) (*snapshot.Snapshot, error) {
	snap, ok := r.snaps[id]
	if !ok {
		return nil, infra.WrapRepoErr("snapshot not found", nil, infra.KindNotFound)
	}
	return snap, nil
}

type fakeDelegRepo struct {
	delegs map[uuid.UUID]*delegation.Delegation
}

func newFakeDelegRepo() *fakeDelegRepo {
	return &fakeDelegRepo{delegs: map[uuid.UUID]*delegation.Delegation{}}
}

func (r *fakeDelegRepo) Save(_ context.Context, d *delegation.Delegation) error {
	r.delegs[d.SubscriptionID] = d
	return nil
}

func (r *fakeDelegRepo) FindBySubscription(_ context.Context, id uuid.UUID) (*delegation.Delegation, error) {
	d, ok := r.delegs[id]
	if !ok {
		return nil, infra.WrapRepoErr("delegation not found", nil, infra.KindNotFound)
	}
	return d, nil
}

func (r *fakeDelegRepo) FindByTimelineEntry(_ context.Context, entryID uuid.UUID) (*delegation.Delegation, error) {
	for _, d := range r.delegs {
		if _, ok := d.Entry(entryID); ok {
			return d, nil
		}
	}
	return nil, infra.WrapRepoErr("delegation not found", nil, infra.KindNotFound)
}

type fakeNotifRepo struct {
	jobs []commands.NotificationJob
	err  error
}

func (r *fakeNotifRepo) Enqueue(_ context.Context, job commands.NotificationJob) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *fakeNotifRepo) kinds() []string {
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Kind)
	}
	return out
}

// harness wires the command services against in-memory stores and the
// standard catalog fixture.
type harness struct {
	fixture  builder.CatalogFixture
	clock    *clock.MockClock
	subs     *fakeSubRepo
	snaps    *fakeSnapRepo
	delegs   *fakeDelegRepo
	notifs   *fakeNotifRepo
	subCmds  *commands.SubscriptionCommands
	delivery *commands.DeliveryCommands
}

func newHarness(now time.Time) *harness {
	h := &harness{
		fixture: builder.NewCatalogBuilder().Build(),
		clock:   clock.NewMockClock(now),
		subs:    newFakeSubRepo(),
		snaps:   newFakeSnapRepo(),
		delegs:  newFakeDelegRepo(),
		notifs:  &fakeNotifRepo{},
	}
	locks := lock.NewKeyed()
	compiler := snapshot.NewCompiler(h.fixture.Catalog, h.clock)
	h.subCmds = commands.NewSubscriptionCommands(
		fakeTx{}, h.subs, h.snaps, h.delegs, h.notifs, compiler, locks, h.clock,
	)
	h.delivery = commands.NewDeliveryCommands(
		fakeTx{}, h.subs, h.snaps, h.delegs, h.notifs, locks, h.clock,
	)
	return h
}

func (h *harness) createInput() commands.CreateSubscriptionInput {
	return commands.CreateSubscriptionInput{
		CustomerID:     uuid.New(),
		PlanID:         h.fixture.PlanID,
		StartDate:      h.clock.Now(),
		DurationWeeks:  2,
		Categories:     []string{"breakfast", "lunch"},
		DeliveryWindow: "morning",
	}
}
