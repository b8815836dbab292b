//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/charger"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/domain/session"
	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/config"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

// In-memory doubles for the unit-of-work surface. They run each "transaction"
// directly against shared maps; good enough to exercise the command logic
// without a database.

type idemKey struct {
	key, user uuid.UUID
}

type fakeJob struct {
	kind  string
	topic string
}

type fakeStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
	chargers map[uuid.UUID]*charger.Charger
	sessions map[uuid.UUID]*session.Session
	idem     map[idemKey]*shared.IdempotencyRecord
	jobs     []fakeJob

	failBookingCreate error
	failIdemDelete    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings: make(map[uuid.UUID]*booking.Booking),
		chargers: make(map[uuid.UUID]*charger.Charger),
		sessions: make(map[uuid.UUID]*session.Session),
		idem:     make(map[idemKey]*shared.IdempotencyRecord),
	}
}

func (s *fakeStore) putCharger(c *charger.Charger) { s.chargers[c.ID()] = c }

func (s *fakeStore) jobTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	topics := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		topics[i] = j.topic
	}
	return topics
}

func notFound(what string) error {
	return infra.WrapRepoErr(what+" not found", nil, infra.KindNotFound)
}

// --- UnitOfWork ---

type fakeUoW struct {
	store *fakeStore
}

func newFakeUoW(store *fakeStore) *fakeUoW { return &fakeUoW{store: store} }

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn(ctx, &fakeTx{store: u.store})
}

func (u *fakeUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) CommandReads() shared.CommandReads {
	return &fakeReads{store: u.store, locked: false}
}

// --- Tx ---

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Bookings() shared.BookingRepository           { return &fakeBookingRepo{t.store} }
func (t *fakeTx) Chargers() shared.ChargerRepository           { return &fakeChargerRepo{t.store} }
func (t *fakeTx) Sessions() shared.SessionRepository           { return &fakeSessionRepo{t.store} }
func (t *fakeTx) Idempotency() shared.IdempotencyRepository    { return &fakeIdemRepo{t.store} }
func (t *fakeTx) Notifications() shared.NotificationRepository { return &fakeNotificationRepo{t.store} }
func (t *fakeTx) Reads() shared.CommandReads                   { return &fakeReads{store: t.store, locked: true} }
func (t *fakeTx) DB() db.DBTX                                  { return nil }

// --- repositories ---

type fakeBookingRepo struct{ store *fakeStore }

func (r *fakeBookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	if r.store.failBookingCreate != nil {
		return r.store.failBookingCreate
	}
	r.store.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) FindByIDForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return b, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.store.bookings[b.ID()] = b
	return nil
}

type fakeChargerRepo struct{ store *fakeStore }

func (r *fakeChargerRepo) Create(_ context.Context, _ db.DBTX, c *charger.Charger, _ time.Time) error {
	r.store.chargers[c.ID()] = c
	return nil
}

func (r *fakeChargerRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*charger.Charger, error) {
	c, ok := r.store.chargers[id]
	if !ok {
		return nil, notFound("charger")
	}
	return c, nil
}

func (r *fakeChargerRepo) SetActive(_ context.Context, _ db.DBTX, id uuid.UUID, active bool, _ time.Time) error {
	c, ok := r.store.chargers[id]
	if !ok {
		return notFound("charger")
	}
	r.store.chargers[id] = charger.ReconstructCharger(
		c.ID(), c.HostID(), c.Title(), c.Latitude(), c.Longitude(),
		c.Connector(), c.MaxPowerKw(), active, c.AutoAccept(), c.Rule(),
		c.CreatedAt(), c.UpdatedAt(),
	)
	return nil
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(_ context.Context, _ db.DBTX, s *session.Session) error {
	r.store.sessions[s.ID()] = s
	return nil
}

func (r *fakeSessionRepo) FindOpenByBookingIDForUpdate(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*session.Session, error) {
	for _, s := range r.store.sessions {
		if s.BookingID() == bookingID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, notFound("session")
}

func (r *fakeSessionRepo) Update(_ context.Context, _ db.DBTX, s *session.Session) error {
	r.store.sessions[s.ID()] = s
	return nil
}

type fakeIdemRepo struct{ store *fakeStore }

func (r *fakeIdemRepo) TryInsert(_ context.Context, _ db.DBTX, key, userID uuid.UUID, _, requestHash string, expiresAt time.Time) (int64, error) {
	k := idemKey{key: key, user: userID}
	if _, exists := r.store.idem[k]; exists {
		return 0, nil
	}
	r.store.idem[k] = &shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      "processing",
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return 1, nil
}

func (r *fakeIdemRepo) UpdateStatusCompleted(_ context.Context, _ db.DBTX, key, userID uuid.UUID, _ string, resultBookingID uuid.UUID) error {
	rec, ok := r.store.idem[idemKey{key: key, user: userID}]
	if !ok {
		return notFound("idempotency key")
	}
	rec.Status = "completed"
	id := resultBookingID
	rec.ResultBookingID = &id
	return nil
}

func (r *fakeIdemRepo) Delete(_ context.Context, _ db.DBTX, key, userID uuid.UUID) error {
	if r.store.failIdemDelete != nil {
		return r.store.failIdemDelete
	}
	delete(r.store.idem, idemKey{key: key, user: userID})
	return nil
}

func (r *fakeIdemRepo) ClaimExpired(_ context.Context, _ db.DBTX, key, userID uuid.UUID, requestHash string, expiresAt time.Time) (int64, error) {
	rec, ok := r.store.idem[idemKey{key: key, user: userID}]
	if !ok {
		return 0, nil
	}
	rec.Status = "processing"
	rec.RequestHash = requestHash
	rec.ResultBookingID = nil
	rec.ExpiresAt = expiresAt
	return 1, nil
}

type fakeNotificationRepo struct{ store *fakeStore }

func (r *fakeNotificationRepo) CreateJob(_ context.Context, _ db.DBTX, kind, topic string, _ []byte, _ time.Time) error {
	r.store.jobs = append(r.store.jobs, fakeJob{kind: kind, topic: topic})
	return nil
}

// --- CommandReads ---

type fakeReads struct {
	store  *fakeStore
	locked bool // true when called inside a fake transaction
}

func (r *fakeReads) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *fakeReads) IdempotencyByKey(_ context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	defer r.lock()()
	rec, ok := r.store.idem[idemKey{key: key, user: userID}]
	if !ok {
		return nil, notFound("idempotency key")
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeReads) BookingByID(_ context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	defer r.lock()()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return &shared.BookingSnapshot{
		ID:        b.ID(),
		ChargerID: b.ChargerID(),
		RenterID:  b.RenterID(),
		Status:    string(b.Status()),
		StartTime: b.Slot().Start(),
		EndTime:   b.Slot().End(),
	}, nil
}

func (r *fakeReads) ChargerByID(_ context.Context, id uuid.UUID) (*shared.ChargerSnapshot, error) {
	defer r.lock()()
	c, ok := r.store.chargers[id]
	if !ok {
		return nil, notFound("charger")
	}
	return &shared.ChargerSnapshot{
		ID:         c.ID(),
		HostID:     c.HostID(),
		Title:      c.Title(),
		Latitude:   c.Latitude(),
		Longitude:  c.Longitude(),
		Connector:  string(c.Connector()),
		MaxPowerKw: c.MaxPowerKw(),
		IsActive:   c.IsActive(),
		AutoAccept: c.AutoAccept(),
		Rule:       c.Rule(),
	}, nil
}

// --- read side ---

type fakeBookingQueries struct {
	store *fakeStore
}

func (q *fakeBookingQueries) view(id uuid.UUID) (*queries.BookingView, error) {
	b, ok := q.store.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	var hostID uuid.UUID
	var title string
	if c, ok := q.store.chargers[b.ChargerID()]; ok {
		hostID = c.HostID()
		title = c.Title()
	}
	return &queries.BookingView{
		ID:              b.ID(),
		ChargerID:       b.ChargerID(),
		ChargerTitle:    title,
		HostID:          hostID,
		RenterID:        b.RenterID(),
		StartTime:       b.Slot().Start(),
		EndTime:         b.Slot().End(),
		Status:          string(b.Status()),
		PaymentStatus:   string(b.PaymentStatus()),
		Price:           b.Price(),
		TotalCents:      b.Price().TotalCents(),
		BookingCode:     b.BookingCode(),
		ExtendedTimes:   b.ExtendedTimes(),
		OverstayMinutes: b.OverstayMinutes(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}, nil
}

func (q *fakeBookingQueries) GetByIDSystem(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	return q.view(id)
}

func (q *fakeBookingQueries) GetByID(_ context.Context, actorID uuid.UUID, id uuid.UUID) (*queries.BookingView, error) {
	v, err := q.view(id)
	if err != nil {
		return nil, err
	}
	if v.RenterID != actorID && v.HostID != actorID {
		return nil, queries.ErrBookingAccessDenied
	}
	return v, nil
}

func (q *fakeBookingQueries) ListByRenter(_ context.Context, _ uuid.UUID, _ *queries.Cursor, _ int) ([]*queries.BookingListItem, *queries.Cursor, error) {
	return nil, nil, nil
}

// --- sweep reads ---

type fakeSweepReads struct {
	store *fakeStore
}

func (r *fakeSweepReads) OverdueActive(_ context.Context, now time.Time) ([]shared.SweepCandidate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []shared.SweepCandidate
	for _, b := range r.store.bookings {
		if b.Status() == booking.StatusActive && !b.Slot().End().After(now) {
			out = append(out, shared.SweepCandidate{BookingID: b.ID(), ChargerID: b.ChargerID(), EndTime: b.Slot().End()})
		}
	}
	return out, nil
}

func (r *fakeSweepReads) StalePending(_ context.Context, cutoff time.Time) ([]shared.SweepCandidate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []shared.SweepCandidate
	for _, b := range r.store.bookings {
		if b.Status() == booking.StatusPending && b.CreatedAt().Before(cutoff) {
			out = append(out, shared.SweepCandidate{BookingID: b.ID(), ChargerID: b.ChargerID(), EndTime: b.Slot().End()})
		}
	}
	return out, nil
}

func (r *fakeSweepReads) NoShows(_ context.Context, now time.Time, grace time.Duration) ([]shared.SweepCandidate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []shared.SweepCandidate
	for _, b := range r.store.bookings {
		if b.Status() == booking.StatusConfirmed && now.After(b.Slot().Start().Add(grace)) {
			out = append(out, shared.SweepCandidate{BookingID: b.ID(), ChargerID: b.ChargerID(), EndTime: b.Slot().End()})
		}
	}
	return out, nil
}

func (r *fakeSweepReads) ActiveClaims(_ context.Context) ([]shared.ClaimRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []shared.ClaimRecord
	for _, b := range r.store.bookings {
		if b.Status().HoldsClaim() {
			out = append(out, shared.ClaimRecord{
				ChargerID: b.ChargerID(),
				BookingID: b.ID(),
				StartTime: b.Slot().Start(),
				EndTime:   b.Slot().End(),
			})
		}
	}
	return out, nil
}

// --- payment gateway ---

type fakeGateway struct {
	captures []int64
	refunds  []int64
	err      error
}

func (g *fakeGateway) RequestCapture(_ context.Context, _ uuid.UUID, amountCents int64) error {
	if g.err != nil {
		return g.err
	}
	g.captures = append(g.captures, amountCents)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, _ uuid.UUID, amountCents int64) error {
	if g.err != nil {
		return g.err
	}
	g.refunds = append(g.refunds, amountCents)
	return nil
}

// --- wired-up test environment ---

type env struct {
	store   *fakeStore
	index   *interval.Index
	clock   *clock.MockClock
	gateway *fakeGateway

	bookings commands.BookingCommands
	sessions commands.SessionCommands
	payments commands.PaymentCommands
	sweep    commands.SweepCommands
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PlatformFeeBasisPoints: 1500,
		EfficiencyPerMille:     800,
		ClockSkewTolerance:     2 * time.Minute,
		StartGracePeriod:       15 * time.Minute,
		NoShowGracePeriod:      30 * time.Minute,
		HostResponseWindow:     2 * time.Hour,
		SweepInterval:          time.Minute,
		ExtensionStep:          30 * time.Minute,
		IdempotencyTTL:         24 * time.Hour,
	}
}

func newEnv(now time.Time) *env {
	store := newFakeStore()
	uow := newFakeUoW(store)
	idx := interval.NewIndex()
	clk := clock.NewMockClock(now)
	engine := testEngineConfig()
	calc := pricing.NewCalculator(engine.PlatformFeeBasisPoints, engine.EfficiencyPerMille)
	factory := booking.NewFactory(clk, calc, booking.Policy{ClockSkewTolerance: engine.ClockSkewTolerance})
	bq := &fakeBookingQueries{store: store}
	gw := &fakeGateway{}

	return &env{
		store:    store,
		index:    idx,
		clock:    clk,
		gateway:  gw,
		bookings: commands.NewBookingUseCase(uow, idx, factory, gw, bq, clk, engine),
		sessions: commands.NewSessionUseCase(uow, idx, calc, bq, clk, engine),
		payments: commands.NewPaymentUseCase(uow, idx, clk),
		sweep:    commands.NewSweepUseCase(uow, &fakeSweepReads{store: store}, idx, calc, clk, engine),
	}
}
