package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
)

// --- no-op transactional DB ---

// The services only use *sql.DB to open and close transactions; the data
// access itself goes through faked repositories. This driver hands out
// connections whose transactions commit and roll back as no-ops.

type noopDriverTx struct{}

func (noopDriverTx) Commit() error   { return nil }
func (noopDriverTx) Rollback() error { return nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (noopConn) Close() error                        { return nil }
func (noopConn) Begin() (driver.Tx, error)           { return noopDriverTx{}, nil }

type noopConnector struct{}

func (noopConnector) Connect(context.Context) (driver.Conn, error) { return noopConn{}, nil }
func (noopConnector) Driver() driver.Driver                        { return nil }

func newFakeDB() *sql.DB {
	return sql.OpenDB(noopConnector{})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- player repository ---

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo(players ...*models.Player) *fakePlayerRepo {
	r := &fakePlayerRepo{players: make(map[int]*models.Player)}
	for _, p := range players {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		} else if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.players[p.ID] = p
	}
	return r
}

func (r *fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	for _, existing := range r.players {
		if existing.Name == p.Name {
			return repositories.ErrPlayerNameConflict
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.players[p.ID] = p
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePlayerRepo) GetByName(_ context.Context, name string) (*models.Player, error) {
	for _, p := range r.players {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) List(_ context.Context) ([]*models.Player, error) {
	ids := make([]int, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		clone := *r.players[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakePlayerRepo) ListByIDs(_ context.Context, ids []int) ([]*models.Player, error) {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	out := make([]*models.Player, 0, len(sorted))
	for _, id := range sorted {
		if p, ok := r.players[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) Update(_ context.Context, p *models.Player) error {
	if _, ok := r.players[p.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	clone := *p
	r.players[p.ID] = &clone
	return nil
}

func (r *fakePlayerRepo) UpdatePhotoKey(_ context.Context, id int, key *string) error {
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.PhotoKey = key
	return nil
}

func (r *fakePlayerRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

// --- fixture repository ---

type fakeFixtureRepo struct {
	fixtures []*models.Fixture
	nextID   int
}

func (r *fakeFixtureRepo) Create(_ context.Context, _ repositories.SQLExecutor, f *models.Fixture) error {
	r.nextID++
	f.ID = r.nextID
	r.fixtures = append(r.fixtures, f)
	return nil
}

func (r *fakeFixtureRepo) GetByID(_ context.Context, id int) (*models.Fixture, error) {
	for _, f := range r.fixtures {
		if f.ID == id {
			clone := *f
			return &clone, nil
		}
	}
	return nil, repositories.ErrFixtureNotFound
}

func (r *fakeFixtureRepo) ListByTournament(_ context.Context, tournamentID int, round *int, played *bool) ([]*models.Fixture, error) {
	out := make([]*models.Fixture, 0)
	for _, f := range r.fixtures {
		if f.TournamentID != tournamentID {
			continue
		}
		if round != nil && f.Round != *round {
			continue
		}
		if played != nil && f.Played != *played {
			continue
		}
		clone := *f
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeFixtureRepo) ListByPlayer(_ context.Context, playerID int) ([]*models.Fixture, error) {
	out := make([]*models.Fixture, 0)
	for _, f := range r.fixtures {
		if f.HomeID == playerID || f.AwayID == playerID {
			clone := *f
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) UpdateSchedule(_ context.Context, _ repositories.SQLExecutor, id int, update *models.Fixture) error {
	for _, f := range r.fixtures {
		if f.ID == id {
			f.MatchDate = update.MatchDate
			f.Kickoff = update.Kickoff
			f.Venue = update.Venue
			return nil
		}
	}
	return repositories.ErrFixtureNotFound
}

func (r *fakeFixtureRepo) SetPlayed(_ context.Context, _ repositories.SQLExecutor, id int, played bool) error {
	for _, f := range r.fixtures {
		if f.ID == id {
			f.Played = played
			return nil
		}
	}
	return repositories.ErrFixtureNotFound
}

func (r *fakeFixtureRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	for i, f := range r.fixtures {
		if f.ID == id {
			r.fixtures = append(r.fixtures[:i], r.fixtures[i+1:]...)
			return nil
		}
	}
	return repositories.ErrFixtureNotFound
}

func (r *fakeFixtureRepo) DeleteByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int) error {
	kept := r.fixtures[:0]
	for _, f := range r.fixtures {
		if f.HomeID != playerID && f.AwayID != playerID {
			kept = append(kept, f)
		}
	}
	r.fixtures = kept
	return nil
}

func (r *fakeFixtureRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	kept := r.fixtures[:0]
	for _, f := range r.fixtures {
		if f.TournamentID != tournamentID {
			kept = append(kept, f)
		}
	}
	r.fixtures = kept
	return nil
}

func (r *fakeFixtureRepo) MaxRound(_ context.Context, tournamentID int) (int, error) {
	max := 0
	for _, f := range r.fixtures {
		if f.TournamentID == tournamentID && f.Round > max {
			max = f.Round
		}
	}
	return max, nil
}

// --- result repository ---

type fakeResultRepo struct {
	results []*models.Result
	nextID  int
}

func (r *fakeResultRepo) Create(_ context.Context, _ repositories.SQLExecutor, result *models.Result) error {
	for _, existing := range r.results {
		if existing.FixtureID == result.FixtureID {
			return repositories.ErrResultFixtureRecorded
		}
	}
	r.nextID++
	result.ID = r.nextID
	r.results = append(r.results, result)
	return nil
}

func (r *fakeResultRepo) GetByID(_ context.Context, id int) (*models.Result, error) {
	for _, res := range r.results {
		if res.ID == id {
			clone := *res
			return &clone, nil
		}
	}
	return nil, repositories.ErrResultNotFound
}

func (r *fakeResultRepo) GetByFixture(_ context.Context, fixtureID int) (*models.Result, error) {
	for _, res := range r.results {
		if res.FixtureID == fixtureID {
			clone := *res
			return &clone, nil
		}
	}
	return nil, repositories.ErrResultNotFound
}

func (r *fakeResultRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Result, error) {
	out := make([]*models.Result, 0)
	for _, res := range r.results {
		if res.TournamentID == tournamentID {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	for i, res := range r.results {
		if res.ID == id {
			r.results = append(r.results[:i], r.results[i+1:]...)
			return nil
		}
	}
	return repositories.ErrResultNotFound
}

func (r *fakeResultRepo) DeleteByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int) error {
	kept := r.results[:0]
	for _, res := range r.results {
		if res.HomeID != playerID && res.AwayID != playerID {
			kept = append(kept, res)
		}
	}
	r.results = kept
	return nil
}

func (r *fakeResultRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	kept := r.results[:0]
	for _, res := range r.results {
		if res.TournamentID != tournamentID {
			kept = append(kept, res)
		}
	}
	r.results = kept
	return nil
}

// --- standing repository ---

type fakeStandingRepo struct {
	rows   []*models.Standing
	nextID int
}

func (r *fakeStandingRepo) ReplaceForTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, rows []*models.Standing) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.TournamentID != tournamentID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	for _, row := range rows {
		r.nextID++
		row.ID = r.nextID
		row.TournamentID = tournamentID
		r.rows = append(r.rows, row)
	}
	return nil
}

func (r *fakeStandingRepo) ListByTournament(_ context.Context, tournamentID int, ranked bool) ([]*models.Standing, error) {
	out := make([]*models.Standing, 0)
	for _, row := range r.rows {
		if row.TournamentID == tournamentID {
			clone := *row
			out = append(out, &clone)
		}
	}
	if ranked {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Points != out[j].Points {
				return out[i].Points > out[j].Points
			}
			if out[i].GoalDifference != out[j].GoalDifference {
				return out[i].GoalDifference > out[j].GoalDifference
			}
			if out[i].GoalsFor != out[j].GoalsFor {
				return out[i].GoalsFor > out[j].GoalsFor
			}
			return out[i].PlayerID < out[j].PlayerID
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	}
	return out, nil
}

func (r *fakeStandingRepo) GetOrCreate(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) (*models.Standing, error) {
	for _, row := range r.rows {
		if row.TournamentID == tournamentID && row.PlayerID == playerID {
			clone := *row
			return &clone, nil
		}
	}
	r.nextID++
	row := &models.Standing{ID: r.nextID, TournamentID: tournamentID, PlayerID: playerID, UpdatedAt: time.Now()}
	r.rows = append(r.rows, row)
	clone := *row
	return &clone, nil
}

func (r *fakeStandingRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.TournamentID != tournamentID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeStandingRepo) DeleteByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.PlayerID != playerID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeStandingRepo) ListTournamentIDsByPlayer(_ context.Context, playerID int) ([]int, error) {
	ids := make([]int, 0)
	for _, row := range r.rows {
		if row.PlayerID == playerID {
			ids = append(ids, row.TournamentID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// --- tournament repository ---

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		if t.ID == 0 {
			r.nextID++
			t.ID = r.nextID
		} else if t.ID > r.nextID {
			r.nextID = t.ID
		}
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	for _, existing := range r.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, status *models.TournamentStatus, _, _ int) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0)
	for _, t := range r.tournaments {
		if status != nil && t.Status != *status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(_ context.Context, id int, key *string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = key
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) ListNeedingStatusUpdate(_ context.Context, _ time.Time) ([]*models.Tournament, error) {
	return r.List(context.Background(), nil, 0, 0)
}

// --- device token repository ---

type fakeTokenRepo struct {
	tokens []*models.DeviceToken
}

func (r *fakeTokenRepo) Register(_ context.Context, t *models.DeviceToken) error {
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *fakeTokenRepo) ListTokens(_ context.Context, playerID int) ([]string, error) {
	out := make([]string, 0)
	for _, t := range r.tokens {
		if t.PlayerID == playerID {
			out = append(out, t.Token)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) ListAllTokens(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t.Token)
	}
	return out, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	for i, t := range r.tokens {
		if t.Token == token {
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			return nil
		}
	}
	return repositories.ErrDeviceTokenNotFound
}

// --- payment repository ---

type fakePaymentRepo struct {
	payments map[int]*models.Payment
	nextID   int
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	if r.payments == nil {
		r.payments = make(map[int]*models.Payment)
	}
	r.nextID++
	payment.ID = r.nextID
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id int) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaymentRepo) GetByCheckoutID(_ context.Context, checkoutID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.CheckoutID == checkoutID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, id int, status models.PaymentStatus, receipt *string) error {
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.Status = status
	if receipt != nil {
		p.Receipt = receipt
	}
	return nil
}

func (r *fakePaymentRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Payment, error) {
	out := make([]*models.Payment, 0)
	for _, p := range r.payments {
		if p.TournamentID == tournamentID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePaymentRepo) CountReceived(_ context.Context) (int, error) {
	count := 0
	for _, p := range r.payments {
		if p.Status == models.PaymentSuccess {
			count++
		}
	}
	return count, nil
}

func (r *fakePaymentRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, p := range r.payments {
		if p.TournamentID == tournamentID {
			delete(r.payments, id)
		}
	}
	return nil
}
