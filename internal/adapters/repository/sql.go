package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Supported drivers, matching config.Driver* values.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. The memory driver ignores dsn and opts.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	if driver == DriverMemory {
		return NewMemoryStore(), nil
	}
	return OpenSQL(ctx, driver, dsn, opts...)
}

type dialect struct {
	driver string
	goose  string
	// positional placeholders are written as ? and rebound to $N when set
	dollar bool
}

var dialects = map[string]dialect{
	DriverSQLite:   {driver: "sqlite", goose: "sqlite3"},
	DriverPostgres: {driver: "postgres", goose: "postgres", dollar: true},
}

// SQLStore persists everything in a SQL database through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  logger.Logger
}

// OpenSQL connects to dsn with the named driver and, unless disabled,
// applies the embedded migrations.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	o := applyOptions(opts)

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	} else if o.maxOpenConns > 0 {
		db.SetMaxOpenConns(o.maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, dialect: d, logger: o.logger}
	if s.logger == nil {
		s.logger = logger.Get().Named("sql-store")
	}
	if driver == DriverSQLite {
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("set %q: %w", pragma, err)
			}
		}
	}
	if o.migrate {
		if _, err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	s.logger.Info(ctx, "sql store ready", logger.String("driver", driver))
	return s, nil
}

// gooseLogger routes goose output through the structured logger.
type gooseLogger struct {
	l logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Fatal(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies pending migrations and returns the schema version.
func (s *SQLStore) Migrate(ctx context.Context) (int64, error) {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{l: s.logger})
	if err := goose.SetDialect(s.dialect.goose); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// q rebinds ? placeholders for dialects that number their parameters.
func (s *SQLStore) q(query string) string {
	if !s.dialect.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) SaveSnapshot(ctx context.Context, snap model.RosterSnapshot) (err error) {
	defer func(start time.Time) { observe("save_snapshot", start, err) }(time.Now())
	clan := clantag.Normalize(snap.ClanTag)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM roster_members WHERE snapshot_id = ?`), snap.ID); err != nil {
			return fmt.Errorf("clear snapshot members: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO roster_snapshots (id, clan_tag, clan_name, fetched_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET clan_tag = excluded.clan_tag, clan_name = excluded.clan_name, fetched_at = excluded.fetched_at`),
			snap.ID, clan, snap.ClanName, millis(snap.FetchedAt)); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		for i, m := range snap.Members {
			stats, err := encode(m)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO roster_members (snapshot_id, position, player_tag, stats) VALUES (?, ?, ?, ?)
				ON CONFLICT (snapshot_id, player_tag) DO UPDATE SET position = excluded.position, stats = excluded.stats`),
				snap.ID, i, m.Tag, stats); err != nil {
				return fmt.Errorf("insert snapshot member %s: %w", m.Tag, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) ResolveRoster(ctx context.Context, clanTag, snapshotID string) (snap model.RosterSnapshot, err error) {
	defer func(start time.Time) { observe("resolve_roster", start, err) }(time.Now())
	clan := clantag.Normalize(clanTag)

	var (
		row       *sql.Row
		fetchedAt int64
	)
	if snapshotID == "" {
		row = s.db.QueryRowContext(ctx, s.q(`
			SELECT id, clan_tag, clan_name, fetched_at FROM roster_snapshots
			WHERE clan_tag = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`), clan)
	} else {
		row = s.db.QueryRowContext(ctx, s.q(`
			SELECT id, clan_tag, clan_name, fetched_at FROM roster_snapshots
			WHERE clan_tag = ? AND id = ?`), clan, snapshotID)
	}
	if err := row.Scan(&snap.ID, &snap.ClanTag, &snap.ClanName, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RosterSnapshot{}, ErrNoSnapshot
		}
		return model.RosterSnapshot{}, fmt.Errorf("resolve roster: %w", err)
	}
	snap.FetchedAt = fromMillis(fetchedAt)

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT stats FROM roster_members WHERE snapshot_id = ? ORDER BY position`), snap.ID)
	if err != nil {
		return model.RosterSnapshot{}, fmt.Errorf("load roster members: %w", err)
	}
	defer rows.Close()
	snap.Members = []model.RosterMemberStat{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return model.RosterSnapshot{}, err
		}
		var m model.RosterMemberStat
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return model.RosterSnapshot{}, fmt.Errorf("decode roster member: %w", err)
		}
		snap.Members = append(snap.Members, m)
	}
	return snap, rows.Err()
}

func (s *SQLStore) AppendTimeline(ctx context.Context, rows []model.TimelineRow) (err error) {
	defer func(start time.Time) { observe("append_timeline", start, err) }(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			deltas, err := encode(r.Deltas)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO player_timeline (clan_tag, player_tag, day, deltas) VALUES (?, ?, ?, ?)
				ON CONFLICT (player_tag, day) DO UPDATE SET clan_tag = excluded.clan_tag, deltas = excluded.deltas`),
				clantag.Normalize(r.ClanTag), clantag.Normalize(r.PlayerTag), millis(r.Date), deltas); err != nil {
				return fmt.Errorf("insert timeline row: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) QueryTimeline(ctx context.Context, clanTag string, since time.Time) (out []model.TimelineRow, err error) {
	defer func(start time.Time) { observe("query_timeline", start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT clan_tag, player_tag, day, deltas FROM player_timeline
		WHERE clan_tag = ? AND day >= ? ORDER BY player_tag, day`), clantag.Normalize(clanTag), millis(since))
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()
	out = []model.TimelineRow{}
	for rows.Next() {
		var (
			r   model.TimelineRow
			day int64
			raw string
		)
		if err := rows.Scan(&r.ClanTag, &r.PlayerTag, &day, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &r.Deltas); err != nil {
			return nil, fmt.Errorf("decode deltas: %w", err)
		}
		r.Date = fromMillis(day)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveWarAttacks(ctx context.Context, records []model.WarAttackRecord) (err error) {
	defer func(start time.Time) { observe("save_war_attacks", start, err) }(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO war_attacks (clan_tag, war_id, player_tag, ended_at, attacks_used, attacks_available, stars, destruction)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (clan_tag, war_id, player_tag) DO UPDATE SET
					ended_at = excluded.ended_at, attacks_used = excluded.attacks_used,
					attacks_available = excluded.attacks_available, stars = excluded.stars, destruction = excluded.destruction`),
				clantag.Normalize(r.ClanTag), r.WarID, clantag.Normalize(r.PlayerTag), millis(r.EndedAt),
				r.AttacksUsed, r.AttacksAvailable, r.Stars, r.Destruction); err != nil {
				return fmt.Errorf("insert war attack: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) WarAttacks(ctx context.Context, clanTag string, since time.Time) (out []model.WarAttackRecord, err error) {
	defer func(start time.Time) { observe("war_attacks", start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT clan_tag, war_id, player_tag, ended_at, attacks_used, attacks_available, stars, destruction
		FROM war_attacks WHERE clan_tag = ? AND ended_at >= ? ORDER BY ended_at, player_tag`),
		clantag.Normalize(clanTag), millis(since))
	if err != nil {
		return nil, fmt.Errorf("query war attacks: %w", err)
	}
	defer rows.Close()
	out = []model.WarAttackRecord{}
	for rows.Next() {
		var (
			r     model.WarAttackRecord
			ended int64
		)
		if err := rows.Scan(&r.ClanTag, &r.WarID, &r.PlayerTag, &ended, &r.AttacksUsed, &r.AttacksAvailable, &r.Stars, &r.Destruction); err != nil {
			return nil, err
		}
		r.EndedAt = fromMillis(ended)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveCapitalRaids(ctx context.Context, records []model.CapitalRaidRecord) (err error) {
	defer func(start time.Time) { observe("save_capital_raids", start, err) }(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO capital_raids (clan_tag, weekend_start, player_tag, attacks_used, attack_limit, capital_looted)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (clan_tag, weekend_start, player_tag) DO UPDATE SET
					attacks_used = excluded.attacks_used, attack_limit = excluded.attack_limit, capital_looted = excluded.capital_looted`),
				clantag.Normalize(r.ClanTag), millis(r.WeekendStart), clantag.Normalize(r.PlayerTag),
				r.AttacksUsed, r.AttackLimit, r.CapitalLooted); err != nil {
				return fmt.Errorf("insert capital raid: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) CapitalRaids(ctx context.Context, clanTag string, since time.Time) (out []model.CapitalRaidRecord, err error) {
	defer func(start time.Time) { observe("capital_raids", start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT clan_tag, weekend_start, player_tag, attacks_used, attack_limit, capital_looted
		FROM capital_raids WHERE clan_tag = ? AND weekend_start >= ? ORDER BY weekend_start, player_tag`),
		clantag.Normalize(clanTag), millis(since))
	if err != nil {
		return nil, fmt.Errorf("query capital raids: %w", err)
	}
	defer rows.Close()
	out = []model.CapitalRaidRecord{}
	for rows.Next() {
		var (
			r       model.CapitalRaidRecord
			weekend int64
		)
		if err := rows.Scan(&r.ClanTag, &weekend, &r.PlayerTag, &r.AttacksUsed, &r.AttackLimit, &r.CapitalLooted); err != nil {
			return nil, err
		}
		r.WeekendStart = fromMillis(weekend)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) InsertRun(ctx context.Context, run model.AssessmentRun) (err error) {
	defer func(start time.Time) { observe("insert_run", start, err) }(time.Now())
	weights, err := encode(run.Weights)
	if err != nil {
		return err
	}
	summary, err := encode(run.Summary)
	if err != nil {
		return err
	}
	coverage, err := encode(run.Coverage)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO assessment_runs (id, clan_tag, snapshot_id, period_start, period_end, run_type, weights, summary, coverage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.ClanTag, run.SnapshotID, millis(run.PeriodStart), millis(run.PeriodEnd),
		string(run.RunType), weights, summary, coverage, millis(run.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLStore) InsertMembers(ctx context.Context, runID string, members []model.AssessmentMember) (err error) {
	defer func(start time.Time) { observe("insert_members", start, err) }(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM assessment_runs WHERE id = ?`), runID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		for i, m := range members {
			flags, err := encode(m.Flags)
			if err != nil {
				return err
			}
			metricsJSON, err := encode(m.Metrics)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO assessment_members (run_id, position, player_tag, name, role, town_hall_level,
					clv_score, band, flags, recommendation, chat_blurb, metrics)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				runID, i, m.PlayerTag, m.Name, string(m.Role), m.TownHallLevel,
				m.CLVScore, string(m.Band), flags, m.Recommendation, m.ChatBlurb, metricsJSON); err != nil {
				return fmt.Errorf("insert member %s: %w", m.PlayerTag, err)
			}
		}
		return nil
	})
}

const runColumns = `r.id, r.clan_tag, r.snapshot_id, r.period_start, r.period_end, r.run_type, r.weights, r.summary, r.coverage, r.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.AssessmentRun, error) {
	var (
		run                        model.AssessmentRun
		runType                    string
		start, end, created        int64
		weights, summary, coverage string
	)
	if err := row.Scan(&run.ID, &run.ClanTag, &run.SnapshotID, &start, &end, &runType, &weights, &summary, &coverage, &created); err != nil {
		return model.AssessmentRun{}, err
	}
	run.RunType = model.RunType(runType)
	run.PeriodStart, run.PeriodEnd, run.CreatedAt = fromMillis(start), fromMillis(end), fromMillis(created)
	for _, f := range []struct {
		raw string
		dst any
	}{{weights, &run.Weights}, {summary, &run.Summary}, {coverage, &run.Coverage}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return model.AssessmentRun{}, fmt.Errorf("decode run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func (s *SQLStore) members(ctx context.Context, runID string) ([]model.AssessmentMember, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT player_tag, name, role, town_hall_level, clv_score, band, flags, recommendation, chat_blurb, metrics
		FROM assessment_members WHERE run_id = ? ORDER BY position`), runID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	out := []model.AssessmentMember{}
	for rows.Next() {
		var (
			m                  model.AssessmentMember
			role, band         string
			flags, metricsJSON string
		)
		if err := rows.Scan(&m.PlayerTag, &m.Name, &role, &m.TownHallLevel, &m.CLVScore, &band, &flags,
			&m.Recommendation, &m.ChatBlurb, &metricsJSON); err != nil {
			return nil, err
		}
		m.RunID, m.Role, m.Band = runID, model.Role(role), model.Band(band)
		if err := json.Unmarshal([]byte(flags), &m.Flags); err != nil {
			return nil, fmt.Errorf("decode flags: %w", err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &m.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) QueryLatest(ctx context.Context, clanTag string) (run model.AssessmentRun, members []model.AssessmentMember, err error) {
	defer func(start time.Time) {
		if errors.Is(err, ErrNotFound) {
			observe("query_latest", start, nil)
			return
		}
		observe("query_latest", start, err)
	}(time.Now())
	run, err = scanRun(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+runColumns+` FROM assessment_runs r
		WHERE r.clan_tag = ? AND EXISTS (SELECT 1 FROM assessment_members m WHERE m.run_id = r.id)
		ORDER BY r.created_at DESC, r.id DESC LIMIT 1`), clantag.Normalize(clanTag)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AssessmentRun{}, nil, ErrNotFound
		}
		return model.AssessmentRun{}, nil, fmt.Errorf("query latest run: %w", err)
	}
	members, err = s.members(ctx, run.ID)
	if err != nil {
		return model.AssessmentRun{}, nil, err
	}
	return run, members, nil
}

func (s *SQLStore) LatestCompletedRun(ctx context.Context, clanTag string, runType model.RunType) (run model.AssessmentRun, err error) {
	defer func(start time.Time) { observe("latest_completed_run", start, nil) }(time.Now())
	run, err = scanRun(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+runColumns+` FROM assessment_runs r
		WHERE r.clan_tag = ? AND r.run_type = ? AND EXISTS (SELECT 1 FROM assessment_members m WHERE m.run_id = r.id)
		ORDER BY r.created_at DESC, r.id DESC LIMIT 1`), clantag.Normalize(clanTag), string(runType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AssessmentRun{}, ErrNotFound
		}
		return model.AssessmentRun{}, fmt.Errorf("query completed run: %w", err)
	}
	return run, nil
}

func (s *SQLStore) QueryRun(ctx context.Context, runID string) (model.AssessmentRun, []model.AssessmentMember, error) {
	defer observe("query_run", time.Now(), nil)
	run, err := scanRun(s.db.QueryRowContext(ctx, s.q(`SELECT `+runColumns+` FROM assessment_runs r WHERE r.id = ?`), runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AssessmentRun{}, nil, ErrNotFound
		}
		return model.AssessmentRun{}, nil, fmt.Errorf("query run: %w", err)
	}
	members, err := s.members(ctx, runID)
	if err != nil {
		return model.AssessmentRun{}, nil, err
	}
	if len(members) == 0 {
		return run, nil, ErrIncompleteRun
	}
	return run, members, nil
}

// Stats counts snapshots and runs.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster_snapshots`).Scan(&st.Snapshots); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessment_runs`).Scan(&st.Runs); err != nil {
		return Stats{}, err
	}
	return st, nil
}
