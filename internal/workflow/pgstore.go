package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ronappleton/campaign-engine/internal/campaign"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore persists runs and interactions in Postgres. It mirrors the
// MemoryStore semantics: writes are best-effort, the in-flight run is owned
// by the service, the database is the durable record.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &PGStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
create table if not exists campaign_runs (
  id text primary key,
  status text not null,
  payload jsonb not null,
  created_at timestamptz not null,
  updated_at timestamptz not null
);
create table if not exists campaign_interactions (
  id bigserial primary key,
  run_id text not null,
  payload jsonb not null,
  created_at timestamptz not null
);
create index if not exists campaign_interactions_run_id on campaign_interactions (run_id, id);
`)
	return err
}

func (s *PGStore) CreateRun(r RunRecord) RunRecord {
	b, _ := json.Marshal(r)
	_, _ = s.db.Exec(`insert into campaign_runs (id, status, payload, created_at, updated_at)
values ($1,$2,$3,$4,$5)
on conflict (id) do update set payload = excluded.payload, status = excluded.status, updated_at = excluded.updated_at`,
		r.ID, string(r.Status), b, r.CreatedAt, r.UpdatedAt)
	return r
}

func (s *PGStore) UpdateRun(r RunRecord) {
	r.UpdatedAt = time.Now().UTC()
	b, _ := json.Marshal(r)
	_, _ = s.db.Exec(`update campaign_runs set status=$2, payload=$3, updated_at=$4 where id=$1`,
		r.ID, string(r.Status), b, r.UpdatedAt)
}

func (s *PGStore) DeleteRun(id string) {
	_, _ = s.db.Exec(`delete from campaign_runs where id=$1`, id)
	_, _ = s.db.Exec(`delete from campaign_interactions where run_id=$1`, id)
}

func (s *PGStore) GetRun(id string) (RunRecord, error) {
	var raw []byte
	err := s.db.QueryRow(`select payload from campaign_runs where id=$1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, ErrNotFound
		}
		return RunRecord{}, err
	}
	var r RunRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return RunRecord{}, err
	}
	return r, nil
}

func (s *PGStore) ListRuns() []RunRecord {
	rows, err := s.db.Query(`select payload from campaign_runs order by created_at desc`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var r RunRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *PGStore) AppendInteraction(runID string, in campaign.Interaction) {
	b, _ := json.Marshal(in)
	_, _ = s.db.Exec(`insert into campaign_interactions (run_id, payload, created_at) values ($1,$2,$3)`,
		runID, b, time.Now().UTC())
}

func (s *PGStore) ListInteractions(runID string) []campaign.Interaction {
	rows, err := s.db.Query(`select payload from campaign_interactions where run_id=$1 order by id asc`, runID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []campaign.Interaction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var in campaign.Interaction
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		out = append(out, in)
	}
	return out
}
