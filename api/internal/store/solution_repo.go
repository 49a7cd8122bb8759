// Package store caches model outputs in Postgres so re-submitting the same
// photo does not re-bill a model call. This is a server-side cache only;
// session view state is never written here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"fixmate/api/internal/fix/types"
)

type SolutionRepo struct{ DB *sql.DB }

func NewSolutionRepo(db *sql.DB) *SolutionRepo { return &SolutionRepo{DB: db} }

// Find returns the cached solution for (mediaHash, model, locale). With
// maxAge > 0 an older row counts as a miss so the model is asked again.
func (r *SolutionRepo) Find(ctx context.Context, mediaHash, model string, loc types.Locale, maxAge time.Duration) (types.Solution, error) {
	const q = `select solution_json, created_at
	           from solutions_cache
	           where media_hash=$1 and model=$2 and locale=$3`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, mediaHash, model, string(loc)).Scan(&js, &ts); err != nil {
		return types.Solution{}, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return types.Solution{}, sql.ErrNoRows
	}
	var sol types.Solution
	if err := json.Unmarshal(js, &sol); err != nil {
		// Corrupt cache row counts as a miss.
		return types.Solution{}, sql.ErrNoRows
	}
	if err := sol.Validate(); err != nil {
		return types.Solution{}, sql.ErrNoRows
	}
	return sol, nil
}

// Upsert stores/refreshes a solution. PK: (media_hash, model, locale).
func (r *SolutionRepo) Upsert(ctx context.Context, mediaHash, model string, loc types.Locale, sol types.Solution) error {
	js, _ := json.Marshal(sol)
	const q = `
insert into solutions_cache(media_hash, model, locale, solution_json)
values ($1,$2,$3,$4)
on conflict (media_hash, model, locale)
do update set solution_json=excluded.solution_json, created_at=now()`
	_, err := r.DB.ExecContext(ctx, q, mediaHash, model, string(loc), js)
	return err
}
