package data

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/fairlens/fairscan/pkg/mdss"
)

const (
	insertResultSQL = `INSERT INTO result (
			created, dataset, direction, penalty, restarts, max_passes,
			seed, score, subgroup, matched_rows, group_positive_rate,
			group_mean_probability, rest_positive_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectResultSQL = `SELECT
			id, created, dataset, direction, penalty, restarts,
			max_passes, seed, score, subgroup, matched_rows,
			group_positive_rate, group_mean_probability, rest_positive_rate
		FROM result
	`

	selectResultByIDSQL = selectResultSQL + ` WHERE id = ?`

	listResultsSQL = selectResultSQL + ` ORDER BY created DESC, id DESC LIMIT ?`
)

// Result is one persisted scan run.
type Result struct {
	ID                   int64         `json:"id" yaml:"id"`
	Created              time.Time     `json:"created" yaml:"created"`
	Dataset              string        `json:"dataset" yaml:"dataset"`
	Direction            string        `json:"direction" yaml:"direction"`
	Penalty              float64       `json:"penalty" yaml:"penalty"`
	Restarts             int           `json:"restarts" yaml:"restarts"`
	MaxPasses            int           `json:"max_passes" yaml:"max_passes"`
	Seed                 int64         `json:"seed" yaml:"seed"`
	Score                float64       `json:"score" yaml:"score"`
	Subgroup             mdss.Subgroup `json:"subgroup" yaml:"subgroup"`
	MatchedRows          int           `json:"matched_rows" yaml:"matched_rows"`
	GroupPositiveRate    float64       `json:"group_positive_rate" yaml:"group_positive_rate"`
	GroupMeanProbability float64       `json:"group_mean_probability" yaml:"group_mean_probability"`
	RestPositiveRate     float64       `json:"rest_positive_rate" yaml:"rest_positive_rate"`
}

// SaveResult inserts a scan run and returns its assigned ID.
func SaveResult(db *sql.DB, r *Result) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if r == nil {
		return 0, errors.New("result required")
	}

	sub, err := json.Marshal(r.Subgroup)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal subgroup")
	}

	created := r.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := db.Exec(insertResultSQL,
		created.Format(time.RFC3339),
		r.Dataset,
		r.Direction,
		r.Penalty,
		r.Restarts,
		r.MaxPasses,
		r.Seed,
		r.Score,
		string(sub),
		r.MatchedRows,
		r.GroupPositiveRate,
		r.GroupMeanProbability,
		r.RestPositiveRate,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert result")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read inserted result id")
	}
	return id, nil
}

// GetResult returns a single scan run by ID, or nil when not found.
func GetResult(db *sql.DB, id int64) (*Result, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	r, err := scanResultRow(db.QueryRow(selectResultByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// ListResults returns the most recent scan runs, newest first.
func ListResults(db *sql.DB, limit int) ([]*Result, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit < 1 {
		return nil, errors.Errorf("limit must be >= 1, got %d", limit)
	}

	rows, err := db.Query(listResultsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query results")
	}
	defer rows.Close()

	var list []*Result
	for rows.Next() {
		r, err := scanResultRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate results")
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResultRow(row rowScanner) (*Result, error) {
	var r Result
	var created, subgroup string
	if err := row.Scan(
		&r.ID,
		&created,
		&r.Dataset,
		&r.Direction,
		&r.Penalty,
		&r.Restarts,
		&r.MaxPasses,
		&r.Seed,
		&r.Score,
		&subgroup,
		&r.MatchedRows,
		&r.GroupPositiveRate,
		&r.GroupMeanProbability,
		&r.RestPositiveRate,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan result row")
	}

	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid created timestamp: %s", created)
	}
	r.Created = ts

	if err := json.Unmarshal([]byte(subgroup), &r.Subgroup); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal subgroup")
	}
	return &r, nil
}
