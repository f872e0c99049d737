package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq" // Import pq driver.

	"github.com/battlesnakeio/fruitsnake/config"
	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const migrations = `
CREATE TABLE IF NOT EXISTS games (
	id VARCHAR(255) PRIMARY KEY,
	value jsonb,
	score INTEGER NOT NULL DEFAULT 0,
	created timestamp default now()
);
CREATE INDEX IF NOT EXISTS games_score ON games (score DESC, created ASC);
CREATE TABLE IF NOT EXISTS game_frames (
	id VARCHAR(255),
	turn INTEGER,
	value jsonb,
	PRIMARY KEY (id, turn)
);
`

// NewSQLStore returns a new store using a postgres database.
func NewSQLStore(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "unable to connect to postgres")
	}

	_, err = db.ExecContext(ctx, migrations)
	if err != nil {
		return nil, errors.Wrap(err, "unable to migrate")
	}
	return &Store{db: db}, nil
}

// Store represents an SQL store.
type Store struct {
	db *sql.DB
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// transact is a transaction wrapper, helps avoid failed to close connections.
func (s *Store) transact(
	ctx context.Context, txFunc func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			if rErr := tx.Rollback(); rErr != nil {
				log.WithError(rErr).Error("rollback failed")
			}
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			// err is non-nil; don't change it
			if rErr := tx.Rollback(); rErr != nil {
				log.WithError(rErr).Error("rollback failed")
			}
		} else {
			err = tx.Commit() // err is nil; if Commit returns error update err
		}
	}()
	err = txFunc(tx)
	return err
}

// SetGameStatus is used to set a specific game status.
func (s *Store) SetGameStatus(
	ctx context.Context, id string, status rules.GameStatus) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE games SET value = jsonb_set(value, '{status}', to_jsonb($2::text)) WHERE id = $1`,
			id, string(status))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return controller.ErrNotFound
		}
		return nil
	})
}

// CreateGame will insert a game with the initial game frames.
func (s *Store) CreateGame(
	ctx context.Context, g *rules.Game, frames []*rules.Snapshot) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		// Upsert games.
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, value, score, created) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET value=$2, score=$3`,
			g.ID, data, g.Score, g.Created,
		); err != nil {
			return err
		}
		return s.pushFrames(ctx, tx, g.ID, frames...)
	})
}

func (s *Store) pushFrames(
	ctx context.Context, tx *sql.Tx, id string, frames ...*rules.Snapshot) error {
	if len(frames) == 0 {
		return nil
	}

	var data []byte
	r := tx.QueryRowContext(ctx, "SELECT value FROM games WHERE id=$1 FOR UPDATE", id)
	if err := r.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return controller.ErrNotFound
		}
		return err
	}
	game := &rules.Game{}
	if err := json.Unmarshal(data, game); err != nil {
		return err
	}

	r = tx.QueryRowContext(
		ctx, "SELECT MAX(turn) FROM game_frames where id=$1", id)

	var last sql.NullInt64
	if err := r.Scan(&last); err != nil {
		if err != sql.ErrNoRows {
			return err
		}
	}
	i := int64(-1) // Nothing exists.
	if last.Valid {
		i = last.Int64
	}
	for _, f := range frames {
		i++
		if i != f.Turn {
			return controller.ErrInvalidSequence
		}
	}

	for _, frame := range frames {
		frameData, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx, `INSERT INTO game_frames (id, turn, value) VALUES ($1, $2, $3)`,
			id, frame.Turn, frameData,
		); err != nil {
			return err
		}
		controller.UpdateGame(game, frame)
	}

	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE games SET value=$2, score=$3 WHERE id=$1`, id, data, game.Score)
	return err
}

// PushGameFrame will push a game frame onto the list of frames.
func (s *Store) PushGameFrame(
	ctx context.Context, id string, f *rules.Snapshot) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		return s.pushFrames(ctx, tx, id, f)
	})
}

// ListGameFrames will list frames by an offset and limit, it supports
// negative offset.
func (s *Store) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Snapshot, error) {
	if _, err := s.GetGame(ctx, id); err != nil {
		return nil, err
	}

	var count int
	r := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_frames WHERE id=$1`, id)
	if err := r.Scan(&count); err != nil {
		return nil, err
	}
	start, end := controller.FrameRange(count, limit, offset)
	if start == end {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM game_frames WHERE id=$1 ORDER BY turn ASC LIMIT $2 OFFSET $3`,
		id, end-start, start,
	)
	if err != nil {
		return nil, err
	}

	var frames []*rules.Snapshot
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		frame := &rules.Snapshot{}
		if err := json.Unmarshal(data, frame); err != nil {
			return nil, err
		}

		frames = append(frames, frame)
	}

	return frames, rows.Err()
}

// GetGame will fetch the game.
func (s *Store) GetGame(c context.Context, id string) (*rules.Game, error) {
	r := s.db.QueryRowContext(c, "SELECT value FROM games WHERE id=$1", id)

	var data []byte
	if err := r.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, controller.ErrNotFound
		}
		return nil, err
	}

	g := &rules.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGames returns the games with the highest score.
func (s *Store) ListGames(c context.Context, limit int) ([]*rules.Game, error) {
	// LIMIT NULL is no limit
	lim := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	rows, err := s.db.QueryContext(c,
		`SELECT value FROM games ORDER BY score DESC, created ASC, id ASC LIMIT $1`, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []*rules.Game{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		g := &rules.Game{}
		if err := json.Unmarshal(data, g); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
