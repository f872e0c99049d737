package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const leaderboardKey = "fruitsnake:leaderboard"

// Store is a redis backed store: a JSON value per game, a list of frames per
// game and a sorted set of game ids by score.
type Store struct {
	client *redis.Client
}

// NewStore will create a new instance of an underlying redis client, so it should not be re-created across "threads"
// - connectURL see: github.com/go-redis/redis/options.go for URL specifics
// The underlying redis client will be immediately tested for connectivity, so don't call this until you know redis can connect.
// Returns a new instance OR an error if unable (meaning an issue connecting to your redis URL)
func NewStore(connectURL string) (*Store, error) {
	o, err := redis.ParseURL(connectURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse redis URL")
	}

	client := redis.NewClient(o)

	// Validate it's connected
	err = client.Ping().Err()
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect ")
	}

	return &Store{client: client}, nil
}

// Close closes the underlying redis client.
func (rs *Store) Close() error {
	return rs.client.Close()
}

func gameKey(id string) string   { return "fruitsnake:game:" + id }
func framesKey(id string) string { return "fruitsnake:game:" + id + ":frames" }

// SetGameStatus is used to set a specific game status.
func (rs *Store) SetGameStatus(c context.Context, id string, status rules.GameStatus) error {
	g, err := rs.GetGame(c, id)
	if err != nil {
		return err
	}
	g.Status = status
	return rs.putGame(rs.client, g)
}

// CreateGame will insert a game with the initial game frames.
func (rs *Store) CreateGame(c context.Context, g *rules.Game, frames []*rules.Snapshot) error {
	game := *g
	values := make([]interface{}, 0, len(frames))
	for i, f := range frames {
		if f.Turn != int64(i) {
			return controller.ErrInvalidSequence
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		values = append(values, data)
		controller.UpdateGame(&game, f)
	}

	_, err := rs.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(framesKey(g.ID))
		if len(values) > 0 {
			pipe.RPush(framesKey(g.ID), values...)
		}
		return rs.putGame(pipe, &game)
	})
	return errors.Wrap(err, "unable to create game")
}

// PushGameFrame will push a game frame onto the list of frames. Frames of a
// game are expected to come from a single writer.
func (rs *Store) PushGameFrame(c context.Context, id string, f *rules.Snapshot) error {
	g, err := rs.GetGame(c, id)
	if err != nil {
		return err
	}
	n, err := rs.client.LLen(framesKey(id)).Result()
	if err != nil {
		return errors.Wrap(err, "unable to count frames")
	}
	if f.Turn != n {
		return controller.ErrInvalidSequence
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	controller.UpdateGame(g, f)

	_, err = rs.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.RPush(framesKey(id), data)
		return rs.putGame(pipe, g)
	})
	return errors.Wrap(err, "unable to push frame")
}

// ListGameFrames will list frames by an offset and limit, it supports
// negative offset.
func (rs *Store) ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Snapshot, error) {
	if _, err := rs.GetGame(c, id); err != nil {
		return nil, err
	}
	n, err := rs.client.LLen(framesKey(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to count frames")
	}
	start, end := controller.FrameRange(int(n), limit, offset)
	if start == end {
		return nil, nil
	}

	values, err := rs.client.LRange(framesKey(id), int64(start), int64(end-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read frames")
	}
	frames := make([]*rules.Snapshot, 0, len(values))
	for _, v := range values {
		f := &rules.Snapshot{}
		if err := json.Unmarshal([]byte(v), f); err != nil {
			return nil, errors.Wrap(err, "unable to decode frame")
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// GetGame will fetch the game.
func (rs *Store) GetGame(c context.Context, id string) (*rules.Game, error) {
	data, err := rs.client.Get(gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, controller.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read game")
	}
	g := &rules.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, errors.Wrap(err, "unable to decode game")
	}
	return g, nil
}

// ListGames reads the leaderboard, best score first. The sorted set only
// orders by score, so every game tied with the last one kept is read before
// cutting the list to limit.
func (rs *Store) ListGames(c context.Context, limit int) ([]*rules.Game, error) {
	var ids []string
	var err error
	if limit > 0 {
		ids, err = rs.topIDs(int64(limit))
	} else {
		ids, err = rs.client.ZRevRange(leaderboardKey, 0, -1).Result()
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read leaderboard")
	}

	games := make([]*rules.Game, 0, len(ids))
	for _, id := range ids {
		g, err := rs.GetGame(c, id)
		if err == controller.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	controller.SortGames(games)
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// topIDs returns the ids of the limit best scores plus every id sharing the
// lowest of those scores.
func (rs *Store) topIDs(limit int64) ([]string, error) {
	top, err := rs.client.ZRevRangeWithScores(leaderboardKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	if int64(len(top)) < limit {
		ids := make([]string, 0, len(top))
		for _, z := range top {
			ids = append(ids, z.Member.(string))
		}
		return ids, nil
	}
	cutoff := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	return rs.client.ZRevRangeByScore(leaderboardKey, redis.ZRangeBy{
		Min: cutoff,
		Max: "+inf",
	}).Result()
}

type cmdable interface {
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	ZAdd(key string, members ...redis.Z) *redis.IntCmd
}

func (rs *Store) putGame(c cmdable, g *rules.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := c.Set(gameKey(g.ID), data, 0).Err(); err != nil {
		return err
	}
	return c.ZAdd(leaderboardKey, redis.Z{Score: float64(g.Score), Member: g.ID}).Err()
}
