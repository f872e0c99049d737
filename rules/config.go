package rules

import (
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned by New when the game configuration cannot
// produce a playable board.
var ErrInvalidConfig = errors.New("rules: invalid config")

// Config holds the tunables of a game. The zero value is not usable, start
// from DefaultConfig.
type Config struct {
	TileCount    int `json:"tileCount"`
	SnakeLength  int `json:"snakeLength"`
	MinFoods     int `json:"minFoods"`
	MaxFoods     int `json:"maxFoods"`
	MinRedApples int `json:"minRedApples"`

	InitialScore int `json:"initialScore"`
	WinScore     int `json:"winScore"`
	LoseScore    int `json:"loseScore"`
	WrapPenalty  int `json:"wrapPenalty"`

	Speed          Duration `json:"speed"`
	SlowSpeed      Duration `json:"slowSpeed"`
	FastSpeed      Duration `json:"fastSpeed"`
	EffectDuration Duration `json:"effectDuration"`
}

// DefaultConfig returns the classic 20x20 game.
func DefaultConfig() Config {
	return Config{
		TileCount:      20,
		SnakeLength:    5,
		MinFoods:       5,
		MaxFoods:       10,
		MinRedApples:   1,
		InitialScore:   5,
		WinScore:       30,
		LoseScore:      0,
		WrapPenalty:    2,
		Speed:          Duration(200 * time.Millisecond),
		SlowSpeed:      Duration(300 * time.Millisecond),
		FastSpeed:      Duration(100 * time.Millisecond),
		EffectDuration: Duration(5 * time.Second),
	}
}

// LoadConfig reads a JSON config file, any field missing from the file keeps
// its default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := ioutil.ReadFile(path) // nolint: gosec
	if err != nil {
		return cfg, errors.Wrap(err, "unable to read config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "unable to parse config")
	}
	return cfg, cfg.Validate()
}

// Validate checks that the config describes a playable board.
func (c Config) Validate() error {
	switch {
	case c.TileCount < 3:
		return errors.Wrap(ErrInvalidConfig, "tileCount must be at least 3")
	case c.SnakeLength < 1 || c.SnakeLength > c.TileCount:
		return errors.Wrap(ErrInvalidConfig, "snakeLength must fit on a row")
	case c.MinFoods < 1 || c.MinFoods > c.MaxFoods:
		return errors.Wrap(ErrInvalidConfig, "minFoods must be between 1 and maxFoods")
	case c.MaxFoods+c.SnakeLength > c.TileCount*c.TileCount:
		return errors.Wrap(ErrInvalidConfig, "maxFoods does not fit on the board")
	case c.MinRedApples < 0 || c.MinRedApples > c.MinFoods:
		return errors.Wrap(ErrInvalidConfig, "minRedApples must be between 0 and minFoods")
	case c.InitialScore <= c.LoseScore || c.InitialScore >= c.WinScore:
		return errors.Wrap(ErrInvalidConfig, "initialScore must be between loseScore and winScore")
	case c.Speed <= 0 || c.SlowSpeed <= 0 || c.FastSpeed <= 0:
		return errors.Wrap(ErrInvalidConfig, "speeds must be positive")
	case c.EffectDuration < 0:
		return errors.Wrap(ErrInvalidConfig, "effectDuration must not be negative")
	}
	return nil
}

// Duration is a time.Duration that reads and writes JSON as a string such as
// "200ms", or as a number of milliseconds.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "duration must be a string or milliseconds")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
