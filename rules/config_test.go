package rules

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"tiny board", func(c *Config) { c.TileCount = 2 }},
		{"no snake", func(c *Config) { c.SnakeLength = 0 }},
		{"snake longer than a row", func(c *Config) { c.SnakeLength = 21 }},
		{"no food", func(c *Config) { c.MinFoods = 0 }},
		{"min above max", func(c *Config) { c.MinFoods = 11 }},
		{"food overflow", func(c *Config) { c.MaxFoods = 396 }},
		{"too many red apples", func(c *Config) { c.MinRedApples = 6 }},
		{"negative red apples", func(c *Config) { c.MinRedApples = -1 }},
		{"already won", func(c *Config) { c.InitialScore = 30 }},
		{"already lost", func(c *Config) { c.InitialScore = 0 }},
		{"zero speed", func(c *Config) { c.FastSpeed = 0 }},
		{"negative effect", func(c *Config) { c.EffectDuration = Duration(-time.Second) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Equal(t, ErrInvalidConfig, errors.Cause(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "fruitsnake")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "game.json")
	data := `{"tileCount": 30, "winScore": 50, "speed": "150ms", "effectDuration": 2500}`
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TileCount)
	require.Equal(t, 50, cfg.WinScore)
	require.Equal(t, Duration(150*time.Millisecond), cfg.Speed)
	require.Equal(t, Duration(2500*time.Millisecond), cfg.EffectDuration)
	require.Equal(t, 5, cfg.SnakeLength, "missing fields keep their defaults")
}

func TestLoadConfigInvalid(t *testing.T) {
	dir, err := ioutil.TempDir("", "fruitsnake")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "game.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"winScore": 3}`), 0644))
	_, err = LoadConfig(path)
	require.Equal(t, ErrInvalidConfig, errors.Cause(err))

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestDurationJSON(t *testing.T) {
	data, err := json.Marshal(Duration(200 * time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, `"200ms"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"5s"`), &d))
	require.Equal(t, Duration(5*time.Second), d)
	require.NoError(t, json.Unmarshal([]byte(`300`), &d))
	require.Equal(t, Duration(300*time.Millisecond), d)
	require.Error(t, json.Unmarshal([]byte(`"fast"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		require.Equal(t, d, parsed)
	}
	_, err := ParseDirection("sideways")
	require.Error(t, err)
}

func TestStepWraps(t *testing.T) {
	p, wrapped := step(Point{X: 19, Y: 10}, Right, 20)
	require.True(t, wrapped)
	require.Equal(t, Point{X: 0, Y: 10}, p)

	p, wrapped = step(Point{X: 5, Y: 0}, Up, 20)
	require.True(t, wrapped)
	require.Equal(t, Point{X: 5, Y: 19}, p)

	p, wrapped = step(Point{X: 5, Y: 5}, Left, 20)
	require.False(t, wrapped)
	require.Equal(t, Point{X: 4, Y: 5}, p)
}

func TestFoodKindText(t *testing.T) {
	data, err := json.Marshal(Food{Pos: Point{X: 1, Y: 2}, Kind: Banana})
	require.NoError(t, err)
	require.JSONEq(t, `{"pos":{"x":1,"y":2},"kind":"banana"}`, string(data))

	var f Food
	require.NoError(t, json.Unmarshal([]byte(`{"pos":{"x":3,"y":4},"kind":"green-apple"}`), &f))
	require.Equal(t, GreenApple, f.Kind)
	require.Error(t, json.Unmarshal([]byte(`{"kind":"cherry"}`), &f))

	require.Equal(t, 1, RedApple.Points())
	require.Equal(t, -1, GreenApple.Points())
	require.Equal(t, EffectSlow, Orange.Effect())
	require.Equal(t, EffectFast, Banana.Effect())
}
