package rules

import "fmt"

// FoodKind is the type of a food item.
type FoodKind int

const (
	// RedApple is worth one point
	RedApple FoodKind = iota
	// GreenApple costs one point
	GreenApple
	// Orange slows the snake down for a while
	Orange
	// Banana speeds the snake up for a while
	Banana
)

// FoodKinds lists every kind, random picks are uniform over it.
var FoodKinds = []FoodKind{RedApple, GreenApple, Orange, Banana}

// Effect is the influence of a food on the game speed.
type Effect int

const (
	// EffectNone leaves the speed alone
	EffectNone Effect = iota
	// EffectSlow switches to the slow interval
	EffectSlow
	// EffectFast switches to the fast interval
	EffectFast
)

// Points returns the score delta of eating the food.
func (k FoodKind) Points() int {
	switch k {
	case RedApple:
		return 1
	case GreenApple:
		return -1
	}
	return 0
}

// Effect returns the speed effect of eating the food.
func (k FoodKind) Effect() Effect {
	switch k {
	case Orange:
		return EffectSlow
	case Banana:
		return EffectFast
	}
	return EffectNone
}

func (k FoodKind) String() string {
	switch k {
	case RedApple:
		return "red-apple"
	case GreenApple:
		return "green-apple"
	case Orange:
		return "orange"
	case Banana:
		return "banana"
	}
	return fmt.Sprintf("food(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k FoodKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FoodKind) UnmarshalText(text []byte) error {
	for _, kind := range FoodKinds {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("rules: unknown food kind %q", string(text))
}

// Food is a food item on the board.
type Food struct {
	Pos  Point    `json:"pos"`
	Kind FoodKind `json:"kind"`
}
