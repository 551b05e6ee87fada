package model

// KeySpec declares a collectible key in a level
type KeySpec struct {
	KeyID    KeyID
	Name     string
	Position Vec2
}

// DoorSpec declares a key-gated door in a level
type DoorSpec struct {
	RequiredKeyID  KeyID
	ConsumesKey    bool
	HunterCanForce bool
	Position       Vec2
}

// CheeseSpec declares a cheese pickup in a level
type CheeseSpec struct {
	Value    int
	Position Vec2
}

// SafeZoneSpec declares a hunter-blocking zone in a level
type SafeZoneSpec struct {
	Position Vec2
}

// ExitSpec declares a runner exit in a level
type ExitSpec struct {
	Position Vec2
}

// Level is the declarative layout a session instantiates its interactive
// entities and spawn points from
type Level struct {
	Name         string
	Keys         []KeySpec
	Doors        []DoorSpec
	Cheese       []CheeseSpec
	SafeZones    []SafeZoneSpec
	Exits        []ExitSpec
	HunterSpawn  Vec2
	RunnerSpawns []Vec2
}

// DefaultLevel returns the standard playable layout
func DefaultLevel() Level {
	return Level{
		Name: "warehouse",
		Keys: []KeySpec{
			{KeyID: 1, Name: "BrassKey", Position: Vec2{X: 4, Y: 2}},
			{KeyID: 2, Name: "IronKey", Position: Vec2{X: 14, Y: 9}},
		},
		Doors: []DoorSpec{
			{RequiredKeyID: 1, ConsumesKey: true, Position: Vec2{X: 8, Y: 2}},
			{RequiredKeyID: 2, ConsumesKey: false, HunterCanForce: true, Position: Vec2{X: 16, Y: 9}},
		},
		Cheese: []CheeseSpec{
			{Value: 10, Position: Vec2{X: 6, Y: 5}},
			{Value: 25, Position: Vec2{X: 12, Y: 7}},
		},
		SafeZones: []SafeZoneSpec{
			{Position: Vec2{X: 10, Y: 12}},
		},
		Exits: []ExitSpec{
			{Position: Vec2{X: 20, Y: 14}},
		},
		HunterSpawn: Vec2{X: 1, Y: 1},
		RunnerSpawns: []Vec2{
			{X: 18, Y: 1},
			{X: 18, Y: 5},
			{X: 18, Y: 10},
			{X: 18, Y: 14},
			{X: 14, Y: 14},
			{X: 10, Y: 14},
			{X: 6, Y: 14},
		},
	}
}
