package username

import "fmt"

// Word lists for generated handles. Users get a handle at signup and can
// keep it; uniqueness is enforced by the users table, callers retry on
// collision.
var adjectives = []string{
	"Neon", "Chill", "Vibe", "Cosmic", "Retro", "Hyper", "Lunar", "Solar", "Silent", "Wild",
	"Epic", "Mystic", "Rapid", "Bold", "Bright", "Zen", "Frosty", "Digital", "Glitch", "Sonic",
}

var nouns = []string{
	"Falcon", "Cactus", "Ninja", "Orbit", "Star", "Wolf", "Panda", "Tiger", "Fox", "Hawk",
	"Ghost", "Echo", "Spark", "Pulse", "Vortex", "Moon", "Comet", "Rocket", "Shadow", "Storm",
}

// Rand is the slice of a random source the generator needs.
type Rand interface {
	Intn(n int) int
}

// Generate produces a handle like "NeonFalcon42" from the given source.
func Generate(r Rand) string {
	adj := adjectives[r.Intn(len(adjectives))]
	noun := nouns[r.Intn(len(nouns))]
	num := r.Intn(99) + 1
	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
