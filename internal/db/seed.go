package db

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/match"
	"github.com/orbitlabs/orbit-server/internal/utils/username"
)

// interestCatalog is the onboarding tag set users pick from (max 5).
var interestCatalog = []string{
	"gaming", "coding", "music", "art", "reading", "cooking",
	"photography", "travel", "podcasts", "singing", "writing", "fitness",
}

// SeedDemoData resets the database and populates it with demo users,
// rooms and connect requests.
//
// Behavior:
//  1. Clears existing rows in all tables.
//  2. Creates 20 teen users with generated handles, hashed passwords,
//     3-5 interests and a full quiz vector each.
//  3. Creates 4 rooms tagged from the catalog and spreads the first
//     12 users across them.
//  4. Generates ~60 connect requests with a mix of pending, accepted
//     and rejected rows; every 3rd accepted pair gets a few messages.
//
// Compatible with both MySQL and SQLite.
func SeedDemoData(gdb *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "room_memberships", "rooms", "connect_requests", "users"} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// --- Users ---
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		interests := pickInterests(r, 3+r.Intn(3))
		quiz := make([]int, match.QuizQuestionCount)
		for q := range quiz {
			quiz[q] = r.Intn(match.QuizOptionCount)
		}

		user := User{
			Username:     fmt.Sprintf("%s_%d", username.Generate(r), i),
			Email:        fmt.Sprintf("demo%d@orbit.test", i),
			PasswordHash: string(hash),
			Age:          13 + r.Intn(7),
			Interests:    interests,
			QuizAnswers:  quiz,
			Onboarded:    true,
		}
		if err := gdb.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users.", len(users))

	// --- Rooms ---
	rooms := make([]Room, 0, 4)
	for i := 0; i < 4; i++ {
		founder := users[i]
		tags := founder.Interests
		if len(tags) > 3 {
			tags = tags[:3]
		}
		room := Room{
			Name:     fmt.Sprintf("The %s Vibes", titleTag(tags[0])),
			Tags:     tags,
			Capacity: RoomCapacity,
		}
		if err := gdb.Create(&room).Error; err != nil {
			return fmt.Errorf("failed to seed room: %w", err)
		}
		rooms = append(rooms, room)
	}

	for i := 0; i < 12; i++ {
		member := RoomMembership{
			RoomID: rooms[i%len(rooms)].ID,
			UserID: users[i].ID,
		}
		if err := gdb.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to seed membership: %w", err)
		}
	}
	log.Printf("Seeded %d rooms.", len(rooms))

	// --- Connect requests ---
	counter := 0
	for _, from := range users {
		for j := 0; j < 3; j++ {
			to := users[r.Intn(len(users))]
			if to.ID == from.ID {
				continue
			}

			status := StatusPending
			switch counter % 3 {
			case 1:
				status = StatusAccepted
			case 2:
				status = StatusRejected
			}

			req := ConnectRequest{FromUser: from.ID, ToUser: to.ID, Status: status}
			if err := gdb.Create(&req).Error; err != nil {
				// unique pairs are not enforced at the schema level; skip dup noise
				continue
			}

			if status == StatusAccepted {
				conversation := "pair:" + req.ID
				msgs := []Message{
					{Conversation: conversation, SenderID: from.ID, Body: "hey! the quiz says we match"},
					{Conversation: conversation, SenderID: to.ID, Body: "orbit never lies"},
				}
				if err := gdb.Create(&msgs).Error; err != nil {
					return fmt.Errorf("failed to seed messages: %w", err)
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d connect requests.", counter)

	return nil
}

func pickInterests(r *rand.Rand, n int) []string {
	perm := r.Perm(len(interestCatalog))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, interestCatalog[idx])
	}
	return out
}

func titleTag(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToUpper(tag[:1]) + tag[1:]
}
