// Package testing provides shared fixtures and helpers for veneer tests.
package testing

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zoobzio/veneer"
)

// ErrGrounded is returned by User.Pilot for users without a ship.
var ErrGrounded = errors.New("grounded")

// User is the primary fixture type.
type User struct {
	FirstName string
	LastName  string
	Age       int
	Active    bool
	Email     string
	Ship      string
	Password  string `json:"-"`
	Profile   *Profile
	Tasks     []*Task
}

// FullName joins first and last name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CompletedTasks is a scoped collection reachable only as a method.
func (u *User) CompletedTasks() []*Task {
	done := make([]*Task, 0, len(u.Tasks))
	for _, t := range u.Tasks {
		if t.Done {
			done = append(done, t)
		}
	}
	return done
}

// Pilot returns the user's ship or ErrGrounded.
func (u User) Pilot() (string, error) {
	if u.Ship == "" {
		return "", ErrGrounded
	}
	return u.Ship, nil
}

// Summary returns a nested map, rendered as is.
func (u User) Summary() map[string]any {
	return map[string]any{
		"name":   u.FullName(),
		"shouty": strings.ToUpper(u.FirstName),
	}
}

// Task belongs to a User.
type Task struct {
	Heading     string
	Description string
	TimeSpent   int
	Done        bool
}

// Profile is a User's single association.
type Profile struct {
	Avatar   string
	Homepage string
}

// Untouched is never enabled.
type Untouched struct {
	Nothing string
}

// Luke returns a user with a profile and three tasks, two of them done.
func Luke() *User {
	return &User{
		FirstName: "Luke",
		LastName:  "Skywalker",
		Age:       25,
		Active:    true,
		Email:     "luke@rebellion.org",
		Ship:      "X-Wing",
		Password:  "usetheforce",
		Profile:   &Profile{Avatar: "picard.jpg", Homepage: "lukasarts.com"},
		Tasks: []*Task{
			{Heading: "Destroy Deathstar", Description: "XWing, Shoot, BlowUp", TimeSpent: 30, Done: true},
			{Heading: "Study with Yoda", Description: "Jedi Stuff, ya know", TimeSpent: 60, Done: true},
			{Heading: "Win Rebellion", Description: "no idea yet...", TimeSpent: 180, Done: false},
		},
	}
}

// Han returns an active user without profile or tasks.
func Han() *User {
	return &User{
		FirstName: "Han",
		LastName:  "Solo",
		Age:       35,
		Active:    true,
		Email:     "han@falcon.net",
		Ship:      "Millennium Falcon",
	}
}

// Leia returns an inactive user without a ship.
func Leia() *User {
	return &User{
		FirstName: "Princess",
		LastName:  "Leia",
		Age:       25,
		Active:    false,
		Email:     "leia@alderaan.gov",
	}
}

// NewEngine returns an engine with User, Task and Profile enabled.
func NewEngine(opts ...veneer.Option) *veneer.Engine {
	e := veneer.New(opts...)
	e.Enable(reflect.TypeFor[User]())
	e.Enable(reflect.TypeFor[Task]())
	e.Enable(reflect.TypeFor[Profile]())
	return e
}

// TestKey returns a valid 32-byte AES key for testing.
func TestKey(tb testing.TB) []byte {
	tb.Helper()
	return []byte("32-byte-key-for-aes-256-encrypt!")
}

// TestEncryptor returns an AES encryptor configured for testing.
func TestEncryptor(tb testing.TB) veneer.Encryptor {
	tb.Helper()
	enc, err := veneer.AES(TestKey(tb))
	if err != nil {
		tb.Fatalf("AES() error: %v", err)
	}
	return enc
}
