package app

import (
	"fmt"
	"sort"
	"sync"

	"github.com/km-arc/simple-structure/framework/container"
	"github.com/km-arc/simple-structure/framework/tool"
)

// User is a registered user.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Slug  string `json:"slug"`
}

// UserStore keeps users in memory. It is shared by all requests.
type UserStore struct {
	mu     sync.RWMutex
	users  map[int]*User
	nextID int
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int]*User), nextID: 1}
}

// Create stores a new user and returns it.
func (s *UserStore) Create(name, email string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: s.nextID, Name: name, Email: email, Slug: tool.ParseSlug(name, "-", true)}
	s.users[u.ID] = u
	s.nextID++
	return u
}

// Find returns the user with id.
func (s *UserStore) Find(id int) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Delete removes the user with id and reports whether it existed.
func (s *UserStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

// List returns users ordered by id, skipping offset. A limit of zero
// returns all remaining users. total is the number of stored users.
func (s *UserStore) List(offset, limit int) (users []any, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	total = len(ids)
	if offset >= total {
		return []any{}, total
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	users = make([]any, 0, len(ids))
	for _, id := range ids {
		users = append(users, s.users[id])
	}
	return users, total
}

// seedUsers is the deferred "Seed" call of the users definition. Its
// params alternate name and email.
var seedUsers = container.Method[*UserStore](func(s *UserStore, args ...any) error {
	if len(args)%2 != 0 {
		return fmt.Errorf("app: seed needs name/email pairs, got %d values", len(args))
	}
	for i := 0; i < len(args); i += 2 {
		s.Create(tool.ParseString(args[i], 0), tool.ParseString(args[i+1], 0))
	}
	return nil
})
