package testutil

import (
	"context"
	"database/sql"
	"fmt"
)

// Fixtures provides factory functions for creating test data.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// User is a row of the users table.
type User struct {
	ID      string
	ABool   bool
	ANumber int
	AString string
}

// Resource is a row of the resources table with its owners.
type Resource struct {
	ID              string
	ABool           bool
	ANumber         int
	AString         string
	AOptionalString *string
	Owners          []string
}

// StandardUsers are the two users every standard fixture set contains.
var StandardUsers = []User{
	{ID: "user1", ABool: true, ANumber: 1, AString: "string"},
	{ID: "user2", ABool: true, ANumber: 2, AString: "string"},
}

// StandardResources are three resources owned by user1, user2 and both.
var StandardResources = []Resource{
	{ID: "resource1", ABool: true, ANumber: 1, AString: "string", Owners: []string{"user1"}},
	{ID: "resource2", ABool: false, ANumber: 2, AString: "string2", Owners: []string{"user2"}},
	{ID: "resource3", ABool: false, ANumber: 3, AString: "string3", Owners: []string{"user1", "user2"}},
}

// LoadStandard inserts StandardUsers and StandardResources.
func (f *Fixtures) LoadStandard() error {
	for _, u := range StandardUsers {
		if err := f.CreateUser(u); err != nil {
			return err
		}
	}
	for _, r := range StandardResources {
		if err := f.CreateResource(r); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a user.
func (f *Fixtures) CreateUser(u User) error {
	_, err := f.db.ExecContext(f.ctx,
		`INSERT INTO users (id, "aBool", "aNumber", "aString") VALUES ($1, $2, $3, $4)`,
		u.ID, u.ABool, u.ANumber, u.AString,
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.ID, err)
	}
	return nil
}

// CreateResource inserts a resource and links its owners, which must exist.
func (f *Fixtures) CreateResource(r Resource) error {
	_, err := f.db.ExecContext(f.ctx,
		`INSERT INTO resources (id, "aBool", "aNumber", "aString", "aOptionalString") VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.ABool, r.ANumber, r.AString, r.AOptionalString,
	)
	if err != nil {
		return fmt.Errorf("insert resource %s: %w", r.ID, err)
	}
	for _, owner := range r.Owners {
		_, err := f.db.ExecContext(f.ctx,
			`INSERT INTO resource_owners (resource_id, user_id) VALUES ($1, $2)`,
			r.ID, owner,
		)
		if err != nil {
			return fmt.Errorf("link owner %s to %s: %w", owner, r.ID, err)
		}
	}
	return nil
}

// CreateComment inserts a comment on a resource.
func (f *Fixtures) CreateComment(resourceID, authorID string, approved bool) error {
	_, err := f.db.ExecContext(f.ctx,
		`INSERT INTO comments (resource_id, author_id, approved) VALUES ($1, $2, $3)`,
		resourceID, authorID, approved,
	)
	if err != nil {
		return fmt.Errorf("insert comment on %s: %w", resourceID, err)
	}
	return nil
}
