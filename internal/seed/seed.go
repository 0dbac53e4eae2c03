// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"updoot/internal/models"
	"updoot/internal/repository"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
	// FixtureFile optionally names a YAML file with well-known accounts to
	// create before the generated ones.
	FixtureFile string
}

// Seed populates the database with test data. Votes are cast through the
// vote ledger, so every seeded score matches the sum of its vote rows.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)

	var users []*models.User
	if opts.FixtureFile != "" {
		fixed, err := factory.CreateFixtureUsers(opts.FixtureFile)
		if err != nil {
			return fmt.Errorf("failed to load fixture users: %w", err)
		}
		log.Printf("%d fixture users created", len(fixed))
		users = append(users, fixed...)
	}

	generated, err := factory.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d generated users created", len(generated))
	users = append(users, generated...)

	posts, err := factory.CreatePosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	votes, err := factory.CastVotes(users, posts)
	if err != nil {
		return fmt.Errorf("failed to cast votes: %w", err)
	}
	log.Printf("%d votes cast", votes)

	log.Println("Seeding complete")
	return nil
}

// clearData removes all seeded rows, children before parents.
func clearData(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.Vote{},
		&models.Post{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// VerifyScores recomputes each post's score from the vote ledger and reports
// any drift. Used as a post-seed sanity check.
func VerifyScores(db *gorm.DB) error {
	var posts []*models.Post
	if err := db.Find(&posts).Error; err != nil {
		return err
	}
	voteRepo := repository.NewVoteRepository(db)
	for _, post := range posts {
		var sum int64
		err := db.Model(&models.Vote{}).
			Where("post_id = ?", post.ID).
			Select("COALESCE(SUM(value), 0)").
			Scan(&sum).Error
		if err != nil {
			return err
		}
		if int(sum) != post.Score {
			count, _ := voteRepo.CountForPost(context.Background(), post.ID)
			return fmt.Errorf("post %d score drift: score=%d ledger sum=%d over %d votes",
				post.ID, post.Score, sum, count)
		}
	}
	return nil
}
