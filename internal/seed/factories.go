package seed

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"updoot/internal/models"
	"updoot/internal/repository"
	"updoot/internal/service"
)

// seedPassword is the password every seeded account gets.
const seedPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// fixtureUser is one well-known account from a YAML fixture file:
//
//	users:
//	  - username: ben
//	    email: ben@ben.com
//	    password: ben
type fixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type fixtureFile struct {
	Users []fixtureUser `yaml:"users"`
}

// CreateFixtureUsers creates the accounts listed in a YAML fixture file.
func (f *Factory) CreateFixtureUsers(path string) ([]*models.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures fixtureFile
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	users := make([]*models.User, 0, len(fixtures.Users))
	for _, fx := range fixtures.Users {
		password := fx.Password
		if password == "" {
			password = seedPassword
		}
		user, err := f.createUser(fx.Username, fx.Email, password)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreateUsers generates n users with fake identities.
func (f *Factory) CreateUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)
		email := fmt.Sprintf("%d.%s", i, gofakeit.Email())
		user, err := f.createUser(username, email, seedPassword)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (f *Factory) createUser(username, email, password string) (*models.User, error) {
	hash, err := service.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post with a realistic created_at spread but does not
// persist it.
func (f *Factory) BuildPost(user *models.User) *models.Post {
	post := &models.Post{
		Title:     gofakeit.Sentence(5),
		Text:      gofakeit.Paragraph(1, 3, 5, "\n"),
		CreatorID: user.ID,
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(hoursBack)*time.Hour -
			time.Duration(minsBack)*time.Minute).
		Truncate(time.Millisecond)

	return post
}

// CreatePosts generates n posts spread across the given users.
func (f *Factory) CreatePosts(users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		user := users[f.rng.Intn(len(users))]
		post := f.BuildPost(user)
		if err := f.db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// CastVotes has roughly a third of the user/post pairs vote, through the
// ledger so scores stay consistent. Returns the number of votes cast.
func (f *Factory) CastVotes(users []*models.User, posts []*models.Post) (int, error) {
	voteRepo := repository.NewVoteRepository(f.db)
	ctx := context.Background()
	cast := 0
	for _, post := range posts {
		for _, user := range users {
			if f.rng.Intn(3) != 0 {
				continue
			}
			value := models.Upvote
			if f.rng.Intn(4) == 0 {
				value = models.Downvote
			}
			if err := voteRepo.Cast(ctx, user.ID, post.ID, value); err != nil {
				return cast, err
			}
			cast++
		}
	}
	return cast, nil
}
