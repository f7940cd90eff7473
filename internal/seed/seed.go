// Package seed provides helpers to create demo data for development
// databases. Everything here writes real rows; never point it at production.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"civicboard/internal/auth"
	"civicboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user logs in with.
const DefaultPassword = "password123"

var categories = []string{
	"general", "pothole", "streetlight", "graffiti", "trash",
	"water", "noise", "parks", "traffic", "sidewalk",
}

// Around a city center so nearby queries find something.
const (
	centerLat = 40.7128
	centerLng = -74.0060
	spreadDeg = 0.08
)

// Seeder populates the database with fake users, posts and engagement.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Seeder{db: db, rng: rand.New(rand.NewSource(seed))}
}

// ClearAll removes every seeded table's rows, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🧹 Clearing existing data...")
	for _, table := range []string{"upvotes", "comments", "ban_records", "posts", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n active users. The first one is promoted to admin.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}

	log.Printf("👥 Creating %d users...", n)
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Username:   s.username(i),
			Email:      fmt.Sprintf("user%d.%s@example.com", i, strings.ToLower(gofakeit.LetterN(4))),
			Password:   hash,
			Role:       models.RoleUser,
			IsActive:   true,
			ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		}
		if i == 0 {
			user.Role = models.RoleAdmin
		}
		users = append(users, user)
	}

	if err := s.db.CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	log.Printf("   admin login: %s", users[0].Email)
	return users, nil
}

// username yields a unique name within the 20 character column.
func (s *Seeder) username(i int) string {
	base := strings.ToLower(gofakeit.FirstName())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) > 12 {
		base = base[:12]
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s_%d", base, i)
}

// SeedPosts creates numPosts posts spread across users and returns them.
func (s *Seeder) SeedPosts(users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 || numPosts <= 0 {
		return nil, nil
	}

	log.Printf("📝 Creating %d posts...", numPosts)
	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		owner := users[s.rng.Intn(len(users))]
		post := &models.Post{
			Title:    s.title(),
			Content:  gofakeit.Paragraph(1, 3, 8, "\n"),
			Category: categories[s.rng.Intn(len(categories))],
			Resolved: s.rng.Intn(5) == 0,
			UserID:   owner.ID,
		}
		// Roughly two thirds of reports carry a location.
		if s.rng.Intn(3) != 0 {
			lat := centerLat + (s.rng.Float64()*2-1)*spreadDeg
			lng := centerLng + (s.rng.Float64()*2-1)*spreadDeg
			post.SetLocation(lng, lat)
		}
		post.CreatedAt = time.Now().Add(-time.Duration(s.rng.Intn(60*24)) * time.Hour)
		posts = append(posts, post)
	}

	if err := s.db.Omit("Owner").CreateInBatches(posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// title returns a sentence trimmed to fit the post title bounds.
func (s *Seeder) title() string {
	t := strings.TrimSuffix(gofakeit.Sentence(4), ".")
	if r := []rune(t); len(r) > 50 {
		t = strings.TrimSpace(string(r[:50]))
	}
	for len([]rune(t)) < 5 {
		t += " issue"
	}
	return t
}

// SeedEngagement creates posts and then comments and upvotes on them.
// Each user upvotes a given post at most once.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) ([]*models.Post, error) {
	posts, err := s.SeedPosts(users, numPosts)
	if err != nil || len(posts) == 0 {
		return posts, err
	}

	log.Println("💬 Adding comments and upvotes...")
	var comments []*models.Comment
	var upvotes []*models.Upvote
	for _, post := range posts {
		for i := s.rng.Intn(4); i > 0; i-- {
			author := users[s.rng.Intn(len(users))]
			comments = append(comments, &models.Comment{
				PostID:  post.ID,
				UserID:  author.ID,
				Content: gofakeit.Sentence(s.rng.Intn(12) + 3),
			})
		}

		voters := s.rng.Perm(len(users))
		for _, idx := range voters[:s.rng.Intn(len(users)+1)] {
			upvotes = append(upvotes, &models.Upvote{PostID: post.ID, UserID: users[idx].ID})
		}
	}

	if len(comments) > 0 {
		if err := s.db.Omit("Author").CreateInBatches(comments, 200).Error; err != nil {
			return nil, fmt.Errorf("create comments: %w", err)
		}
	}
	if len(upvotes) > 0 {
		if err := s.db.Omit("User").CreateInBatches(upvotes, 200).Error; err != nil {
			return nil, fmt.Errorf("create upvotes: %w", err)
		}
	}
	log.Printf("   %d comments, %d upvotes", len(comments), len(upvotes))
	return posts, nil
}
