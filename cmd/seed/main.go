// Command main runs the database seeder for Updoot.
package main

import (
	"flag"
	"log"

	"updoot/internal/config"
	"updoot/internal/database"
	"updoot/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxDays := flag.Int("max-days", 90, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixtures := flag.String("fixtures", "", "YAML file with well-known accounts to create")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		MaxDays:     *maxDays,
		ShouldClean: *shouldClean,
		FixtureFile: *fixtures,
	}
	if err := seed.Seed(database.DB, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if err := seed.VerifyScores(database.DB); err != nil {
		log.Fatalf("Score verification failed: %v", err)
	}

	log.Println("All done! Every test user has the password: password123")
}
