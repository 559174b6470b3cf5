package main

import (
	"flag"
	"fmt"
	"time"

	"noodlemap/internal/devserver"
	"noodlemap/pkg/logger"
	"noodlemap/pkg/models"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("jwt-secret", "", "JWT signing secret (dev default when empty)")
	seed := flag.Bool("seed", false, "load demo accounts and shops")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger.Init(logger.Config{
		Level:  *logLevel,
		Format: "text",
		Output: "stdout",
	})

	cfg := devserver.DefaultConfig()
	if *secret != "" {
		cfg.JWTSecret = *secret
	}

	srv := devserver.NewServer(cfg)

	if *seed {
		if err := loadSeedData(srv.Store()); err != nil {
			logger.Fatalf("seed failed: %v", err)
		}
		logger.Info("seed data loaded (admin/admin-pass, chef/chef-pass, eater/eater-pass)")
	}

	logger.Infof("dev server listening on %s", *addr)
	if err := srv.Start(*addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

// loadSeedData fills the store with a usable demo dataset: an admin, a shop
// owner with two shops, a regular user, and a handful of reviews with
// replies.
func loadSeedData(store *devserver.Store) error {
	// first account always becomes admin
	admin, err := store.CreateUser("admin", "admin@example.com", "admin-pass", false)
	if err != nil {
		return err
	}
	chef, err := store.CreateUser("chef", "chef@example.com", "chef-pass", true)
	if err != nil {
		return err
	}
	eater, err := store.CreateUser("eater", "eater@example.com", "eater-pass", false)
	if err != nil {
		return err
	}
	_ = admin

	pho, err := store.CreateShop(chef.ID, models.ShopRequest{
		Name:         "Pho 88",
		Address:      "88 Nguyen Hue",
		City:         "Ho Chi Minh City",
		Phone:        "+84 28 1234 5678",
		OpeningHours: "07:00-22:00",
		Description:  "Beef pho simmered overnight.",
		Latitude:     10.7731,
		Longitude:    106.7030,
	})
	if err != nil {
		return err
	}

	_, err = store.CreateShop(chef.ID, models.ShopRequest{
		Name:        "Bun Cha Corner",
		Address:     "12 Le Loi",
		City:        "Hanoi",
		Description: "Charcoal-grilled pork with rice noodles.",
		Latitude:    21.0278,
		Longitude:   105.8342,
	})
	if err != nil {
		return err
	}

	for i := 0; i < 7; i++ {
		rating := 3 + i%3
		review, err := store.CreateReview(eater.ID, models.CreateReviewRequest{
			ShopID:  pho.ID,
			Rating:  &rating,
			Content: fmt.Sprintf("Visit %d: broth still excellent.", i+1),
		}, nil)
		if err != nil {
			return err
		}
		if i%2 == 0 {
			parent := review.ID
			if _, err := store.CreateReview(chef.ID, models.CreateReviewRequest{
				ShopID:         pho.ID,
				ParentReviewID: &parent,
				Content:        "Thanks for coming back!",
			}, nil); err != nil {
				return err
			}
		}
	}

	// keep timestamps from all landing on the same instant
	time.Sleep(time.Millisecond)
	return nil
}
