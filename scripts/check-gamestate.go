package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/dmforge/dm-api/internal/entities/game"
)

// Validates every stored game-state record against the current schema and
// offers to delete the ones that no longer parse. Run it after a schema
// change before pointing the engine at an old data set.
func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis:", redisURL)
	fmt.Println("Scanning game-state records...")

	iter := client.Scan(ctx, 0, "gamestate:*", 0).Iterator()

	var badKeys []string
	var checkedCount int

	for iter.Next(ctx) {
		key := iter.Val()
		checkedCount++

		data, err := client.Get(ctx, key).Result()
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", key, err)
			continue
		}

		var state game.GameState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			fmt.Printf("✗ Unparsable record in %s: %v\n", key, err)
			badKeys = append(badKeys, key)
			continue
		}
		if state.Session.PlayerID == "" {
			fmt.Printf("✗ Record %s has no player identity\n", key)
			badKeys = append(badKeys, key)
		}
	}

	if err := iter.Err(); err != nil {
		log.Fatal("Error during scan:", err)
	}

	fmt.Printf("\nChecked %d keys, found %d bad records\n", checkedCount, len(badKeys))

	if len(badKeys) == 0 {
		fmt.Println("All records parse cleanly!")
		return
	}

	fmt.Println("\nBad keys:")
	for _, key := range badKeys {
		fmt.Printf("  - %s\n", key)
	}

	fmt.Print("\nDo you want to DELETE these records? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response == "yes" {
		for _, key := range badKeys {
			if err := client.Del(ctx, key).Err(); err != nil {
				fmt.Printf("Failed to delete %s: %v\n", key, err)
			} else {
				fmt.Printf("Deleted %s\n", key)
			}
		}
		fmt.Println("\nCleanup complete!")
	} else {
		fmt.Println("Aborted - no changes made")
	}
}
