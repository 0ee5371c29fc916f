// Promote an existing account to moderator or admin.
//
//	go run ./tools/promote -username trinity -role moderator

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	config "github.com/plugfox/helpdesk-server/internal/config"
	log "github.com/plugfox/helpdesk-server/internal/log"
	"github.com/plugfox/helpdesk-server/internal/model"
	storage "github.com/plugfox/helpdesk-server/internal/storage"
)

func main() {
	username := flag.String("username", "", "account to promote")
	role := flag.String("role", string(model.RoleModerator), "new role: user, moderator or admin")
	flag.Parse()

	if *username == "" || !model.Role(*role).Valid() {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*username, model.Role(*role)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(username string, role model.Role) error {
	config, err := config.MustLoadConfig()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	db, err := storage.New(config, log.New(log.WithLevel(config.Verbose)))
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := db.SetRole(ctx, username, role)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", username, err)
	}

	fmt.Printf("%s (id %d) is now %s\n", user.Username, user.ID, user.Role)
	return nil
}
