package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ask-io/internal/config"
	"ask-io/internal/db"
	"ask-io/internal/repository"
	"ask-io/internal/service"
)

func main() {
	userID := flag.String("user", "", "user id to inspect")
	grant := flag.Int("grant", 0, "credits to add before printing the balance")
	history := flag.Bool("history", false, "print usage history")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		log.Fatal(err)
	}

	credits := service.NewCreditService(logger, repository.NewPgCreditRepository(pool), repository.NewPgCreditUsageRepository(pool), cfg.CreditsDefaultGrant)

	account, err := credits.GetOrCreateAccount(ctx, *userID)
	if err != nil {
		log.Fatal(err)
	}
	if *grant != 0 {
		account, err = credits.Grant(ctx, *userID, *grant)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("granted %d credits\n", *grant)
	}

	fmt.Printf("user:      %s\n", account.UserID)
	fmt.Printf("total:     %d\n", account.TotalCredits)
	fmt.Printf("used:      %d\n", account.UsedCredits)
	fmt.Printf("remaining: %d\n", account.Remaining())

	if !*history {
		return
	}
	records, err := credits.ListUsageHistory(ctx, *userID)
	if err != nil {
		log.Fatal(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nWHEN\tOPERATION\tCREDITS\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.CreatedAt.Format(time.RFC3339), r.Operation, r.CreditsUsed, r.Description)
	}
	_ = w.Flush()
}
