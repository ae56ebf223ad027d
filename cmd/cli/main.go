package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/budget"
	"github.com/dvloznov/family-budget/internal/config"
	"github.com/dvloznov/family-budget/internal/logger"
	"github.com/dvloznov/family-budget/internal/parser"
	"github.com/dvloznov/family-budget/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "budget":
		runBudget(log)
	case "categories":
		runCategories(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Family Budget CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse       Parse a smart-input line into a command")
	fmt.Println("  budget      Show the monthly budget summary")
	fmt.Println("  categories  List budget categories")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore connects using DATABASE_URL from the environment.
func openStore(ctx context.Context, log zerolog.Logger) *postgres.Storage {
	cfg := config.MustLoad()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	return postgres.NewStorage(pool)
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Input text to parse, e.g. 'coffee 50k yesterday'")
	useStore := fs.Bool("categories-from-db", false, "Load the category vocabulary from the database")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var names []string
	if *useStore {
		store := openStore(ctx, log)
		defer store.Close()
		cats, err := store.ListCategories(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list categories")
		}
		for _, c := range cats {
			names = append(names, c.Name)
		}
	}

	cfg := config.MustLoad()
	completer, err := parser.NewGeminiCompleter(ctx, parser.WithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	result := parser.New(completer, parser.WithLogger(log)).ParseInput(ctx, *text, names)

	switch {
	case result.Err != nil:
		fmt.Printf("Parse failed: %s\n", result.Err.Message)
		os.Exit(1)
	case result.Category != nil:
		cmd := result.Category
		fmt.Printf("Category command: %s %q", cmd.Action, cmd.Name)
		if cmd.Budget != nil {
			fmt.Printf(" budget=%.0f", *cmd.Budget)
		}
		fmt.Println()
	case result.Expense != nil:
		exp := result.Expense
		fmt.Printf("Expense: %.0f %q category=%s", exp.Amount, exp.Description, exp.Category)
		if exp.Date != nil {
			fmt.Printf(" date=%s", *exp.Date)
		}
		if exp.IsAnnieRelated {
			fmt.Print(" (Annie)")
		}
		fmt.Println()
	}
}

func runBudget(log zerolog.Logger) {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	now := time.Now()
	year := fs.Int("year", now.Year(), "Year to summarize")
	month := fs.Int("month", int(now.Month()), "Month to summarize (1-12)")
	fs.Parse(os.Args[2:])

	if *month < 1 || *month > 12 {
		log.Fatal().Msg("Error: --month must be between 1 and 12")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openStore(ctx, log)
	defer store.Close()

	categories, err := store.ListCategories(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list categories")
	}
	txs, err := store.ListMonthTransactions(ctx, *year, *month, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	summary := budget.Aggregate(categories, txs)

	fmt.Printf("\n=== Budget %04d-%02d ===\n", *year, *month)
	fmt.Printf("Total budget:    %12.0f\n", summary.TotalBudget)
	fmt.Printf("Total spent:     %12.0f\n", summary.TotalSpent)
	fmt.Printf("Total remaining: %12.0f\n", summary.TotalRemaining)

	fmt.Println("\nPer category:")
	for _, cs := range summary.PerCategory {
		fmt.Printf("  %-16s %12.0f / %-12.0f [%s]\n",
			cs.Category.Name, cs.Spent, cs.Category.MonthlyBudget, cs.Status)
	}

	if uncat := budget.UncategorizedSpent(categories, txs); uncat > 0 {
		fmt.Printf("\nUncategorized spend: %.0f\n", uncat)
	}
	fmt.Println()
}

func runCategories(log zerolog.Logger) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openStore(ctx, log)
	defer store.Close()

	categories, err := store.ListCategories(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list categories")
	}

	fmt.Printf("\n=== Categories (%d) ===\n", len(categories))
	for _, c := range categories {
		fixed := ""
		if c.IsFixed {
			fixed = " (fixed)"
		}
		fmt.Printf("  %-16s %12.0f%s\n", c.Name, c.MonthlyBudget, fixed)
	}
	fmt.Println()
}
