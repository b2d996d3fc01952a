package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/app"
	"github.com/dvloznov/finla/internal/classifier"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/config"
	"github.com/dvloznov/finla/internal/csvio"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/export/gcs"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/dvloznov/finla/internal/quotes"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	log := logger.NewWithWriter(os.Stderr)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log)
	case "import":
		runImport(log)
	case "export-csv":
		runExportCSV(log)
	case "dashboard":
		runDashboard(log)
	case "classify":
		runClassify()
	case "streak":
		runStreak(log)
	case "quote":
		runQuote()
	case "account":
		runAccount(log)
	case "goal":
		runGoal(log)
	case "sync":
		runSync(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("finla CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add         Record one expense")
	fmt.Println("  import      Import expenses from a CSV file")
	fmt.Println("  export-csv  Write every expense to a CSV file")
	fmt.Println("  dashboard   Show balances, budget, insights and engagement")
	fmt.Println("  classify    Preview the category of a description")
	fmt.Println("  streak      Check the tracking streak or spend a freeze")
	fmt.Println("  quote       Show motivational quotes")
	fmt.Println("  account     List, set or delete bank accounts")
	fmt.Println("  goal        List or add savings goals")
	fmt.Println("  sync        Export the ledger to bigquery, gcs or notion")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// open loads the config named by -config and wires the components. Log
// settings from the config replace log.
func open(configPath string, log zerolog.Logger) (context.Context, *app.App, zerolog.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configured, err := logger.NewWithOptions(logger.Options{Format: cfg.Log.Format, Level: cfg.Log.Level}, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log settings")
	}
	log = configured

	ctx := logger.WithContext(context.Background(), log)
	a, err := app.New(ctx, cfg, clock.NewReal(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	return ctx, a, log
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", os.Getenv("FINLA_CONFIG"), "Path to the finla config file (or set FINLA_CONFIG env)")
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := configFlag(fs)
	amount := fs.String("amount", "", "Amount spent")
	description := fs.String("desc", "", "What the money was spent on")
	method := fs.String("method", "", "Payment method, e.g. cash or gpay")
	date := fs.String("date", "", "Date as YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *amount == "" || *description == "" {
		log.Fatal().Msg("Usage: cli add -amount N -desc TEXT [-method M] [-date YYYY-MM-DD]")
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid amount")
	}
	in := domain.NewTransaction{Amount: value, Description: *description, PaymentMethod: *method}
	if *date != "" {
		d, err := civil.ParseDate(*date)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid date")
		}
		in.Date = &d
	}

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	res, err := a.Engine.AddTransaction(ctx, in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add transaction")
	}

	tx := res.Transaction
	fmt.Printf("Recorded %s %s on %s as %s (%.0f%% sure)\n", tx.Amount.StringFixed(2), tx.Description, tx.Date, tx.Category, tx.Confidence*100)
	if tx.Bank != "" {
		fmt.Printf("Charged to %s\n", tx.Bank)
	}
	if res.Karma != nil {
		fmt.Printf("+%d karma (total %d, level %d)\n", res.Karma.KarmaEarned+res.Karma.AchievementPoints, res.Karma.KarmaPoints, res.Karma.Level)
		printAchievements(res.Karma.NewAchievements)
	}
	if res.Streak != nil {
		fmt.Printf("Streak: %d days\n", res.Streak.Streak)
		printAchievements(res.Streak.NewAchievements)
	}
	if res.EngagementError != "" {
		fmt.Printf("Engagement not updated: %s\n", res.EngagementError)
	}
}

func printAchievements(list []engagement.EarnedAchievement) {
	for _, a := range list {
		fmt.Printf("Achievement unlocked: %s %s (+%d)\n", a.Icon, a.Name, a.Points)
	}
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := configFlag(fs)
	filePath := fs.String("file", "", "Path to the CSV file, local or gs://bucket/object")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	var src io.Reader
	if gcs.IsURI(*filePath) {
		data, err := gcs.Fetch(ctx, *filePath)
		if err != nil {
			log.Fatal().Err(err).Str("uri", *filePath).Msg("Failed to fetch file from GCS")
		}
		src = bytes.NewReader(data)
	} else {
		f, err := os.Open(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open file")
		}
		defer f.Close()
		src = f
	}

	rows, err := csvio.ReadNew(src)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read CSV")
	}

	res, err := a.Engine.ImportTransactions(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Imported %d transactions, +%d karma\n", res.Added, res.KarmaEarned)
	printAchievements(res.NewAchievements)
	if res.EngagementError != "" {
		fmt.Printf("Engagement not updated: %s\n", res.EngagementError)
	}
}

func runExportCSV(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)
	configPath := configFlag(fs)
	out := fs.String("out", "", "Output file (defaults to finla_transactions_YYYYMMDD.csv)")
	fs.Parse(os.Args[2:])

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	if *out == "" {
		*out = fmt.Sprintf("finla_transactions_%s.csv", time.Now().Format("20060102"))
	}

	txs, err := a.Engine.TransactionLog(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create file")
	}
	if err := csvio.Write(f, txs); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close file")
	}

	fmt.Printf("Wrote %d transactions to %s\n", len(txs), *out)
}

func runDashboard(log zerolog.Logger) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	configPath := configFlag(fs)
	asJSON := fs.Bool("json", false, "Print the full dashboard as JSON")
	fs.Parse(os.Args[2:])

	ctx, a, _ := open(*configPath, log)
	defer a.Close()

	d := a.Engine.Dashboard(ctx)

	if *asJSON {
		printJSON(d)
		return
	}

	fmt.Printf("\n\"%s\"\n  - %s\n", d.Quote.Text, d.Quote.Author)

	fmt.Println("\n=== Balances ===")
	banks := make([]string, 0, len(d.Balances.Banks))
	for name := range d.Balances.Banks {
		banks = append(banks, name)
	}
	sort.Strings(banks)
	for _, name := range banks {
		fmt.Printf("%-12s %12s\n", name, d.Balances.Banks[name].StringFixed(2))
	}
	fmt.Printf("%-12s %12s\n", "Total", d.Balances.Total.StringFixed(2))
	for _, alert := range d.Balances.Alerts {
		fmt.Printf("! %s is %s below its minimum (%s)\n", alert.Bank, alert.Deficit.StringFixed(2), alert.Severity)
	}

	fmt.Printf("\n=== Budget %s ===\n", d.Budget.Month)
	fmt.Printf("Needs:   %s of %s\n", d.Budget.NeedsSpent.StringFixed(2), d.Budget.NeedsBudget.StringFixed(2))
	fmt.Printf("Wants:   %s of %s\n", d.Budget.WantsSpent.StringFixed(2), d.Budget.WantsBudget.StringFixed(2))
	fmt.Printf("Savings: %s of %s\n", d.Budget.SavingsActual.StringFixed(2), d.Budget.SavingsTarget.StringFixed(2))
	fmt.Printf("Health:  %s\n", d.Budget.BudgetHealth)

	fmt.Printf("\n=== Insights (%d days) ===\n", d.Insights.PeriodDays)
	fmt.Printf("Trend: %s\n", d.Insights.SpendingTrend)
	for _, rec := range d.Insights.Recommendations {
		fmt.Printf("- %s\n", rec)
	}

	fmt.Printf("\n=== Health: %.0f/100 (%s) ===\n", d.Health.Score, d.Health.Grade)
	for _, factor := range d.Health.Factors {
		fmt.Printf("- %s\n", factor)
	}

	if d.Stats != nil && d.Level != nil {
		fmt.Println("\n=== Engagement ===")
		fmt.Printf("Streak: %d (best %d), freezes left: %d\n", d.Stats.Streak, d.Stats.MaxStreak, d.Stats.StreakFreezeCount)
		fmt.Printf("Level %d, %d karma, %d to next level\n", d.Level.CurrentLevel, d.Level.KarmaPoints, d.Level.PointsToNext)
	}
	if d.Weekly != nil {
		fmt.Printf("This week: %d transactions, %d karma\n", d.Weekly.WeeklyTransactions, d.Weekly.WeeklyKarma)
	}

	fmt.Println("\n=== Recent ===")
	for _, tx := range d.Recent {
		fmt.Printf("%s  %10s  %-14s %s\n", tx.Date, tx.Amount.StringFixed(2), tx.Category, tx.Description)
	}
	for _, w := range d.Warnings {
		fmt.Printf("\nwarning: %s\n", w)
	}
	fmt.Println()
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	amount := fs.String("amount", "0", "Amount, used to refine the confidence")
	fs.Parse(os.Args[2:])

	description := strings.Join(fs.Args(), " ")
	if description == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli classify [-amount N] DESCRIPTION")
		os.Exit(1)
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid amount: %v\n", err)
		os.Exit(1)
	}

	res := classifier.Classify(description, value)
	info := classifier.Info(res.Category)
	fmt.Printf("%s %s (confidence %.2f)\n", info.Glyph, res.Category, res.Confidence)
}

func runStreak(log zerolog.Logger) {
	fs := flag.NewFlagSet("streak", flag.ExitOnError)
	configPath := configFlag(fs)
	freeze := fs.Bool("freeze", false, "Spend one streak freeze")
	fs.Parse(os.Args[2:])

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	if *freeze {
		used, err := a.Tracker.UseStreakFreeze(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to use streak freeze")
		}
		if !used {
			fmt.Println("No streak freezes left.")
			return
		}
		fmt.Println("Streak freeze used.")
	}

	res, err := a.Tracker.UpdateStreak(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to update streak")
	}
	fmt.Printf("Streak: %d days (best %d), freezes left: %d\n", res.Streak, res.MaxStreak, res.StreakFreezeCount)
	if res.FreezeUsed {
		fmt.Println("A streak freeze covered a missed day.")
	}
	if res.KarmaEarned > 0 {
		fmt.Printf("+%d karma\n", res.KarmaEarned)
	}
	printAchievements(res.NewAchievements)
}

func runQuote() {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	situation := fs.String("situation", "", "low_balance, high_spending or good_savings")
	category := fs.String("category", "", "Quote category")
	author := fs.String("author", "", "Quotes by author")
	search := fs.String("search", "", "Quotes mentioning a keyword")
	week := fs.Bool("week", false, "One quote for each of the next seven days")
	collection := fs.String("collection", "", "thirukkural, buffett or wisdom")
	random := fs.Bool("random", false, "Any quote, picked at random")
	fs.Parse(os.Args[2:])

	now := time.Now()
	today := civil.DateOf(now)

	switch {
	case *random:
		q := quotes.Random(rand.New(rand.NewSource(now.UnixNano())))
		fmt.Printf("\"%s\"\n  - %s\n", q.Text, q.Author)
	case *collection != "":
		q, err := quotes.FromCollection(quotes.Collection(*collection), today)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\"%s\"\n  - %s\n", q.Text, q.Author)
	case *week:
		for _, q := range quotes.Weekly(today) {
			fmt.Printf("%-9s \"%s\" - %s\n", q.DayName, q.Text, q.Author)
		}
	case *author != "":
		printQuotes(quotes.ByAuthor(*author))
	case *search != "":
		printQuotes(quotes.Search(*search))
	case *category != "":
		q := quotes.ByCategory(*category, today)
		fmt.Printf("\"%s\"\n  - %s\n", q.Text, q.Author)
	default:
		q := quotes.Daily(today, *situation)
		fmt.Printf("\"%s\"\n  - %s\n", q.Text, q.Author)
		if q.Translation != "" {
			fmt.Printf("  (%s)\n", q.Translation)
		}
	}
}

func printQuotes(list []quotes.Quote) {
	if len(list) == 0 {
		fmt.Println("No quotes found.")
		return
	}
	for _, q := range list {
		fmt.Printf("\"%s\" - %s [%s]\n", q.Text, q.Author, q.Category)
	}
}

func runAccount(log zerolog.Logger) {
	if len(os.Args) < 3 {
		log.Fatal().Msg("Usage: cli account list|set|delete [options]")
	}

	fs := flag.NewFlagSet("account "+os.Args[2], flag.ExitOnError)
	configPath := configFlag(fs)
	name := fs.String("name", "", "Account name")
	initial := fs.String("initial", "0", "Initial balance")
	minBalance := fs.String("min", "0", "Minimum balance before an alert is raised")
	aliases := fs.String("aliases", "", "Comma-separated payment methods charged to this account")
	fs.Parse(os.Args[3:])

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	switch os.Args[2] {
	case "list":
		accounts, err := a.Store.ListAccounts(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list accounts")
		}
		for _, acc := range accounts {
			fmt.Printf("%-12s initial %12s  min %10s  aliases %s\n",
				acc.Name, acc.InitialBalance.StringFixed(2), acc.MinBalance.StringFixed(2), strings.Join(acc.LinkedPaymentAliases, ","))
		}
	case "set":
		if *name == "" {
			log.Fatal().Msg("Error: --name is required")
		}
		acc := domain.Account{Name: *name, LinkedPaymentAliases: []string{}}
		var err error
		if acc.InitialBalance, err = decimal.NewFromString(*initial); err != nil {
			log.Fatal().Err(err).Msg("Invalid initial balance")
		}
		if acc.MinBalance, err = decimal.NewFromString(*minBalance); err != nil {
			log.Fatal().Err(err).Msg("Invalid minimum balance")
		}
		for _, alias := range strings.Split(*aliases, ",") {
			if alias = strings.TrimSpace(alias); alias != "" {
				acc.LinkedPaymentAliases = append(acc.LinkedPaymentAliases, alias)
			}
		}
		if err := a.Store.UpsertAccount(ctx, acc); err != nil {
			log.Fatal().Err(err).Msg("Failed to save account")
		}
		fmt.Printf("Saved account %s\n", acc.Name)
	case "delete":
		if *name == "" {
			log.Fatal().Msg("Error: --name is required")
		}
		if err := a.Store.DeleteAccount(ctx, *name); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete account")
		}
		fmt.Printf("Deleted account %s\n", *name)
	default:
		log.Fatal().Str("subcommand", os.Args[2]).Msg("Unknown account subcommand")
	}
}

func runGoal(log zerolog.Logger) {
	if len(os.Args) < 3 {
		log.Fatal().Msg("Usage: cli goal list|add [options]")
	}

	fs := flag.NewFlagSet("goal "+os.Args[2], flag.ExitOnError)
	configPath := configFlag(fs)
	name := fs.String("name", "", "Goal name")
	target := fs.String("target", "", "Target amount")
	current := fs.String("current", "0", "Amount saved so far")
	by := fs.String("by", "", "Target date as YYYY-MM-DD")
	fs.Parse(os.Args[3:])

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	switch os.Args[2] {
	case "list":
		goals, err := a.Store.ListGoals(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list goals")
		}
		for _, g := range goals {
			fmt.Printf("%3d  %-20s %12s / %12s  by %s\n", g.ID, g.Name, g.CurrentAmount.StringFixed(2), g.TargetAmount.StringFixed(2), g.TargetDate)
		}
	case "add":
		g := domain.Goal{Name: *name}
		var err error
		if g.TargetAmount, err = decimal.NewFromString(*target); err != nil {
			log.Fatal().Err(err).Msg("Invalid target amount")
		}
		if g.CurrentAmount, err = decimal.NewFromString(*current); err != nil {
			log.Fatal().Err(err).Msg("Invalid current amount")
		}
		if *by != "" {
			if g.TargetDate, err = civil.ParseDate(*by); err != nil {
				log.Fatal().Err(err).Msg("Invalid target date")
			}
		}
		saved, err := a.Engine.AddGoal(ctx, g)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add goal")
		}
		fmt.Printf("Added goal %d: %s\n", saved.ID, saved.Name)
	default:
		log.Fatal().Str("subcommand", os.Args[2]).Msg("Unknown goal subcommand")
	}
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := configFlag(fs)
	targetName := fs.String("target", "", "bigquery, gcs or notion")
	fs.Parse(os.Args[2:])

	target, err := export.ParseTarget(*targetName)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: --target must be bigquery, gcs or notion")
	}

	ctx, a, log := open(*configPath, log)
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	res, err := a.Exports.Run(ctx, target)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Exported %d transactions to %s", res.Exported, res.Target)
	if res.Skipped > 0 {
		fmt.Printf(" (%d already there)", res.Skipped)
	}
	if res.Location != "" {
		fmt.Printf(": %s", res.Location)
	}
	fmt.Println()
}
