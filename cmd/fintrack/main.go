package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	apiclient "github.com/splax/fintrack/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL string `json:"api_base_url"`
	AccountID  string `json:"account_id"`
	Email      string `json:"email"`
}

var buildVersion = "dev"

const requestTimeout = 15 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout()
	case "tx":
		err = commandTx(args)
	case "health":
		err = commandHealth(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		return errors.New("--name and --email are required")
	}
	secret := *password
	confirm := *password
	if secret == "" {
		var err error
		if secret, err = promptPassword("Password: "); err != nil {
			return err
		}
		if confirm, err = promptPassword("Confirm password: "); err != nil {
			return err
		}
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	input := apiclient.RegisterInput{Name: *name, Email: *email, Password: secret, ConfirmPassword: confirm}
	if err := client.Register(ctx, input); err != nil {
		return err
	}
	acct, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccountID = acct.ID
	cfg.Email = acct.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", acct.Email, acct.ID)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret := *password
	if secret == "" {
		var err error
		if secret, err = promptPassword("Password: "); err != nil {
			return err
		}
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	acct, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccountID = acct.ID
	cfg.Email = acct.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", acct.Name)
	return nil
}

func commandLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AccountID = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandTx(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: fintrack tx [list|add|delete]")
	}
	switch args[0] {
	case "list":
		return txList(args[1:])
	case "add":
		return txAdd(args[1:])
	case "delete":
		return txDelete(args[1:])
	default:
		return fmt.Errorf("unknown tx command: %s", args[0])
	}
}

func txList(args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum number of transactions to display")
	fs.Parse(args)

	cfg, client, err := sessionClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	txns, err := client.ListTransactions(ctx, cfg.AccountID)
	if err != nil {
		return err
	}
	count := len(txns)
	if *limit > 0 && *limit < count {
		count = *limit
	}
	var income, expense float64
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION\tID")
	for _, t := range txns[:count] {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n", t.Date, t.Type, t.Amount, t.Category, t.Description, t.ID)
	}
	for _, t := range txns {
		if t.Type == "income" {
			income += t.Amount
		} else {
			expense += t.Amount
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nincome %.2f  expenses %.2f  balance %.2f\n", income, expense, income-expense)
	return nil
}

func txAdd(args []string) error {
	fs := flag.NewFlagSet("tx add", flag.ExitOnError)
	description := fs.String("description", "", "What the money was for")
	amount := fs.String("amount", "", "Positive amount, e.g. 12.50")
	kind := fs.String("type", "expense", "income|expense")
	category := fs.String("category", "", "Category label")
	date := fs.String("date", time.Now().Format("2006-01-02"), "Date as YYYY-MM-DD")
	fs.Parse(args)

	cfg, client, err := sessionClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	txn, err := client.CreateTransaction(ctx, cfg.AccountID, apiclient.TransactionInput{
		Description: *description,
		Amount:      *amount,
		Type:        *kind,
		Category:    *category,
		Date:        *date,
	})
	if err != nil {
		return err
	}
	fmt.Printf("transaction added: %s %s %.2f\n", txn.ID, txn.Type, txn.Amount)
	return nil
}

func txDelete(args []string) error {
	fs := flag.NewFlagSet("tx delete", flag.ExitOnError)
	id := fs.String("id", "", "Transaction identifier")
	fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	cfg, client, err := sessionClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := client.DeleteTransaction(ctx, cfg.AccountID, *id); err != nil {
		return err
	}
	fmt.Println("transaction deleted")
	return nil
}

func commandHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	_, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	h, err := client.Health(ctx)
	if h.Status != "" {
		fmt.Printf("status=%s database=%s message=%q\n", h.Status, h.Database, h.Message)
	}
	return err
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

func clientFor(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, nil, err
	}
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = strings.TrimSpace(apiBase)
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func sessionClient() (cliConfig, *apiclient.Client, error) {
	cfg, client, err := clientFor("")
	if err != nil {
		return cliConfig{}, nil, err
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return cliConfig{}, nil, errors.New("please login first using 'fintrack login'")
	}
	return cfg, client, nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: apiclient.DefaultBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = apiclient.DefaultBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "fintrack", "config.json"), nil
}

func printUsage() {
	fmt.Printf("fintrack CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	fintrack register --name Ann --email ann@example.com [--password secret] [--api http://127.0.0.1:5000]
	fintrack login --email ann@example.com [--password secret] [--api http://127.0.0.1:5000]
	fintrack logout
	fintrack tx list [--limit N]
	fintrack tx add --description Rent --amount 1200 --type expense --category Housing [--date YYYY-MM-DD]
	fintrack tx delete --id <transaction-id>
	fintrack health [--api url]
	fintrack version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
