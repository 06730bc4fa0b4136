package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"deckerr/internal/cards"
	"deckerr/internal/deck"
	"deckerr/internal/grpcserver"
	"deckerr/internal/rules"
	"deckerr/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

type cardListResponse struct {
	Query string        `json:"query"`
	Total int           `json:"total"`
	Items []models.Card `json:"items"`
}

type deckListResponse struct {
	Total int            `json:"total"`
	Items []deck.Summary `json:"items"`
}

type importResponse struct {
	Deck       models.Deck            `json:"deck"`
	Validation rules.ValidationResult `json:"validation"`
	Import     deck.ImportReport      `json:"import"`
}

type landsResponse struct {
	Deck       models.Deck            `json:"deck"`
	Validation rules.ValidationResult `json:"validation"`
	Suggestion rules.LandSuggestion   `json:"suggestion"`
}

func main() {
	global := flag.NewFlagSet("deckerr", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "cards":
		handleCards(ctx, client, *baseURL, sub, rest)
	case "deck":
		handleDeck(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "sync":
		handleSync(*baseURL, sub, rest)
	case "grpc":
		handleGRPC(ctx, *tokenPath, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		login := fs.String("login", "", "email or username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *login == "" || *password == "" {
			log.Fatal("login and password are required")
		}

		payload := map[string]string{"login": *login, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, tokenData{Token: resp.Token, UserID: resp.User.ID}); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, tokenData{Token: resp.Token, UserID: resp.User.ID}); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		td := mustToken(tokenPath)
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/logout", td.Token, nil, nil); err != nil {
			log.Printf("server logout failed: %v", err)
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("clear token: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: deckerr auth login|register|logout")
	}
}

func handleCards(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "search":
		fs := flag.NewFlagSet("cards search", flag.ExitOnError)
		q := fs.String("q", "", "raw search query")
		var adv cards.Query
		fs.StringVar(&adv.Name, "name", "", "card name")
		fs.StringVar(&adv.TypeLine, "type", "", "type line")
		colors := fs.String("colors", "", "colors, e.g. WU")
		fs.StringVar(&adv.Format, "format", "", "legal in format")
		fs.StringVar(&adv.Set, "set", "", "set code")
		_ = fs.Parse(args)

		if *colors != "" {
			adv.Colors = []string{*colors}
		}
		query := strings.TrimSpace(*q)
		if query == "" {
			query = adv.String()
		}
		if query == "" {
			log.Fatal("a query or search fields are required")
		}

		var resp cardListResponse
		u := baseURL + "/cards?" + url.Values{"q": {query}}.Encode()
		if err := doJSON(ctx, client, http.MethodGet, u, "", nil, &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}
		for _, c := range resp.Items {
			fmt.Printf("%-38s %-14s %s\n", c.ID, c.ManaCost, c.Name)
		}
		fmt.Printf("%d cards\n", resp.Total)
	case "show":
		fs := flag.NewFlagSet("cards show", flag.ExitOnError)
		id := fs.String("id", "", "card id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("id is required")
		}

		var card models.Card
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/cards/"+url.PathEscape(*id), "", nil, &card); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(card)
	case "random":
		fs := flag.NewFlagSet("cards random", flag.ExitOnError)
		count := fs.Int("count", 5, "number of cards")
		_ = fs.Parse(args)

		var resp cardListResponse
		u := fmt.Sprintf("%s/cards/random?count=%d", baseURL, *count)
		if err := doJSON(ctx, client, http.MethodGet, u, "", nil, &resp); err != nil {
			log.Fatalf("random failed: %v", err)
		}
		for _, c := range resp.Items {
			fmt.Printf("%-14s %s (%s)\n", c.ManaCost, c.Name, c.TypeLine)
		}
	default:
		log.Fatal("usage: deckerr cards search|show|random")
	}
}

func handleDeck(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		td := mustToken(tokenPath)
		var resp deckListResponse
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/decks?limit=100", td.Token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		for _, d := range resp.Items {
			fmt.Printf("%s  %-10s %3d cards  %s\n", d.ID, d.Format, d.TotalCards, d.Name)
		}
	case "show":
		td := mustToken(tokenPath)
		id := deckIDFlag("deck show", args)
		var d models.Deck
		if err := doJSON(ctx, client, http.MethodGet, deckURL(baseURL, id, ""), td.Token, nil, &d); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(d)
	case "create":
		fs := flag.NewFlagSet("deck create", flag.ExitOnError)
		name := fs.String("name", "", "deck name")
		format := fs.String("format", "standard", "format")
		file := fs.String("file", "", "optional decklist to import")
		_ = fs.Parse(args)

		f, err := models.ParseFormat(*format)
		if err != nil {
			log.Fatal(err)
		}
		td := mustToken(tokenPath)
		var saved deck.Saved
		payload := deck.DeckInput{Name: *name, Format: f}
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/decks", td.Token, payload, &saved); err != nil {
			log.Fatalf("create failed: %v", err)
		}
		fmt.Printf("created %s\n", saved.Deck.ID)
		if *file != "" {
			importFile(ctx, client, baseURL, td.Token, saved.Deck.ID, *file)
		}
	case "import":
		fs := flag.NewFlagSet("deck import", flag.ExitOnError)
		id := fs.String("id", "", "deck id")
		file := fs.String("file", "", "decklist file (N Card Name per line)")
		_ = fs.Parse(args)
		if *id == "" || *file == "" {
			log.Fatal("id and file are required")
		}
		importFile(ctx, client, baseURL, mustToken(tokenPath).Token, *id, *file)
	case "validate":
		td := mustToken(tokenPath)
		id := deckIDFlag("deck validate", args)
		var a deck.Analysis
		if err := doJSON(ctx, client, http.MethodGet, deckURL(baseURL, id, "/analysis"), td.Token, nil, &a); err != nil {
			log.Fatalf("validate failed: %v", err)
		}
		printValidation(a.Validation)
		fmt.Printf("cards: %d (lands %d), avg mana value %.2f, price $%.2f\n",
			a.TotalCards, a.LandCards, a.ManaCurve, a.TotalPriceUSD)
	case "lands":
		td := mustToken(tokenPath)
		id := deckIDFlag("deck lands", args)
		var resp landsResponse
		if err := doJSON(ctx, client, http.MethodPost, deckURL(baseURL, id, "/lands"), td.Token, nil, &resp); err != nil {
			log.Fatalf("lands failed: %v", err)
		}
		fmt.Printf("added %d lands: ", resp.Suggestion.LandsToAdd)
		for _, c := range rules.Colors {
			fmt.Printf("%s=%d ", c, resp.Suggestion.Distribution[c])
		}
		fmt.Println()
		printValidation(resp.Validation)
	case "export":
		fs := flag.NewFlagSet("deck export", flag.ExitOnError)
		id := fs.String("id", "", "deck id")
		out := fs.String("out", "", "output file (stdout if empty)")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("id is required")
		}

		text, err := doText(ctx, client, deckURL(baseURL, *id, "/export"), mustToken(tokenPath).Token)
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		if *out == "" {
			fmt.Print(text)
			return
		}
		if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		fmt.Printf("wrote %s\n", *out)
	default:
		log.Fatal("usage: deckerr deck list|show|create|import|validate|lands|export")
	}
}

func handleSync(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		user := fs.String("user", "", "only events of this user id")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr, *user, *pretty); err != nil {
				log.Printf("[sync] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "ws":
		fs := flag.NewFlagSet("sync ws", flag.ExitOnError)
		user := fs.String("user", "", "only events of this user id")
		_ = fs.Parse(args)

		endpoint, err := websocketURL(baseURL, "/ws", *user)
		if err != nil {
			log.Fatalf("ws url: %v", err)
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("ws failed: %v", err)
		}
	default:
		log.Fatal("usage: deckerr sync listen|ws")
	}
}

// handleGRPC reads a deck through the gRPC service, using the user id
// stored at login.
func handleGRPC(ctx context.Context, tokenPath, sub string, args []string) {
	switch sub {
	case "deck":
		fs := flag.NewFlagSet("grpc deck", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:9090", "gRPC server address")
		id := fs.String("id", "", "deck id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("id is required")
		}

		cc, err := grpcserver.Dial(*addr)
		if err != nil {
			log.Fatal(err)
		}
		defer cc.Close()

		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		resp, err := grpcserver.NewClient(cc).GetDeck(ctx, &grpcserver.GetDeckRequest{
			UserID: mustToken(tokenPath).UserID,
			DeckID: *id,
		})
		if err != nil {
			log.Fatalf("get deck: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: deckerr grpc deck -id <deck id>")
	}
}

func importFile(ctx context.Context, client *http.Client, baseURL, token, id, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deckURL(baseURL, id, "/import"), strings.NewReader(string(data)))
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)

	var resp importResponse
	if err := do(client, req, &resp); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	fmt.Printf("imported %d cards\n", resp.Import.Added)
	for _, name := range resp.Import.Missing {
		fmt.Printf("  not found: %s\n", name)
	}
	printValidation(resp.Validation)
}

func deckIDFlag(name string, args []string) string {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.String("id", "", "deck id")
	_ = fs.Parse(args)
	if *id == "" {
		log.Fatal("id is required")
	}
	return *id
}

func deckURL(baseURL, id, suffix string) string {
	return baseURL + "/decks/" + url.PathEscape(id) + suffix
}

func printValidation(v rules.ValidationResult) {
	if v.IsValid {
		fmt.Println("deck is legal")
		return
	}
	fmt.Println("deck is not legal:")
	for _, e := range v.Errors {
		fmt.Printf("  - %s\n", e)
	}
}

func runSyncTCP(addr, user string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	if user != "" {
		if _, err := fmt.Fprintf(conn, "subscribe %s\n", user); err != nil {
			return err
		}
	}

	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[ws] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Print(string(msg))
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(client, req, out)
}

func doText(ctx context.Context, client *http.Client, endpoint, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s failed: %s", endpoint, strings.TrimSpace(string(data)))
	}
	return string(data), nil
}

func do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", req.Method, req.URL, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.deckerr-token.json"
	}
	return filepath.Join(home, ".deckerr", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	var td tokenData
	data, err := os.ReadFile(path)
	if err != nil {
		return td, err
	}
	if err := json.Unmarshal(data, &td); err != nil {
		return td, err
	}
	td.Token = strings.TrimSpace(td.Token)
	return td, nil
}

func mustToken(path string) tokenData {
	td, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if td.Token == "" {
		log.Fatal("token empty, please login")
	}
	return td
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path, user string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	out := url.URL{Scheme: scheme, Host: u.Host, Path: path}
	if user != "" {
		out.RawQuery = url.Values{"user_id": {user}}.Encode()
	}
	return out.String(), nil
}

func printUsage() {
	fmt.Println("deckerr [-api URL] [-token FILE] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  cards search|show|random")
	fmt.Println("  deck list|show|create|import|validate|lands|export")
	fmt.Println("  sync listen|ws")
	fmt.Println("  grpc deck")
}
