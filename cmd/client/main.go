package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:4000/ws"`
	Username  string `env:"CHAT_USERNAME"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: dial, concurrent printing
// of server events, and a small stdin command loop.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if config.Username != "" {
		if err := send(conn, map[string]string{"type": "set-username", "username": config.Username}); err != nil {
			return exitRuntime, err
		}
	}

	// Server events are printed as they arrive; input is read in the
	// main goroutine.
	go printLoop(conn)

	color.Cyan.Println("Commands: /name <username>, /msg <identity> <text>, /quit; anything else is a group message")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return exitOK, nil
		case strings.HasPrefix(line, "/name "):
			err = send(conn, map[string]string{
				"type":     "set-username",
				"username": strings.TrimSpace(strings.TrimPrefix(line, "/name ")),
			})
		case strings.HasPrefix(line, "/msg "):
			rest := strings.TrimPrefix(line, "/msg ")
			to, body, found := strings.Cut(rest, " ")
			if !found || strings.TrimSpace(body) == "" {
				color.Red.Println("Usage: /msg <identity> <text>")
				continue
			}
			err = send(conn, map[string]string{"type": "private-message", "to": to, "message": body})
		default:
			err = send(conn, map[string]string{"type": "group-message", "message": line})
		}
		if err != nil {
			return exitRuntime, err
		}
	}

	return exitOK, scanner.Err()
}

func send(conn *websocket.Conn, frame map[string]string) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

type serverFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireMessage struct {
	From         string `json:"from"`
	FromUsername string `json:"fromUsername"`
	To           string `json:"to"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type wireInit struct {
	UserID          string        `json:"userId"`
	DefaultUsername string        `json:"defaultUsername"`
	MessageHistory  []wireMessage `json:"messageHistory"`
}

// printLoop renders every server event until the connection dies.
func printLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("Connection closed")
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		render(frame)
	}
}

func render(frame serverFrame) {
	switch frame.Type {
	case "init":
		var init wireInit
		if err := json.Unmarshal(frame.Data, &init); err != nil {
			return
		}
		color.Cyan.Printf("Connected as %s (%s), %d messages of history\n",
			init.DefaultUsername, init.UserID, len(init.MessageHistory))
		for _, m := range init.MessageHistory {
			printMessage(m, false)
		}

	case "username-set":
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			return
		}
		color.Cyan.Printf("You are now %s\n", username)

	case "online-users":
		var users []wireUser
		if err := json.Unmarshal(frame.Data, &users); err != nil {
			return
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Identity", "Username"})
		for _, u := range users {
			table.Append([]string{u.ID, u.Username})
		}
		table.Render()

	case "user-typing":
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			return
		}
		color.Gray.Printf("%s is typing...\n", username)

	case "user-stopped-typing":
		// Quiet: the next message or roster update clears the hint

	case "group-message":
		var msg wireMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return
		}
		printMessage(msg, false)

	case "private-message":
		var msg wireMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return
		}
		printMessage(msg, true)
	}
}

func printMessage(m wireMessage, private bool) {
	if private {
		color.Magenta.Printf("[private] %s: %s\n", m.FromUsername, m.Message)
		return
	}
	color.Green.Printf("%s: %s\n", m.FromUsername, m.Message)
}
