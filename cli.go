package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Stunned1/Skribbl-Clone/internal/config"
)

// RunCLI handles subcommand execution. Returns true if a subcommand was
// handled.
func RunCLI(args []string) bool {
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "version":
		fmt.Printf("skribbl-server %s\n", Version)
		return true
	case "health":
		return cliHealth(args[1:])
	case "state":
		return cliState(args[1:])
	default:
		return false
	}
}

// serverURL resolves the optional address argument; bare host:port gets an
// http scheme.
func serverURL(args []string) string {
	addr := config.Default.Addr
	if len(args) > 0 && args[0] != "" {
		addr = args[0]
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/")
}

func cliGet(args []string, path string) []byte {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL(args) + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reaching server: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading response: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server answered %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	return body
}

func cliHealth(args []string) bool {
	body := cliGet(args, "/health")

	var health struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		fmt.Fprintf(os.Stderr, "error decoding response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Status: %s\n", health.Status)
	fmt.Printf("Message: %s\n", health.Message)
	return true
}

func cliState(args []string) bool {
	body := cliGet(args, "/api/state")

	var state struct {
		Rooms       int              `json:"rooms"`
		Players     int              `json:"players"`
		Connections int              `json:"connections"`
		Stats       map[string]int64 `json:"stats"`
		RoomList    []struct {
			Code        string `json:"code"`
			State       string `json:"state"`
			Players     int    `json:"players"`
			RoundNumber int    `json:"round_number"`
			CycleNumber int    `json:"cycle_number"`
			MaxRounds   int    `json:"max_rounds"`
		} `json:"room_list"`
	}
	if err := json.Unmarshal(body, &state); err != nil {
		fmt.Fprintf(os.Stderr, "error decoding response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rooms: %d\n", state.Rooms)
	fmt.Printf("Players: %d\n", state.Players)
	fmt.Printf("Connections: %d\n", state.Connections)
	for _, r := range state.RoomList {
		fmt.Printf("  [%s] %s: %d players, round %d, cycle %d/%d\n",
			r.Code, r.State, r.Players, r.RoundNumber, r.CycleNumber, r.MaxRounds)
	}
	if len(state.Stats) > 0 {
		out, _ := json.MarshalIndent(state.Stats, "", "  ")
		fmt.Println(string(out))
	}
	return true
}
