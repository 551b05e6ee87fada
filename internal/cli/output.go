package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Session:
		o.printSession(v)
	case JoinResult:
		o.printJoinResult(v)
	case StartResult:
		o.printStartResult(v)
	case GameState:
		o.printGameState(v)
	case InventoryResult:
		o.printInventoryResult(v)
	case InteractResult:
		o.printInteractResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Member response type
type Member struct {
	ConnectionID int64  `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	IsHost       bool   `json:"is_host"`
}

// Session response type
type Session struct {
	Code        string   `json:"code"`
	State       string   `json:"state"`
	MaxPlayers  int      `json:"max_players"`
	GameStarted bool     `json:"game_started"`
	LevelName   string   `json:"level_name"`
	Members     []Member `json:"members"`
}

// JoinResult response type
type JoinResult struct {
	Session      Session `json:"session"`
	ConnectionID int64   `json:"connection_id"`
}

// StartResult response type
type StartResult struct {
	Hunter  int64            `json:"hunter_connection_id"`
	Spawned []int64          `json:"spawned"`
	Failed  map[int64]string `json:"failed,omitempty"`
}

// Vec2 response type
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerRecord response type
type PlayerRecord struct {
	ConnectionID int64  `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	IsHunter     bool   `json:"is_hunter"`
	SpawnPoint   Vec2   `json:"spawn_point"`
	Eliminated   bool   `json:"eliminated,omitempty"`
	Won          bool   `json:"won,omitempty"`
}

// Entity response type
type Entity struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Position  Vec2    `json:"position"`
	KeyID     int     `json:"key_id,omitempty"`
	KeyName   string  `json:"key_name,omitempty"`
	Collected bool    `json:"collected,omitempty"`
	Value     int     `json:"value,omitempty"`
	Open      bool    `json:"open,omitempty"`
	Blocked   bool    `json:"blocked,omitempty"`
	Occupants []int64 `json:"occupants,omitempty"`
}

// GameState response type
type GameState struct {
	Session  Session        `json:"session"`
	Players  []PlayerRecord `json:"players"`
	Entities []Entity       `json:"entities"`
}

// InventoryResult response type
type InventoryResult struct {
	Keys []int `json:"keys"`
}

// InteractResult response type
type InteractResult struct {
	Outcome string          `json:"outcome"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s\n", s.Code)
	fmt.Printf("State: %s\n", s.State)
	fmt.Printf("Level: %s\n", s.LevelName)
	fmt.Printf("Members (%d/%d):\n", len(s.Members), s.MaxPlayers)
	for _, m := range s.Members {
		hostStr := ""
		if m.IsHost {
			hostStr = " [host]"
		}
		fmt.Printf("  - %s (#%d)%s\n", m.DisplayName, m.ConnectionID, hostStr)
	}
}

func (o *Output) printJoinResult(j JoinResult) {
	o.printSession(j.Session)
	fmt.Printf("Your connection: #%d\n", j.ConnectionID)
}

func (o *Output) printStartResult(s StartResult) {
	fmt.Println("Game started")
	fmt.Printf("Hunter: #%d\n", s.Hunter)
	ids := make([]string, 0, len(s.Spawned))
	for _, id := range s.Spawned {
		ids = append(ids, fmt.Sprintf("#%d", id))
	}
	fmt.Printf("Spawned: %s\n", strings.Join(ids, ", "))
	for id, msg := range s.Failed {
		fmt.Printf("Failed: #%d (%s)\n", id, msg)
	}
}

func (o *Output) printGameState(g GameState) {
	o.printSession(g.Session)

	if len(g.Players) > 0 {
		fmt.Printf("\nPlayers (%d):\n", len(g.Players))
		for _, p := range g.Players {
			role := "runner"
			if p.IsHunter {
				role = "hunter"
			}
			status := ""
			if p.Eliminated {
				status = " [eliminated]"
			} else if p.Won {
				status = " [escaped]"
			}
			fmt.Printf("  - %s (#%d) - %s%s\n", p.DisplayName, p.ConnectionID, role, status)
		}
	}

	if len(g.Entities) > 0 {
		fmt.Printf("\nEntities (%d):\n", len(g.Entities))
		for _, e := range g.Entities {
			detail := ""
			switch e.Kind {
			case "key":
				detail = e.KeyName
				if e.Collected {
					detail += " [collected]"
				}
			case "cheese":
				detail = fmt.Sprintf("%d pts", e.Value)
				if e.Collected {
					detail += " [collected]"
				}
			case "door":
				if e.Open {
					detail = "open"
				} else {
					detail = "closed"
				}
			case "safe_zone":
				if e.Blocked {
					detail = fmt.Sprintf("blocked (%d inside)", len(e.Occupants))
				} else {
					detail = "open"
				}
			}
			fmt.Printf("  - %s (%s) at (%.1f, %.1f) %s\n", e.ID, e.Kind, e.Position.X, e.Position.Y, detail)
		}
	}
}

func (o *Output) printInventoryResult(i InventoryResult) {
	if len(i.Keys) == 0 {
		fmt.Println("No keys held")
		return
	}
	ids := make([]string, 0, len(i.Keys))
	for _, k := range i.Keys {
		ids = append(ids, fmt.Sprintf("%d", k))
	}
	fmt.Printf("Keys: %s\n", strings.Join(ids, ", "))
}

func (o *Output) printInteractResult(r InteractResult) {
	fmt.Printf("Outcome: %s\n", r.Outcome)
	if len(r.Payload) > 0 {
		fmt.Printf("Result: %s\n", string(r.Payload))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
