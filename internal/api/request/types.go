package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateSessionRequest is the request body for creating a game session
type CreateSessionRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// JoinSessionRequest is the request body for joining a session
type JoinSessionRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// InteractRequest is the request body for interacting with an entity
type InteractRequest struct {
	EntityID string `json:"entity_id"`
	Action   string `json:"action"`
}

// Interaction actions accepted by the interact endpoint
const (
	ActionCollect       = "collect"
	ActionOpenDoor      = "open_door"
	ActionCloseDoor     = "close_door"
	ActionEnterSafeZone = "enter_safe_zone"
	ActionExitSafeZone  = "exit_safe_zone"
	ActionReachExit     = "reach_exit"
)

// CatchRequest is the request body for a hunter catch attempt.
// Facing is the hunter's facing direction; ToTarget is the vector from the
// hunter to the target at collision time.
type CatchRequest struct {
	TargetConnectionID int64   `json:"target_connection_id"`
	FacingX            float64 `json:"facing_x"`
	FacingY            float64 `json:"facing_y"`
	ToTargetX          float64 `json:"to_target_x"`
	ToTargetY          float64 `json:"to_target_y"`
}
