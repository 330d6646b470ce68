package ws

const (
	// client - server
	MsgNewGame   = "new_game"
	MsgJoinGame  = "join_game"
	MsgReveal    = "reveal"
	MsgFlag      = "flag"
	MsgRestart   = "restart"
	MsgLeaveGame = "leave_game"

	// server - client
	MsgReady     = "ready"
	MsgGameState = "game_state"
	MsgError     = "error"
)

// error codes carried in ErrorPayload.Code
const (
	CodeInvalidConfig     = "invalid_config"
	CodeInvalidCoordinate = "invalid_coordinate"
	CodeGameOver          = "game_over"
	CodeNotFound          = "not_found"
	CodeAlreadyExists     = "already_exists"
	CodeNotAParticipant   = "not_a_participant"
	CodeMalformedMessage  = "malformed_message"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)
