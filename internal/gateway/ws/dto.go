package ws

// ClientMsg é a mensagem de controle enviada pelo cliente WebSocket
type ClientMsg struct {
	Type     string `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	MatchKey string `json:"match_key"`
}
