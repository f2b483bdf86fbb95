package protocol

// Wire ops. The protocol is a one-way notification stream: no message
// carries a correlation id, and any backend acknowledgment arrives as an
// independent inbound event.
const (
	OpPing        = "ping"
	OpLogin       = "login"
	OpSubmitOrder = "submitorder"
	OpFillRequest = "fillrequest"
	OpCancelOrder = "cancelorder"
	OpCancelAll   = "cancelall"
)

// Message is the fixed {op, args} wire shape.
type Message struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

// Ping is the 5-second keep-alive message.
func Ping() Message {
	return Message{Op: OpPing, Args: []any{}}
}

// Login announces the authenticated session, once per session.
func Login(chainID uint64, accountID string) Message {
	return Message{Op: OpLogin, Args: []any{chainID, accountID}}
}

// SubmitOrder carries a chain-specific signed order payload.
func SubmitOrder(chainID uint64, signedOrder any) Message {
	return Message{Op: OpSubmitOrder, Args: []any{chainID, signedOrder}}
}

// FillRequest offers to fill a resting order.
func FillRequest(chainID, orderID uint64, fillOrder any) Message {
	return Message{Op: OpFillRequest, Args: []any{chainID, orderID, fillOrder}}
}

// CancelOrder cancels a single resting order.
func CancelOrder(chainID, orderID uint64) Message {
	return Message{Op: OpCancelOrder, Args: []any{chainID, orderID}}
}

// CancelAll cancels every resting order for an account.
func CancelAll(chainID uint64, accountID string) Message {
	return Message{Op: OpCancelAll, Args: []any{chainID, accountID}}
}
