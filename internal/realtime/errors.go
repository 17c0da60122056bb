package realtime

import "fmt"

// AuthError rejects a handshake. It is terminal for the connection attempt;
// the server never retries on the client's behalf.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "realtime: auth: " + e.Reason
}

// TransportError is a read or write failure on an established connection.
// It triggers deregistration of that connection only.
type TransportError struct {
	ConnID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("realtime: transport error on connection %s: %v", e.ConnID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a malformed inbound message. The message is dropped and
// the connection kept alive.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "realtime: protocol error: " + e.Reason
}

// CapacityError means a connection's outbound buffer is full. The connection
// is forcibly closed rather than letting it stall delivery to others.
type CapacityError struct {
	ConnID string
}

func (e *CapacityError) Error() string {
	return "realtime: outbound buffer full on connection " + e.ConnID
}
