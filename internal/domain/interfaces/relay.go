package interfaces

// RelayConn is a participant's connection to the relay. Send and Receive carry
// one encoded envelope line each; transports add or strip their own framing.
type RelayConn interface {
	Send(line []byte) error
	Receive() ([]byte, error)
	Close() error
	RemoteAddr() string
}
