package service

import (
	"crypto/rand"
)

const (
	transactionPrefix  = "TXN"
	transactionCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	transactionDigits  = 12
)

// Gateway issues transaction references for completed payments. The real
// payment provider integration is out of scope; the mock mirrors its reference
// format so downstream reporting stays stable.
type Gateway interface {
	NewTransactionID() string
}

type mockGateway struct{}

func NewMockGateway() Gateway {
	return mockGateway{}
}

func (mockGateway) NewTransactionID() string {
	buf := make([]byte, transactionDigits)
	// rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)

	id := make([]byte, 0, len(transactionPrefix)+transactionDigits)
	id = append(id, transactionPrefix...)
	for _, b := range buf {
		id = append(id, transactionCharset[int(b)%len(transactionCharset)])
	}
	return string(id)
}
