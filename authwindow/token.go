package authwindow

import (
	"fmt"
	"time"
)

const messageSuffix = "starRegistry"

// Token is the challenge handed to a wallet. ValidationWindow is the number
// of seconds left at the time the view was produced.
type Token struct {
	Address          string `json:"address"`
	RequestTimeStamp int64  `json:"requestTimeStamp,string"`
	Message          string `json:"message"`
	ValidationWindow int64  `json:"validationWindow"`
}

// Status is the body of a successful authorization.
type Status struct {
	Address          string `json:"address"`
	RequestTimeStamp int64  `json:"requestTimeStamp,string"`
	Message          string `json:"message"`
	ValidationWindow int64  `json:"validationWindow"`
	MessageSignature string `json:"messageSignature"`
}

type AuthorizationStatus struct {
	RegisterStar bool   `json:"registerStar"`
	Status       Status `json:"status"`
}

// Permit is the single write granted by a successful authorization. It
// expires together with the token it was issued from.
type Permit struct {
	Address  string
	Message  string
	Deadline time.Time
}

func challengeMessage(address string, ts int64) string {
	return fmt.Sprintf("%s:%d:%s", address, ts, messageSuffix)
}

// record is the stored form of a token
type record struct {
	address          string
	requestTimeStamp int64
	message          string
	deadline         time.Time
}

func newRecord(address string, now time.Time, window time.Duration) *record {
	ts := now.Unix()
	return &record{
		address:          address,
		requestTimeStamp: ts,
		message:          challengeMessage(address, ts),
		deadline:         time.Unix(ts, 0).Add(window),
	}
}

func (r *record) expired(now time.Time) bool {
	return !now.Before(r.deadline)
}

// remaining returns the whole seconds left before the deadline, never negative.
func (r *record) remaining(now time.Time) int64 {
	left := r.deadline.Unix() - now.Unix()
	if left < 0 {
		return 0
	}
	return left
}

func (r *record) view(now time.Time) Token {
	return Token{
		Address:          r.address,
		RequestTimeStamp: r.requestTimeStamp,
		Message:          r.message,
		ValidationWindow: r.remaining(now),
	}
}
