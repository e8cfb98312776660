package core

import "fmt"

// Performative is the speech-act tag of a dialogue message.
type Performative string

const (
	Propose Performative = "PROPOSE"
	Accept  Performative = "ACCEPT"
	AskWhy  Performative = "ASK_WHY"
	Argue   Performative = "ARGUE"
	Commit  Performative = "COMMIT"
	StandBy Performative = "STAND_BY"
)

var validPerformatives = map[Performative]bool{
	Propose: true,
	Accept:  true,
	AskWhy:  true,
	Argue:   true,
	Commit:  true,
	StandBy: true,
}

// Performatives returns all performatives in protocol order.
func Performatives() []Performative {
	return []Performative{Propose, Accept, AskWhy, Argue, Commit, StandBy}
}

// Valid reports whether p is a known performative.
func (p Performative) Valid() bool {
	return validPerformatives[p]
}

// Message is one speech act sent from one party to the other. After it is
// handed to the transport it is treated as immutable.
type Message struct {
	ID           string       `json:"id"`
	Sender       string       `json:"sender"`
	Receiver     string       `json:"receiver"`
	Performative Performative `json:"performative"`
	Content      string       `json:"content"`
}

func (m Message) String() string {
	return fmt.Sprintf("%s -> %s %s(%s)", m.Sender, m.Receiver, m.Performative, m.Content)
}
