package core

// Recipient addresses a Message to a single registered agent or to all of
// them. The zero value is not a valid recipient; use ToAgent or All.
type Recipient struct {
	id  string
	all bool
}

// All addresses every currently registered agent.
var All = Recipient{all: true}

// ToAgent addresses the agent with the given identity.
func ToAgent(id string) Recipient { return Recipient{id: id} }

// IsAll reports whether the recipient is the broadcast address.
func (r Recipient) IsAll() bool { return r.all }

// AgentID returns the addressed agent identity; empty for the broadcast
// address.
func (r Recipient) AgentID() string { return r.id }

// String returns a human-readable form for logging.
func (r Recipient) String() string {
	if r.all {
		return "all"
	}
	return r.id
}

// Message is a peer-to-peer (or broadcast) datum exchanged between agents
// through the messager. Treat it as immutable once sent. Data is an opaque
// byte payload; decoding is the receiving Behavior's concern.
type Message struct {
	From string    // Sender identity
	To   Recipient // Named agent or All
	Data []byte    // Opaque payload
}

// NewMessage constructs a Message addressed to a single agent.
func NewMessage(from, to string, data []byte) Message {
	return Message{From: from, To: ToAgent(to), Data: data}
}

// NewBroadcast constructs a Message addressed to all registered agents.
func NewBroadcast(from string, data []byte) Message {
	return Message{From: from, To: All, Data: data}
}
