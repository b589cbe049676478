package state

// State owns every piece of process-lifetime relay state: the two recent-
// message ring buffers and the user-channel registry. It is created once
// at startup and injected into the dispatcher, provisioner, and hub; there
// is deliberately no teardown because the state is ephemeral by design.
type State struct {
	Chat     *Ring // local-provenance messages
	Slack    *Ring // external-provenance messages
	Bindings *Registry
}

func New(bufferCapacity int) *State {
	return &State{
		Chat:     NewRing(bufferCapacity),
		Slack:    NewRing(bufferCapacity),
		Bindings: NewRegistry(),
	}
}
