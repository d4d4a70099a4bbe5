package gossip

import (
	"bufio"
	"io"

	"github.com/rng-ops/gossip/internal/codec"
)

// writeMessage frames and writes one message to w.
func writeMessage(w io.Writer, m Message) error {
	payload, err := m.MarshalCanonical()
	if err != nil {
		return err
	}
	return codec.WriteFrame(w, codec.Frame{Type: m.MessageTag(), Payload: payload})
}

// readMessage reads and decodes one message from r.
func readMessage(r *bufio.Reader) (Message, error) {
	f, err := codec.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	m, err := newMessageForTag(f.Type)
	if err != nil {
		return nil, err
	}
	if err := m.UnmarshalCanonical(f.Payload); err != nil {
		return nil, err
	}
	return m, nil
}
