// Package remote mirrors the selection of a browser-side list over a
// websocket, so that each connected client behaves like one more host
// control bound to the shared model selection.
package remote

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/selsync/internal/errors"
)

// FrameType identifies a frame.
type FrameType string

const (
	// Client to server.
	FrameSelect FrameType = "select"
	FrameFocus  FrameType = "focus"

	// Server to client.
	FrameHello FrameType = "hello"
	FrameApply FrameType = "apply"
	FrameError FrameType = "error"
)

// Frame is one JSON message on the socket.
type Frame struct {
	Type    FrameType `json:"type"`
	Session string    `json:"session,omitempty"`
	Options []string  `json:"options,omitempty"`
	Items   []string  `json:"items,omitempty"`
	Message string    `json:"message,omitempty"`
}

// DecodeFrame parses and validates a client frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.New("E160").Wrap(err)
	}
	switch f.Type {
	case FrameSelect, FrameFocus:
		return f, nil
	case "":
		return Frame{}, errors.New("E160").Wrap(fmt.Errorf("frame without type"))
	default:
		return Frame{}, errors.New("E160").Wrap(fmt.Errorf("unexpected frame type %q", f.Type))
	}
}
