package domain

import (
	"encoding/json"
	"fmt"
)

// FrameType discriminates the stream frame union.
type FrameType string

const (
	FrameTypePapers     FrameType = "papers"
	FrameTypeAIResponse FrameType = "aiResponse"
	FrameTypeError      FrameType = "error"
)

// Frame is one newline-terminated JSON message in the server-to-client answer
// stream. Exactly one papers frame opens a stream; zero or more non-empty
// aiResponse increments follow; exactly one terminal frame closes it, either
// aiResponse with Done set or an error frame.
type Frame struct {
	Type    FrameType
	Papers  []Paper // papers frames only
	Content string  // aiResponse and error frames
	Done    bool    // aiResponse frames only
}

// Terminal reports whether no further frames may follow this one.
func (f Frame) Terminal() bool {
	return f.Type == FrameTypeError || (f.Type == FrameTypeAIResponse && f.Done)
}

// PapersFrame builds the opening frame carrying the normalized paper list.
// A nil slice is sent as an empty array so clients always see a list.
func PapersFrame(papers []Paper) Frame {
	if papers == nil {
		papers = []Paper{}
	}
	return Frame{Type: FrameTypePapers, Papers: papers}
}

// TextFrame builds a non-terminal answer increment.
func TextFrame(content string) Frame {
	return Frame{Type: FrameTypeAIResponse, Content: content}
}

// DoneFrame builds the terminal aiResponse frame. Content is usually empty;
// the no-results short circuit carries its fixed message here.
func DoneFrame(content string) Frame {
	return Frame{Type: FrameTypeAIResponse, Content: content, Done: true}
}

// ErrorFrame builds the terminal error frame.
func ErrorFrame(content string) Frame {
	return Frame{Type: FrameTypeError, Content: content}
}

type papersWire struct {
	Type    FrameType `json:"type"`
	Content []Paper   `json:"content"`
}

type aiResponseWire struct {
	Type    FrameType `json:"type"`
	Content string    `json:"content"`
	Done    bool      `json:"done"`
}

type errorWire struct {
	Type    FrameType `json:"type"`
	Content string    `json:"content"`
}

// MarshalJSON serializes the variant that matches the frame type.
func (f Frame) MarshalJSON() ([]byte, error) {
	switch f.Type {
	case FrameTypePapers:
		papers := f.Papers
		if papers == nil {
			papers = []Paper{}
		}
		return json.Marshal(papersWire{Type: f.Type, Content: papers})
	case FrameTypeAIResponse:
		return json.Marshal(aiResponseWire{Type: f.Type, Content: f.Content, Done: f.Done})
	case FrameTypeError:
		return json.Marshal(errorWire{Type: f.Type, Content: f.Content})
	default:
		return nil, fmt.Errorf("frame: unknown type %q", f.Type)
	}
}

// UnmarshalJSON decodes any of the three wire variants.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var head struct {
		Type    FrameType       `json:"type"`
		Content json.RawMessage `json:"content"`
		Done    bool            `json:"done"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Type {
	case FrameTypePapers:
		var papers []Paper
		if len(head.Content) > 0 {
			if err := json.Unmarshal(head.Content, &papers); err != nil {
				return fmt.Errorf("frame: papers content: %w", err)
			}
		}
		*f = PapersFrame(papers)
		return nil
	case FrameTypeAIResponse, FrameTypeError:
		var content string
		if len(head.Content) > 0 {
			if err := json.Unmarshal(head.Content, &content); err != nil {
				return fmt.Errorf("frame: %s content: %w", head.Type, err)
			}
		}
		*f = Frame{Type: head.Type, Content: content, Done: head.Done}
		return nil
	default:
		return fmt.Errorf("frame: unknown type %q", head.Type)
	}
}
