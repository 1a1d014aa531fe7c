package session

import (
    "github.com/iyunix/go-docchat/internal/domain"
    "github.com/iyunix/go-docchat/internal/format"
)

// State is the active conversation pointer and its cached source text.
// A zero ActiveID means no conversation is active.
type State struct {
    ActiveID   uint   `json:"active_id"`
    SourceText string `json:"-"`
}

func (s State) HasActive() bool { return s.ActiveID != 0 }

// Effects tells the presentation layer what to do after a transition.
type Effects struct {
    Clear       bool                     `json:"clear"`
    Append      []format.RenderedMessage `json:"append"`
    RefreshList bool                     `json:"refresh_list"`
    Warning     string                   `json:"warning,omitempty"`
}

// The transitions below are pure: they compute the next state and effects
// from the current state and the results of completed store calls.

func loaded(conv *domain.Conversation, summary format.RenderedMessage) (State, Effects) {
    return State{ActiveID: conv.ID, SourceText: conv.SourceText()},
        Effects{Clear: true, Append: []format.RenderedMessage{summary}, RefreshList: true}
}

func created(conv *domain.Conversation) (State, Effects) {
    return State{ActiveID: conv.ID, SourceText: conv.SourceText()},
        Effects{Clear: true, Append: []format.RenderedMessage{}, RefreshList: true}
}

func selected(conv *domain.Conversation, history []format.RenderedMessage) (State, Effects) {
    return State{ActiveID: conv.ID, SourceText: conv.SourceText()},
        Effects{Clear: true, Append: history}
}

func deleted(old State, id uint, removed bool) (State, Effects) {
    if !removed {
        return old, Effects{Append: []format.RenderedMessage{}}
    }
    if old.ActiveID == id {
        return State{}, Effects{Clear: true, Append: []format.RenderedMessage{}, RefreshList: true}
    }
    return old, Effects{Append: []format.RenderedMessage{}, RefreshList: true}
}

func asked(old State, turn []format.RenderedMessage) (State, Effects) {
    return old, Effects{Append: turn}
}
