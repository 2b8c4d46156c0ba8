// Package pipeline assembles the higher-level IR documents: QA units from
// a parsed conversation, and the cross-platform session alignment from
// several platforms' QA units.
package pipeline

import (
	"strings"

	"chatweave/internal/extract"
	"chatweave/internal/ir"
)

// BuildQAUnitIR groups a conversation's messages into question-answer
// units. A unit is a run of consecutive user messages followed by the run
// of assistant messages answering them. Assistant messages before the
// first user message are dropped, as is a trailing user run that never got
// an answer.
func BuildQAUnitIR(conv *ir.ConversationIR, extractor extract.Extractor) *ir.QAUnitIR {
	if extractor == nil {
		extractor = extract.NewHeuristic()
	}

	groups := groupMessages(conv.Messages)

	units := make([]ir.QAUnit, 0, len(groups))
	for index, g := range groups {
		units = append(units, buildUnit(index, g, conv, extractor))
	}

	return &ir.QAUnitIR{
		Schema:         ir.QAUnitSchema,
		Platform:       conv.Platform,
		ConversationID: conv.ConversationID,
		QAUnits:        units,
	}
}

type qaGroup struct {
	users      []ir.MessageIR
	assistants []ir.MessageIR
}

func groupMessages(messages []ir.MessageIR) []qaGroup {
	var groups []qaGroup
	var current qaGroup

	for _, msg := range messages {
		switch msg.Role {
		case ir.RoleUser:
			// A user message after assistant replies closes the unit.
			if len(current.assistants) > 0 {
				if len(current.users) > 0 {
					groups = append(groups, current)
				}
				current = qaGroup{}
			}
			current.users = append(current.users, msg)

		case ir.RoleAssistant:
			if len(current.users) > 0 {
				current.assistants = append(current.assistants, msg)
			}
		}
	}

	if len(current.users) > 0 && len(current.assistants) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func buildUnit(index int, g qaGroup, conv *ir.ConversationIR, extractor extract.Extractor) ir.QAUnit {
	userIDs := make([]string, len(g.users))
	var userContents []string
	for i, msg := range g.users {
		userIDs[i] = msg.ID
		if msg.RawContent != "" {
			userContents = append(userContents, msg.RawContent)
		}
	}

	assistantIDs := make([]string, len(g.assistants))
	for i, msg := range g.assistants {
		assistantIDs[i] = msg.ID
	}

	var questionFromUser *string
	if len(userContents) > 0 {
		joined := strings.Join(userContents, "\n\n")
		questionFromUser = &joined
	}

	// The recap section, when present, opens the first assistant message.
	var summary *string
	if len(g.assistants) > 0 {
		if s := extractor.Extract(g.assistants[0].RawContent); s != "" {
			summary = &s
		}
	}

	var queryHash *string
	if len(g.users) > 0 && g.users[0].QueryHash != nil {
		queryHash = g.users[0].QueryHash
	}

	return ir.QAUnit{
		QAID:                         ir.QAID(index),
		Platform:                     conv.Platform,
		ConversationID:               conv.ConversationID,
		UserMessageIDs:               userIDs,
		AssistantMessageIDs:          assistantIDs,
		QuestionFromUser:             questionFromUser,
		QuestionFromAssistantSummary: summary,
		UserQueryHash:                queryHash,
		Meta:                         map[string]any{},
	}
}
