package httpapi

import "batepapo/domain"

// Response shapes mirror the original service's documents.

type participantDTO struct {
	Name          string `json:"name"`
	LastHeartbeat int64  `json:"lastStatus"`
}

func toParticipantDTO(p domain.Participant) participantDTO {
	return participantDTO{Name: p.Name, LastHeartbeat: p.LastHeartbeat.UnixMilli()}
}

type messageDTO struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"type"`
	Time string `json:"time"` // display only, HH:MM:SS
}

func toMessageDTO(m domain.Message) messageDTO {
	return messageDTO{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Kind: string(m.Kind),
		Time: m.DisplayTime(),
	}
}
