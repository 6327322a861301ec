package domain

import (
	"batepapo/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// JoinCommand registers a new participant.
type JoinCommand struct {
	Name string `validate:"required"`
}

// PostMessageCommand appends a client-authored message. Clients may only
// post public or private messages; status is reserved for the system.
type PostMessageCommand struct {
	From string `validate:"required"`
	To   string `validate:"required"`
	Text string `validate:"required"`
	Kind Kind   `validate:"required,oneof=message private_message"`
}

func ValidateJoin(cmd JoinCommand) error {
	return asValidation(validate.Struct(cmd))
}

func ValidatePost(cmd PostMessageCommand) error {
	return asValidation(validate.Struct(cmd))
}

// ValidateEdited re-checks a message after a patch has been applied, so
// an edit cannot produce a message a fresh post would have rejected.
func ValidateEdited(m Message) error {
	return ValidatePost(PostMessageCommand{
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Kind: m.Kind,
	})
}

func asValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errors.ErrValidation, err)
}
