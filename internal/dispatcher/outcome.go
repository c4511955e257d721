package dispatcher

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/models"
)

// ErrNotFound may be returned by Platform implementations that do not speak
// Discord REST errors. It classifies as OutcomeMissing.
var ErrNotFound = errors.New("entity not found")

// Outcome maps the result of a platform call. Unknown-entity errors mean the
// target is already gone and are reported as Missing; everything else that
// failed is Unknown.
func Outcome(err error) models.Outcome {
	if err == nil {
		return models.OutcomeSuccess
	}
	if errors.Is(err, ErrNotFound) {
		return models.OutcomeMissing
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownGuild,
				discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownMessage,
				discordgo.ErrCodeUnknownRole,
				discordgo.ErrCodeUnknownUser:
				return models.OutcomeMissing
			}
		}
		if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return models.OutcomeMissing
		}
	}

	return models.OutcomeUnknown
}

// Timeout reports whether err came from an expired action deadline.
func Timeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
