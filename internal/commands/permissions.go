package commands

import (
	"github.com/bwmarrin/discordgo"
)

// checkPermissions reports whether the invoking member holds Administrator.
// Discord resolves the member's permissions, including ownership, before
// delivering the interaction.
func checkPermissions(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// permissionError builds a permission denied response
func permissionError(message string) *discordgo.InteractionResponseData {
	return ephemeral(&discordgo.MessageEmbed{
		Title:       "Access Denied",
		Description: message,
		Color:       colorNeutral,
	})
}
