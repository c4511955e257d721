package commands

import "github.com/bwmarrin/discordgo"

var adminOnly int64 = discordgo.PermissionAdministrator

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Show gateway latency",
		},
		{
			Name:        "status",
			Description: "Show raid state, recent incidents and host stats",
		},
		{
			Name:                     "raid",
			Description:              "Control raid lockdown",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "lock",
					Description: "Deny @everyone from sending messages in every channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "unlock",
					Description: "Restore sending messages in every channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
	}
}
