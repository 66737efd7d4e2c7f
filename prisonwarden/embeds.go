package prisonwarden

import (
	"github.com/bwmarrin/discordgo"
)

const (
	embedColorFail    = 0xed4245
	embedColorWarn    = 0xf1c40f
	embedColorSuccess = 0x57f287
	embedColorBlurple = 0x5865f2
	embedColorGold    = 0xf0b132
)

// baseEmbed returns an embed with the bot's accent color applied.
func (p *PrisonWarden) baseEmbed(title string, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       p.config.Discord.EmbedColor,
	}
}

func failEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: description,
		Color:       embedColorFail,
	}
}

func warnEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Warning",
		Description: description,
		Color:       embedColorWarn,
	}
}

func embedAuthor(name string, iconURL string) *discordgo.MessageEmbedAuthor {
	return &discordgo.MessageEmbedAuthor{Name: name, IconURL: iconURL}
}

func embedFooter(text string, iconURL string) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: text, IconURL: iconURL}
}

func embedField(name string, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value}
}

func embedFieldInline(name string, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
