package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// roleID maps an internal role to its pre-provisioned guild role id. Empty
// when the role has no guild counterpart.
func (b *Bot) roleID(role string) string {
	switch role {
	case "candidate":
		return b.cfg.Roles.Candidate
	case "recruiter":
		return b.cfg.Roles.Recruiter
	case "school_admin":
		return b.cfg.Roles.SchoolAdmin
	default:
		return ""
	}
}

func (b *Bot) verifiedRoleIDs() []string {
	var ids []string
	for _, id := range []string{b.cfg.Roles.Candidate, b.cfg.Roles.Recruiter, b.cfg.Roles.SchoolAdmin} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// AssignRole swaps the unverified role for the mapped verified role and sends
// a best-effort confirmation DM.
func (b *Bot) AssignRole(discordID, role string) error {
	mapped := b.roleID(role)
	if mapped == "" {
		return fmt.Errorf("no guild role mapped for %q", role)
	}

	member := b.memberForUser(discordID)
	if member == nil {
		return fmt.Errorf("user %s is not a guild member", discordID)
	}

	if b.cfg.UnverifiedRoleID != "" && hasRole(member, b.cfg.UnverifiedRoleID) {
		if err := b.session.GuildMemberRoleRemove(b.guildID, discordID, b.cfg.UnverifiedRoleID); err != nil {
			b.logger.Warn("unverified role removal failed", zap.String("discord_id", discordID), zap.Error(err))
		}
	}
	if err := b.session.GuildMemberRoleAdd(b.guildID, discordID, mapped); err != nil {
		return fmt.Errorf("role add: %w", err)
	}

	b.sendRoleDM(discordID, role)
	b.logger.Info("role assigned", zap.String("discord_id", discordID), zap.String("role", role))
	return nil
}

// RemoveRole strips every mapped verified role and restores the unverified role.
func (b *Bot) RemoveRole(discordID string) error {
	member := b.memberForUser(discordID)
	if member == nil {
		return fmt.Errorf("user %s is not a guild member", discordID)
	}

	for _, id := range b.verifiedRoleIDs() {
		if !hasRole(member, id) {
			continue
		}
		if err := b.session.GuildMemberRoleRemove(b.guildID, discordID, id); err != nil {
			return fmt.Errorf("role remove: %w", err)
		}
	}
	if b.cfg.UnverifiedRoleID != "" {
		if err := b.session.GuildMemberRoleAdd(b.guildID, discordID, b.cfg.UnverifiedRoleID); err != nil {
			b.logger.Warn("unverified role restore failed", zap.String("discord_id", discordID), zap.Error(err))
		}
	}

	b.logger.Info("roles removed", zap.String("discord_id", discordID))
	return nil
}

// sendRoleDM confirms verification over DM. Users with DMs disabled are
// skipped silently.
func (b *Bot) sendRoleDM(discordID, role string) {
	channel, err := b.session.UserChannelCreate(discordID)
	if err != nil {
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Verification complete",
		Description: fmt.Sprintf("Your Coastal Haven account is verified. You now have the **%s** role.", role),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Coastal Haven Partners"},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_, _ = b.session.ChannelMessageSendEmbed(channel.ID, embed)
}

func (b *Bot) memberForUser(discordID string) *discordgo.Member {
	member, err := b.session.State.Member(b.guildID, discordID)
	if err == nil && member != nil {
		return member
	}
	member, _ = b.session.GuildMember(b.guildID, discordID)
	return member
}

func hasRole(member *discordgo.Member, roleID string) bool {
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
