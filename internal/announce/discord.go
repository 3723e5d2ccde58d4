package announce

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord posts season events to a single channel over the REST API. No
// gateway connection is opened.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) SeasonEvent(ctx context.Context, ev Event) error {
	_, err := d.session.ChannelMessageSend(d.channelID, renderEvent(ev), discordgo.WithContext(ctx))
	return err
}

func renderEvent(ev Event) string {
	switch ev.Kind {
	case KindGrandSolve:
		return fmt.Sprintf("**SYSTEM COMPROMISED.** `%s` drained the vault for %d credits. Season %d is generating.", ev.UserID, ev.Payout, ev.NextSeason)
	case KindSeasonAdvance:
		return fmt.Sprintf("The grid shifts. Season %d ends, season %d begins.", ev.Season, ev.NextSeason)
	case KindSeasonReset:
		return fmt.Sprintf("The board is wiped. Season %d re-armed with %d credits in the vault.", ev.Season, ev.Vault)
	default:
		return fmt.Sprintf("House event: %s", ev.Kind)
	}
}
