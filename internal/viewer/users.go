package viewer

import (
	"sort"
	"strings"

	"github.com/five82/ts3view/internal/query"
)

// User status icon tokens, in priority order.
const (
	IconAway                = "away"
	IconTalking             = "talking"
	IconOutputHardwareMuted = "output-hardware-muted"
	IconOutputMuted         = "output-muted"
	IconInputHardwareMuted  = "input-hardware-muted"
	IconInputMuted          = "input-muted"
	IconIdle                = "idle"
)

// RenderedUser is a user leaf of the rendered tree.
type RenderedUser struct {
	Icon        string
	Name        string
	Flags       []string
	AwayMessage string
}

// RegularClients drops query connections, keeping input order.
func RegularClients(users []query.User) []query.User {
	out := make([]query.User, 0, len(users))
	for _, u := range users {
		if u.IsRegular() {
			out = append(out, u)
		}
	}
	return out
}

// AggregateUsers groups regular clients by channel id, ordered by talk power
// (highest first) and then by nickname ignoring case.
func AggregateUsers(users []query.User, flags query.FlagIndex) map[int][]RenderedUser {
	regular := RegularClients(users)
	sort.SliceStable(regular, func(i, j int) bool {
		a, b := regular[i], regular[j]
		if a.TalkPower != b.TalkPower {
			return a.TalkPower > b.TalkPower
		}
		return strings.ToLower(a.Nickname) < strings.ToLower(b.Nickname)
	})

	byChannel := make(map[int][]RenderedUser)
	for _, u := range regular {
		byChannel[u.ChannelID] = append(byChannel[u.ChannelID], RenderedUser{
			Icon:        userIcon(u),
			Name:        u.Nickname,
			Flags:       userFlags(u, flags),
			AwayMessage: u.AwayMessage,
		})
	}
	return byChannel
}

func userIcon(u query.User) string {
	switch {
	case u.Away:
		return IconAway
	case u.Talking:
		return IconTalking
	case !u.OutputHardware:
		return IconOutputHardwareMuted
	case u.OutputMuted:
		return IconOutputMuted
	case !u.InputHardware:
		return IconInputHardwareMuted
	case u.InputMuted:
		return IconInputMuted
	default:
		return IconIdle
	}
}

// userFlags lists the channel group icon first, then server group icons in
// the order the server reports them. Repeats are kept.
func userFlags(u query.User, flags query.FlagIndex) []string {
	var out []string
	if token, ok := flags.ChannelGroupFlag(u.ChannelGroupID); ok {
		out = append(out, token)
	}
	for _, id := range u.ServerGroupIDs {
		if token, ok := flags.ServerGroupFlag(id); ok {
			out = append(out, token)
		}
	}
	return out
}
