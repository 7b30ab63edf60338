package query

import (
	"strconv"
	"strings"
	"time"
)

// ClientType distinguishes voice clients from other query connections.
type ClientType int

const (
	ClientRegular ClientType = 0
	ClientQuery   ClientType = 1
)

// ServerInfo is the subset of serverinfo shown by the viewer.
type ServerInfo struct {
	Name               string
	Port               int
	Version            string
	ClientsOnline      int
	QueryClientsOnline int
	MaxClients         int
	Uptime             time.Duration
}

// Channel is one entry of channellist.
type Channel struct {
	ID                 int
	ParentID           int // 0 for root-level channels
	Name               string
	Topic              string
	Permanent          bool
	Default            bool
	PasswordProtected  bool
	NeededTalkPower    int
	MaxClients         int // -1 means unlimited
	MaxFamilyClients   int // -1 means unlimited
	TotalClients       int
	TotalClientsFamily int
}

// User is one entry of clientlist.
type User struct {
	ID             int
	ChannelID      int
	Nickname       string
	Type           ClientType
	TalkPower      int
	Away           bool
	AwayMessage    string
	Talking        bool
	OutputHardware bool
	OutputMuted    bool
	InputHardware  bool
	InputMuted     bool
	ChannelGroupID int
	ServerGroupIDs []int
}

// IsRegular reports whether the user is a voice client rather than a query login.
func (u User) IsRegular() bool {
	return u.Type == ClientRegular
}

func serverInfoFromRecord(r Record) ServerInfo {
	return ServerInfo{
		Name:               r.Get("virtualserver_name"),
		Port:               r.Int("virtualserver_port"),
		Version:            r.Get("virtualserver_version"),
		ClientsOnline:      r.Int("virtualserver_clientsonline"),
		QueryClientsOnline: r.Int("virtualserver_queryclientsonline"),
		MaxClients:         r.Int("virtualserver_maxclients"),
		Uptime:             time.Duration(r.Int64("virtualserver_uptime")) * time.Second,
	}
}

func channelFromRecord(r Record) Channel {
	return Channel{
		ID:                 r.Int("cid"),
		ParentID:           r.Int("pid"),
		Name:               r.Get("channel_name"),
		Topic:              r.Get("channel_topic"),
		Permanent:          r.Bool("channel_flag_permanent"),
		Default:            r.Bool("channel_flag_default"),
		PasswordProtected:  r.Bool("channel_flag_password"),
		NeededTalkPower:    r.Int("channel_needed_talk_power"),
		MaxClients:         r.IntOr("channel_maxclients", -1),
		MaxFamilyClients:   r.IntOr("channel_maxfamilyclients", -1),
		TotalClients:       r.Int("total_clients"),
		TotalClientsFamily: r.Int("total_clients_family"),
	}
}

func userFromRecord(r Record) User {
	return User{
		ID:             r.Int("clid"),
		ChannelID:      r.Int("cid"),
		Nickname:       r.Get("client_nickname"),
		Type:           ClientType(r.Int("client_type")),
		TalkPower:      r.Int("client_talk_power"),
		Away:           r.Bool("client_away"),
		AwayMessage:    r.Get("client_away_message"),
		Talking:        r.Bool("client_flag_talking"),
		OutputHardware: r.Bool("client_output_hardware"),
		OutputMuted:    r.Bool("client_output_muted"),
		InputHardware:  r.Bool("client_input_hardware"),
		InputMuted:     r.Bool("client_input_muted"),
		ChannelGroupID: r.Int("client_channel_group_id"),
		ServerGroupIDs: parseIDList(r.Get("client_servergroups")),
	}
}

// parseIDList reads a comma-separated id list, skipping blanks and junk.
func parseIDList(value string) []int {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
