package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse reports a status response that does not split into
// the five expected sections.
var ErrMalformedResponse = errors.New("malformed status response")

const (
	sectionDelimiter    = "\n\r\n\r"
	sectionDelimiterAlt = "\n\r \n\r"
	sectionCount        = 5

	// sectionFraming is trimmed around each section. Escaped payloads never
	// carry these bytes raw, so trimming cannot eat data.
	sectionFraming = "\n\r "
)

// Response is a decoded status response.
type Response struct {
	Server   ServerInfo
	Channels []Channel
	Users    []User
	Flags    FlagIndex
}

// DecodeResponse splits raw into server info, channel list, client list,
// server group list and channel group list, and decodes each one.
func DecodeResponse(raw string) (*Response, error) {
	sections, err := splitSections(raw)
	if err != nil {
		return nil, err
	}

	serverRecords := DecodeRecords(sections[0])
	if len(serverRecords) == 0 {
		return nil, fmt.Errorf("%w: empty server info section", ErrMalformedResponse)
	}

	resp := &Response{
		Server: serverInfoFromRecord(serverRecords[0]),
		Flags:  NewFlagIndex(),
	}

	for _, r := range DecodeRecords(sections[1]) {
		resp.Channels = append(resp.Channels, channelFromRecord(r))
	}
	for _, r := range DecodeRecords(sections[2]) {
		resp.Users = append(resp.Users, userFromRecord(r))
	}
	addGroupFlags(resp.Flags.ServerGroups, DecodeRecords(sections[3]), "sgid")
	addGroupFlags(resp.Flags.ChannelGroups, DecodeRecords(sections[4]), "cgid")

	return resp, nil
}

// splitSections drops the leading byte and splits on the section delimiter.
// Some servers pad the blank line with a space, so the alternate delimiter is
// tried when the first one finds no boundary at all.
func splitSections(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	body := raw[1:]

	sections := strings.Split(body, sectionDelimiter)
	if len(sections) == 1 {
		sections = strings.Split(body, sectionDelimiterAlt)
	}
	if len(sections) != sectionCount {
		return nil, fmt.Errorf("%w: got %d sections, want %d", ErrMalformedResponse, len(sections), sectionCount)
	}

	for i, s := range sections {
		sections[i] = strings.Trim(s, sectionFraming)
	}
	return sections, nil
}
