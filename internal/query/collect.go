package query

import (
	"context"
	"fmt"
	"strings"
)

// Executor runs one ServerQuery command and returns the reply body.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// StatusCommands are the commands whose replies make up a status response,
// in section order.
var StatusCommands = []string{
	"serverinfo",
	"channellist -topic -flags -voice -limits",
	"clientlist -uid -away -voice -groups",
	"servergrouplist",
	"channelgrouplist",
}

// Collect runs StatusCommands and frames the replies the way a line-reading
// query socket yields them: each reply body is preceded by the carriage
// return left over from the previous reply, and bodies are separated by a
// blank line. The result is ready for DecodeResponse.
func Collect(ctx context.Context, exec Executor) (string, error) {
	if exec == nil {
		return "", fmt.Errorf("executor is nil")
	}
	bodies := make([]string, 0, len(StatusCommands))
	for _, cmd := range StatusCommands {
		body, err := exec.Execute(ctx, cmd)
		if err != nil {
			return "", fmt.Errorf("execute %q: %w", commandName(cmd), err)
		}
		bodies = append(bodies, body)
	}
	return "\r" + strings.Join(bodies, sectionDelimiter), nil
}

func commandName(cmd string) string {
	name, _, _ := strings.Cut(cmd, " ")
	return name
}
