package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// resolveUser reads the configured git identity and the numeric id of the
// invoking OS user. All three values must be present; a partial identity is
// never returned.
func (r *ContextResolver) resolveUser(ctx context.Context, dir string) (domain.UserData, error) {
	name, err := r.probeValue(ctx, dir, domain.CmdGitUserName)
	if err != nil {
		return domain.UserData{}, err
	}

	email, err := r.probeValue(ctx, dir, domain.CmdGitUserEmail)
	if err != nil {
		return domain.UserData{}, err
	}

	uid, err := r.probeValue(ctx, dir, domain.CmdUserID)
	if err != nil {
		return domain.UserData{}, err
	}
	if _, err := strconv.ParseUint(uid, 10, 64); err != nil {
		return domain.UserData{}, fmt.Errorf("%w: %s returned non-numeric id %q", domain.ErrProbeAbsent, domain.CmdUserID, uid)
	}

	return domain.UserData{
		ID:    uid,
		Login: loginFromEmail(email),
		Name:  name,
		Email: email,
	}, nil
}

// loginFromEmail returns the local part of an email address.
func loginFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
